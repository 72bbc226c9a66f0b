package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/gatt"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [name | id | uuid]...",
	Short: "Print the GATT addressing table",
	Long: `Maps logical ids to the autopilot's 128-bit GATT UUIDs and back.

Without arguments the whole table is printed. Each argument may be a table
name (Sog), a 16-bit id (0x2003 or 2003, hex) or a UUID in any spelling.

Examples:
  navlink resolve
  navlink resolve Navigation 0x2006
  navlink resolve 00002003-0000-1000-8000-5786db67eec5
  navlink resolve --strict 0x3000`,
	RunE: runResolve,
}

var resolveStrict bool

func init() {
	initResolveFlags()
}

func initResolveFlags() {
	resolveCmd.Flags().BoolVar(&resolveStrict, "strict", false, "Reject ids outside the reserved service and characteristic ranges")
}

func runResolve(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return printAddressTable(out, gatt.Table())
	}

	rows := make([]gatt.Address, 0, len(args))
	for _, arg := range args {
		addr, err := resolveArg(arg, resolveStrict)
		if err != nil {
			return err
		}
		rows = append(rows, addr)
	}
	cmd.SilenceUsage = true
	return printAddressTable(out, rows)
}

// resolveArg interprets arg as a table name, a UUID or a hex id, in that order
func resolveArg(arg string, strict bool) (gatt.Address, error) {
	arg = strings.TrimSpace(arg)
	if addr, ok := gatt.ByName(arg); ok {
		return addr, nil
	}
	if id, ok := gatt.Lookup(arg); ok {
		return gatt.Address{ID: id, UUID: gatt.Resolve(id)}, nil
	}

	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 16)
	if err != nil {
		return gatt.Address{}, fmt.Errorf("cannot resolve %q: not a table name, UUID or 16-bit hex id", arg)
	}
	id := gatt.ID(v)
	if !strict {
		return gatt.Address{ID: id, UUID: gatt.Resolve(id)}, nil
	}

	var u gatt.UUID
	if id.IsService() {
		u, err = gatt.ResolveService(id)
	} else {
		u, err = gatt.ResolveCharacteristic(id)
	}
	if err != nil {
		return gatt.Address{}, err
	}
	return gatt.Address{ID: id, UUID: u}, nil
}

func printAddressTable(out io.Writer, rows []gatt.Address) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tKIND\tUUID")
	for _, r := range rows {
		name := r.ID.Name()
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t0x%04X\t%s\t%s\n", name, uint16(r.ID), idKind(r.ID), r.UUID)
	}
	return w.Flush()
}

func idKind(id gatt.ID) string {
	switch {
	case id.IsService():
		return "service"
	case id.IsCharacteristic():
		return "characteristic"
	default:
		return "unreserved"
	}
}
