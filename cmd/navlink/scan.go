package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/presentation"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BlueNav autopilots",
	Long: `Scan for BlueNav autopilots in range and list them in discovery order.

Each autopilot is listed once even when it advertises repeatedly; the RSSI
shown is the most recent one.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanAll      bool
)

var scanFormats = []string{"table", "json"}

func init() {
	initScanFlags()
}

func initScanFlags() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 0, "Scan duration (default scan_timeout from config, 0 there scans until Ctrl+C)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "List every advertising device, not only BlueNav autopilots")
}

func runScan(cmd *cobra.Command, args []string) error {
	if !slices.Contains(scanFormats, scanFormat) {
		return fmt.Errorf("invalid format '%s': must be one of %v", scanFormat, scanFormats)
	}

	var filter *string
	if scanAll {
		empty := ""
		filter = &empty
	}
	env, err := newCommandEnv(cmd, filter)
	if err != nil {
		return err
	}
	defer env.Close()

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	duration := env.cfg.ScanTimeout
	if cmd.Flags().Changed("duration") {
		duration = scanDuration
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	_, stopProgress := startProgress(cmd.ErrOrStderr(), "Scanning for autopilots", "Scanning", duration)

	stream, err := env.session.Scan(ctx)
	if err != nil {
		stopProgress()
		return err
	}
	<-stream.Done()
	stopProgress()

	if err := stream.Err(); err != nil {
		return err
	}

	devices := env.session.Devices()
	out := cmd.OutOrStdout()
	if scanFormat == "json" {
		return displayDevicesJSON(out, devices)
	}
	if err := displayDevicesTable(out, devices, time.Now()); err != nil {
		return err
	}
	st := env.session.State()
	_, err = fmt.Fprintf(out, "\nstate: %s\n", presentation.Colorize(st, st.String()))
	return err
}

// truncateName shortens name to at most limit runes, marking the cut with "..."
func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit-3]) + "..."
}

func displayDevicesTable(out io.Writer, devices []device.PeripheralDevice, now time.Time) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "No autopilots discovered")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tLAST SEEN")
	for _, dev := range devices {
		name := truncateName(dev.DisplayName(), 20)
		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%s\n",
			name, dev.ID, dev.RSSI, humanize.RelTime(dev.SeenAt, now, "ago", "from now"))
	}
	return w.Flush()
}

type deviceJSON struct {
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	RSSI     int       `json:"rssi"`
	LastSeen time.Time `json:"last_seen"`
}

func displayDevicesJSON(out io.Writer, devices []device.PeripheralDevice) error {
	list := make([]deviceJSON, 0, len(devices))
	for _, d := range devices {
		list = append(list, deviceJSON{Name: d.Name, Address: d.ID, RSSI: d.RSSI, LastSeen: d.SeenAt})
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(list)
}
