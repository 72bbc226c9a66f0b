package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/session"
)

// anchorCmd represents the anchor command
var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Activate the autopilot anchor",
	Long: `Connects to an autopilot and activates its anchor (position hold).

The command waits for the autopilot to acknowledge the write.`,
	Args: cobra.NoArgs,
	RunE: runAnchor,
}

var anchorAddress string

func init() {
	initAnchorFlags()
}

func initAnchorFlags() {
	anchorCmd.Flags().StringVarP(&anchorAddress, "address", "a", "", "Autopilot address (default: first found)")
}

func runAnchor(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()
	cmd.SilenceUsage = true

	dev, err := runConnected(cmd, env, anchorAddress, func(s *session.Session) (device.PeripheralDevice, error) {
		p, _ := s.Peripheral()
		return p, s.ActivateAnchor(cmd.Context())
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Anchor activated on %s (%s)\n", dev.DisplayName(), dev.ID)
	return err
}
