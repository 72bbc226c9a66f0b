package main

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/gatt"
	"github.com/bluenav/navlink/internal/session"
	"github.com/bluenav/navlink/internal/wire"
)

// headingCmd represents the heading command
var headingCmd = &cobra.Command{
	Use:   "heading",
	Short: "Set the autopilot heading",
	Long: `Connects to an autopilot and sends a heading command.

Examples:
  # Hold heading 123 degrees and engage immediately
  navlink heading --mode hold --value 123 --auto

  # Show the encoded command without connecting
  navlink heading --value 123 --auto --dry-run`,
	Args: cobra.NoArgs,
	RunE: runHeading,
}

var (
	headingAddress string
	headingMode    string
	headingValue   float64
	headingAuto    bool
	headingNoDrift bool
	headingDryRun  bool
)

func init() {
	initHeadingFlags()
}

func initHeadingFlags() {
	headingCmd.Flags().StringVarP(&headingAddress, "address", "a", "", "Autopilot address (default: first found)")
	headingCmd.Flags().StringVarP(&headingMode, "mode", "m", "hold", "Heading mode (hold, track)")
	headingCmd.Flags().Float64Var(&headingValue, "value", 0, "Heading in degrees")
	headingCmd.Flags().BoolVar(&headingAuto, "auto", false, "Engage the autopilot with this heading")
	headingCmd.Flags().BoolVar(&headingNoDrift, "no-drift", false, "Compensate drift")
	headingCmd.Flags().BoolVar(&headingDryRun, "dry-run", false, "Print the encoded command instead of sending it")
	_ = headingCmd.MarkFlagRequired("value")
}

func runHeading(cmd *cobra.Command, args []string) error {
	mode, err := wire.ParseHeadingMode(headingMode)
	if err != nil {
		return err
	}
	if math.IsNaN(headingValue) || math.IsInf(headingValue, 0) {
		return fmt.Errorf("invalid heading value %v", headingValue)
	}

	heading := wire.HeadingCommand{
		Mode:           mode,
		Value:          headingValue,
		AutoActivation: headingAuto,
		IsNoDrift:      headingNoDrift,
	}

	if headingDryRun {
		payload := wire.EncodeHeading(heading)
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "characteristic: %s\npayload: %s\n",
			gatt.Resolve(gatt.CharSetHeading), strings.ToUpper(hex.EncodeToString(payload)))
		return err
	}

	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()
	cmd.SilenceUsage = true

	dev, err := runConnected(cmd, env, headingAddress, func(s *session.Session) (device.PeripheralDevice, error) {
		p, _ := s.Peripheral()
		return p, s.SetHeading(cmd.Context(), heading)
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Heading %s %.2f° sent to %s (%s)\n",
		heading.Mode, heading.Value, dev.DisplayName(), dev.ID)
	return err
}
