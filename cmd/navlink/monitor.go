package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/presentation"
	"github.com/bluenav/navlink/internal/session"
	"github.com/bluenav/navlink/internal/wire"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream speed over ground from an autopilot",
	Long: `Connects to an autopilot and streams its speed over ground (SOG).

On a terminal the reading is updated in place; otherwise every reading is
printed on its own line. Connection state changes are always printed.
Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorAddress string
	monitorCount   int
)

func init() {
	initMonitorFlags()
}

func initMonitorFlags() {
	monitorCmd.Flags().StringVarP(&monitorAddress, "address", "a", "", "Autopilot address (default: first found)")
	monitorCmd.Flags().IntVarP(&monitorCount, "count", "n", 0, "Stop after N readings (0 streams until Ctrl+C)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorCount < 0 {
		return fmt.Errorf("invalid count %d: must not be negative", monitorCount)
	}

	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	r := &sogRenderer{w: out, inPlace: isTerminal(out)}

	_, err = runConnected(cmd, env, monitorAddress, func(s *session.Session) (struct{}, error) {
		p, _ := s.Peripheral()
		r.line(fmt.Sprintf("Connected to %s (%s)  commands: %s",
			p.DisplayName(), p.ID, controlsText(presentation.ControlsFor(s.State()))))

		if err := s.SubscribeTelemetry(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, streamTelemetry(cmd, s, r, monitorCount)
	})
	r.finish()
	return err
}

func streamTelemetry(cmd *cobra.Command, s *session.Session, r *sogRenderer, count int) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	received := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case reading, ok := <-s.Telemetry():
			if !ok {
				return nil
			}
			// state lines precede the reading they affect
			if lost := drainStates(s, r); lost {
				return ErrConnectionLost
			}
			r.reading(s.State(), &reading)
			received++
			if count > 0 && received >= count {
				return nil
			}

		case change, ok := <-s.States():
			if !ok {
				return nil
			}
			if renderState(r, change) {
				return ErrConnectionLost
			}
		}
	}
}

func drainStates(s *session.Session, r *sogRenderer) bool {
	for {
		select {
		case change, ok := <-s.States():
			if !ok {
				return false
			}
			if renderState(r, change) {
				return true
			}
		default:
			return false
		}
	}
}

// renderState prints failure and recovery changes and reports whether the link was lost.
// Connection progress and the move to Streaming are announced by other output.
func renderState(r *sogRenderer, change session.StateChange) bool {
	switch {
	case change.From == change.To && change.Err == nil:
		return false
	case change.To == session.Scanning, change.To == session.Connecting,
		change.To == session.Connected, change.To == session.Streaming:
		return false
	}
	r.state(change)
	return change.Event == session.EventLinkLost
}

func controlsText(c presentation.Controls) string {
	var names []string
	if c.Anchor {
		names = append(names, "anchor")
	}
	if c.Heading {
		names = append(names, "heading")
	}
	if c.Scan {
		names = append(names, "scan")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// sogRenderer prints readings and state lines, overwriting the reading in place on terminals
type sogRenderer struct {
	w       io.Writer
	inPlace bool
	pending bool // an in-place reading occupies the current line
}

func (r *sogRenderer) reading(st session.State, reading *wire.Reading) {
	text := fmt.Sprintf("SOG: %s  [%s]", presentation.SOGText(reading), presentation.Colorize(st, st.String()))
	if r.inPlace {
		fmt.Fprint(r.w, clearLineSequence+text)
		r.pending = true
		return
	}
	fmt.Fprintln(r.w, text)
}

func (r *sogRenderer) state(change session.StateChange) {
	text := fmt.Sprintf("state: %s", presentation.Colorize(change.To, change.To.String()))
	if change.Err != nil {
		text += fmt.Sprintf(" (%s)", FormatUserError(change.Err))
	}
	r.line(text)
}

func (r *sogRenderer) line(text string) {
	r.finish()
	fmt.Fprintln(r.w, text)
}

func (r *sogRenderer) finish() {
	if r.pending {
		fmt.Fprintln(r.w)
		r.pending = false
	}
}
