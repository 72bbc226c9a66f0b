package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter shows the current connection phase with a countdown or
// elapsed-time counter on a single terminal line.
//
//	p := NewProgressPrinter(w, "Looking for autopilot", "Scanning", 10*time.Second, "Connected")
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use. Phases listed as stop phases end it
// automatically when reported through Callback.
type ProgressPrinter struct {
	w          io.Writer
	prefix     string
	phase      atomic.Value // string
	stopPhases map[string]struct{}
	countdown  time.Duration // 0 counts up

	startTime time.Time
	stopCh    chan struct{}
	done      chan struct{}
	started   atomic.Bool
	stopOnce  sync.Once
}

// NewProgressPrinter creates a printer writing to w. A positive countdown shows
// the remaining time, otherwise the elapsed time is shown.
func NewProgressPrinter(w io.Writer, prefix, phase string, countdown time.Duration, stopPhases ...string) *ProgressPrinter {
	stopSet := make(map[string]struct{}, len(stopPhases))
	for _, p := range stopPhases {
		stopSet[p] = struct{}{}
	}
	p := &ProgressPrinter{
		w:          w,
		prefix:     prefix,
		stopPhases: stopSet,
		countdown:  countdown,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	p.phase.Store(phase)
	return p
}

// Start begins the display loop. Panics if called twice.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}
	p.startTime = time.Now()
	p.print(p.phase.Load().(string), 0)

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				phase := p.phase.Load().(string)
				if _, stop := p.stopPhases[phase]; stop {
					return
				}
				p.print(phase, p.seconds())
			}
		}
	}()
}

func (p *ProgressPrinter) seconds() int {
	elapsed := time.Since(p.startTime)
	if p.countdown <= 0 {
		return int(elapsed.Seconds())
	}
	remaining := p.countdown - elapsed
	if remaining <= 0 {
		return 0
	}
	// round to the nearest second
	return int(remaining.Seconds() + 0.5)
}

func (p *ProgressPrinter) print(phase string, seconds int) {
	if seconds > 0 {
		fmt.Fprintf(p.w, "\r%s (%s %ds)   ", p.prefix, phase, seconds)
	} else {
		fmt.Fprintf(p.w, "\r%s (%s...)   ", p.prefix, phase)
	}
}

// Callback returns a session.ProgressCallback updating the phase.
// A stop phase stops the printer.
func (p *ProgressPrinter) Callback() func(phase string) {
	return func(phase string) {
		p.phase.Store(phase)
		if _, stop := p.stopPhases[phase]; stop {
			p.Stop()
		}
	}
}

// Stop ends the display and clears the line. Safe to call more than once.
func (p *ProgressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		if p.started.Load() {
			<-p.done
			fmt.Fprint(p.w, clearLineSequence)
		}
	})
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// startProgress starts a printer on w when it is a terminal. The returned
// callback and stop function are always safe to use.
func startProgress(w io.Writer, prefix, phase string, countdown time.Duration, stopPhases ...string) (func(string), func()) {
	if !isTerminal(w) {
		return func(string) {}, func() {}
	}
	p := NewProgressPrinter(w, prefix, phase, countdown, stopPhases...)
	p.Start()
	return p.Callback(), p.Stop
}
