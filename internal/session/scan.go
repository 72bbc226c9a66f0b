package session

import (
	"context"
	"sync"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/ringchan"
)

// ScanStream is one scan session. It yields each newly discovered device once
// and cannot be restarted; call Session.Scan again for a new one.
type ScanStream struct {
	devices *ringchan.RingChannel[device.PeripheralDevice]
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

func newScanStream(buffer int, cancel context.CancelFunc) *ScanStream {
	return &ScanStream{
		devices: ringchan.New[device.PeripheralDevice](buffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// C delivers newly discovered devices. It is closed when the scan ends.
func (s *ScanStream) C() <-chan device.PeripheralDevice {
	return s.devices.C()
}

// Done is closed when the scan has ended
func (s *ScanStream) Done() <-chan struct{} {
	return s.done
}

// Err returns the classified error that ended the scan, nil for a cancelled scan
func (s *ScanStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop cancels the scan and waits for the transport to return
func (s *ScanStream) Stop() {
	s.cancel()
	<-s.done
}

func (s *ScanStream) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.devices.Close()
	close(s.done)
}
