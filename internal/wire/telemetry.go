package wire

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/bluenav/navlink/internal/device"
)

// TelemetrySize is the length of every telemetry notification and of the anchor command
const TelemetrySize = 8

// Reading is a single decoded telemetry value. It is superseded by the next
// reading; no history is kept.
type Reading struct {
	Value float64
	Raw   [TelemetrySize]byte
	At    time.Time
}

// String returns the value as the UI shows it: fixed point, two decimals
func (r Reading) String() string {
	return FormatTelemetry(r.Value)
}

// DecodeTelemetry interprets exactly 8 bytes as a little-endian IEEE-754 double
func DecodeTelemetry(b []byte) (float64, error) {
	if len(b) != TelemetrySize {
		return 0, device.NewError(device.MalformedPayload, nil, "telemetry payload is %d bytes, want %d", len(b), TelemetrySize)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// EncodeTelemetry is the inverse of DecodeTelemetry
func EncodeTelemetry(v float64) []byte {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, TelemetrySize), math.Float64bits(v))
}

// NewReading decodes a notification payload into a Reading stamped with at
func NewReading(b []byte, at time.Time) (Reading, error) {
	v, err := DecodeTelemetry(b)
	if err != nil {
		return Reading{}, err
	}
	r := Reading{Value: v, At: at}
	copy(r.Raw[:], b)
	return r, nil
}

// FormatTelemetry rounds v to two decimal places, never using scientific notation
func FormatTelemetry(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
