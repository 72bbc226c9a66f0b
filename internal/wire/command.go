package wire

import (
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bluenav/navlink/internal/device"
)

// anchorActivate is the literal value the peripheral expects on SetAnchor
const anchorActivate = 1.0

// EncodeAnchorActivate returns the 8-byte SetAnchor payload (1.0, little-endian)
func EncodeAnchorActivate() []byte {
	return EncodeTelemetry(anchorActivate)
}

// HeadingMode mirrors the peripheral's HeadingModeProto enum
type HeadingMode int32

const (
	HeadingModeHold  HeadingMode = 0
	HeadingModeTrack HeadingMode = 1
)

var headingModeNames = map[HeadingMode]string{
	HeadingModeHold:  "hold",
	HeadingModeTrack: "track",
}

func (m HeadingMode) String() string {
	if n, ok := headingModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("HeadingMode(%d)", int32(m))
}

// ParseHeadingMode accepts the enum name in any case
func ParseHeadingMode(s string) (HeadingMode, error) {
	for m, n := range headingModeNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown heading mode %q (want hold or track)", s)
}

// SetHeadingOptionsProto field numbers
const (
	fieldHeadingMode    protowire.Number = 1
	fieldValue          protowire.Number = 2
	fieldAutoActivation protowire.Number = 3
	fieldIsNoDrift      protowire.Number = 4
)

// HeadingCommand is the SetHeading intent
type HeadingCommand struct {
	Mode           HeadingMode
	Value          float64 // degrees
	AutoActivation bool
	IsNoDrift      bool
}

// EncodeHeading serializes cmd in proto3 wire format: fields in ascending
// order, zero values omitted.
func EncodeHeading(cmd HeadingCommand) []byte {
	var b []byte
	if cmd.Mode != 0 {
		b = protowire.AppendTag(b, fieldHeadingMode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(cmd.Mode)))
	}
	if cmd.Value != 0 || math.Signbit(cmd.Value) {
		b = protowire.AppendTag(b, fieldValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(cmd.Value))
	}
	if cmd.AutoActivation {
		b = protowire.AppendTag(b, fieldAutoActivation, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if cmd.IsNoDrift {
		b = protowire.AppendTag(b, fieldIsNoDrift, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

// DecodeHeading parses a SetHeading payload. Unknown fields are skipped.
func DecodeHeading(b []byte) (HeadingCommand, error) {
	var cmd HeadingCommand
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return HeadingCommand{}, malformedHeading(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldHeadingMode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return HeadingCommand{}, malformedHeading(protowire.ParseError(n))
			}
			cmd.Mode = HeadingMode(int32(v))
			b = b[n:]
		case num == fieldValue && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return HeadingCommand{}, malformedHeading(protowire.ParseError(n))
			}
			cmd.Value = math.Float64frombits(v)
			b = b[n:]
		case num == fieldAutoActivation && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return HeadingCommand{}, malformedHeading(protowire.ParseError(n))
			}
			cmd.AutoActivation = protowire.DecodeBool(v)
			b = b[n:]
		case num == fieldIsNoDrift && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return HeadingCommand{}, malformedHeading(protowire.ParseError(n))
			}
			cmd.IsNoDrift = protowire.DecodeBool(v)
			b = b[n:]
		case num >= fieldHeadingMode && num <= fieldIsNoDrift:
			return HeadingCommand{}, device.NewError(device.MalformedPayload, nil, "heading field %d has wire type %d", num, typ)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return HeadingCommand{}, malformedHeading(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return cmd, nil
}

func malformedHeading(err error) error {
	return device.NewError(device.MalformedPayload, err, "heading command")
}
