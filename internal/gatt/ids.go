package gatt

import "fmt"

// ID is a 16-bit logical identifier of a service or characteristic in the
// autopilot's addressing table.
type ID uint16

// Reserved ranges
const (
	ServiceRangeStart        ID = 0x1000
	ServiceRangeEnd          ID = 0x1FFF
	CharacteristicRangeStart ID = 0x2000
	CharacteristicRangeEnd   ID = 0x2FFF
)

// Services
const (
	ServiceBattery    ID = 0x1001
	ServicePropulsion ID = 0x1002
	ServiceAutopilot  ID = 0x1003
	ServiceNavigation ID = 0x1004
	ServiceVersion    ID = 0x1005
)

// Characteristics
const (
	CharBatteryLevel  ID = 0x2001
	CharPropulsionRpm ID = 0x2002
	CharSog           ID = 0x2003
	CharSetHeading    ID = 0x2004
	CharSetSpeed      ID = 0x2005
	CharSetAnchor     ID = 0x2006
	CharSetDps        ID = 0x2007
	CharSetSliding    ID = 0x2008
	CharSetDocking    ID = 0x2009
	CharUnsetHeading  ID = 0x200A
	CharUnsetSpeed    ID = 0x200B
	CharUnsetAnchor   ID = 0x200C
	CharUnsetDps      ID = 0x200D
	CharUnsetSliding  ID = 0x200E
	CharUnsetDocking  ID = 0x200F
)

var names = map[ID]string{
	ServiceBattery:    "Battery",
	ServicePropulsion: "Propulsion",
	ServiceAutopilot:  "Autopilot",
	ServiceNavigation: "Navigation",
	ServiceVersion:    "Version",

	CharBatteryLevel:  "BatteryLevel",
	CharPropulsionRpm: "PropulsionRpm",
	CharSog:           "Sog",
	CharSetHeading:    "SetHeading",
	CharSetSpeed:      "SetSpeed",
	CharSetAnchor:     "SetAnchor",
	CharSetDps:        "SetDps",
	CharSetSliding:    "SetSliding",
	CharSetDocking:    "SetDocking",
	CharUnsetHeading:  "UnsetHeading",
	CharUnsetSpeed:    "UnsetSpeed",
	CharUnsetAnchor:   "UnsetAnchor",
	CharUnsetDps:      "UnsetDps",
	CharUnsetSliding:  "UnsetSliding",
	CharUnsetDocking:  "UnsetDocking",
}

// IsService reports whether id falls in the reserved service range
func (id ID) IsService() bool {
	return id >= ServiceRangeStart && id <= ServiceRangeEnd
}

// IsCharacteristic reports whether id falls in the reserved characteristic range
func (id ID) IsCharacteristic() bool {
	return id >= CharacteristicRangeStart && id <= CharacteristicRangeEnd
}

// Name returns the table name of a known id, or "" for ids outside the table
func (id ID) Name() string {
	return names[id]
}

func (id ID) String() string {
	if n, ok := names[id]; ok {
		return fmt.Sprintf("%s(0x%04X)", n, uint16(id))
	}
	return fmt.Sprintf("0x%04X", uint16(id))
}
