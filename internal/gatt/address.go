package gatt

import (
	"fmt"
	"strings"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bluenav/navlink/internal/device"
)

// BaseSuffix is the product-line base shared by every autopilot UUID. The
// zero-padded 8 hex digit id fills the first group.
//
//	00001004-0000-1000-8000-5786DB67EEC5  Navigation service
//	00002003-0000-1000-8000-5786DB67EEC5  SOG characteristic
const BaseSuffix = "-0000-1000-8000-5786DB67EEC5"

// UUID is the canonical (uppercase, dashed) 128-bit GATT UUID of a logical id
type UUID string

// Resolve maps any 16-bit id to its GATT UUID. It performs no range check:
// the peripheral's own table formats ids the same way regardless of range.
func Resolve(id ID) UUID {
	return UUID(fmt.Sprintf("%08X%s", uint32(id), BaseSuffix))
}

// ResolveService resolves id after checking it lies in the service range
func ResolveService(id ID) (UUID, error) {
	if !id.IsService() {
		return "", device.NewError(device.InvalidIDRange, nil, "%s is not a service id (0x%04X-0x%04X)",
			id, uint16(ServiceRangeStart), uint16(ServiceRangeEnd))
	}
	return Resolve(id), nil
}

// ResolveCharacteristic resolves id after checking it lies in the characteristic range
func ResolveCharacteristic(id ID) (UUID, error) {
	if !id.IsCharacteristic() {
		return "", device.NewError(device.InvalidIDRange, nil, "%s is not a characteristic id (0x%04X-0x%04X)",
			id, uint16(CharacteristicRangeStart), uint16(CharacteristicRangeEnd))
	}
	return Resolve(id), nil
}

func (u UUID) String() string {
	return string(u)
}

// BLE returns the go-ble representation used for profile lookups
func (u UUID) BLE() ble.UUID {
	return ble.MustParse(string(u))
}

// Parse returns the RFC 4122 form of the UUID
func (u UUID) Parse() (uuid.UUID, error) {
	return uuid.Parse(string(u))
}

// Address is one row of the addressing table
type Address struct {
	ID   ID
	UUID UUID
}

var (
	table   = buildTable()
	reverse = buildReverse()
)

// tableOrder lists services first, then characteristics, each ascending
var tableOrder = []ID{
	ServiceBattery, ServicePropulsion, ServiceAutopilot, ServiceNavigation, ServiceVersion,
	CharBatteryLevel, CharPropulsionRpm, CharSog,
	CharSetHeading, CharSetSpeed, CharSetAnchor, CharSetDps, CharSetSliding, CharSetDocking,
	CharUnsetHeading, CharUnsetSpeed, CharUnsetAnchor, CharUnsetDps, CharUnsetSliding, CharUnsetDocking,
}

func buildTable() *orderedmap.OrderedMap[string, Address] {
	m := orderedmap.New[string, Address](len(tableOrder))
	for _, id := range tableOrder {
		m.Set(id.Name(), Address{ID: id, UUID: Resolve(id)})
	}
	return m
}

func buildReverse() map[uuid.UUID]ID {
	m := make(map[uuid.UUID]ID, len(tableOrder))
	for _, id := range tableOrder {
		parsed, err := Resolve(id).Parse()
		if err != nil {
			panic(fmt.Sprintf("gatt: table entry %s does not form a UUID: %v", id, err))
		}
		m[parsed] = id
	}
	return m
}

// Table returns the addressing table in declaration order, keyed by name
func Table() []Address {
	out := make([]Address, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// ByName looks up a table entry by its name (case-insensitive)
func ByName(name string) (Address, bool) {
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		if strings.EqualFold(pair.Key, name) {
			return pair.Value, true
		}
	}
	return Address{}, false
}

// Lookup maps a UUID in any spelling (case, with or without dashes) back to
// a known table id.
func Lookup(s string) (ID, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	id, ok := reverse[parsed]
	return id, ok
}
