package gatt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/gatt"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		id   gatt.ID
		want gatt.UUID
	}{
		{"navigation service", gatt.ServiceNavigation, "00001004-0000-1000-8000-5786DB67EEC5"},
		{"autopilot service", gatt.ServiceAutopilot, "00001003-0000-1000-8000-5786DB67EEC5"},
		{"sog characteristic", gatt.CharSog, "00002003-0000-1000-8000-5786DB67EEC5"},
		{"uppercase hex digits", gatt.CharUnsetDocking, "0000200F-0000-1000-8000-5786DB67EEC5"},
		{"zero id", gatt.ID(0), "00000000-0000-1000-8000-5786DB67EEC5"},
		{"max id", gatt.ID(0xFFFF), "0000FFFF-0000-1000-8000-5786DB67EEC5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gatt.Resolve(tt.id))
		})
	}
}

func TestResolve_DeterministicAndInjective(t *testing.T) {
	// GOAL: Verify the id -> UUID mapping is stable and never collides over the whole 16-bit space
	seen := make(map[gatt.UUID]gatt.ID, 1<<16)
	for i := 0; i <= 0xFFFF; i++ {
		id := gatt.ID(i)
		u := gatt.Resolve(id)
		require.Equal(t, u, gatt.Resolve(id), "resolve MUST be deterministic")
		prev, dup := seen[u]
		require.False(t, dup, "ids %s and %s MUST NOT collide", prev, id)
		seen[u] = id

		_, err := u.Parse()
		require.NoError(t, err, "resolved value MUST be a valid 128-bit UUID")
	}
}

func TestResolveService(t *testing.T) {
	t.Run("accepts service range", func(t *testing.T) {
		u, err := gatt.ResolveService(gatt.ServiceBattery)
		require.NoError(t, err)
		assert.Equal(t, gatt.Resolve(gatt.ServiceBattery), u)
	})

	t.Run("rejects characteristic id", func(t *testing.T) {
		_, err := gatt.ResolveService(gatt.CharSog)
		require.Error(t, err)
		assert.True(t, device.IsKind(err, device.InvalidIDRange), "error MUST be invalid_id_range")
	})

	t.Run("rejects id below range", func(t *testing.T) {
		_, err := gatt.ResolveService(gatt.ID(0x0FFF))
		assert.ErrorIs(t, err, device.ErrInvalidIDRange)
	})
}

func TestResolveCharacteristic(t *testing.T) {
	t.Run("accepts characteristic range bounds", func(t *testing.T) {
		_, err := gatt.ResolveCharacteristic(gatt.CharacteristicRangeStart)
		assert.NoError(t, err)
		_, err = gatt.ResolveCharacteristic(gatt.CharacteristicRangeEnd)
		assert.NoError(t, err)
	})

	t.Run("rejects service id", func(t *testing.T) {
		_, err := gatt.ResolveCharacteristic(gatt.ServiceNavigation)
		assert.ErrorIs(t, err, device.ErrInvalidIDRange)
		assert.Contains(t, err.Error(), "Navigation(0x1004)")
	})

	t.Run("rejects id above range", func(t *testing.T) {
		_, err := gatt.ResolveCharacteristic(gatt.ID(0x3000))
		assert.ErrorIs(t, err, device.ErrInvalidIDRange)
	})
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   gatt.ID
		wantOK bool
	}{
		{"canonical", "00002003-0000-1000-8000-5786DB67EEC5", gatt.CharSog, true},
		{"lowercase", "00002003-0000-1000-8000-5786db67eec5", gatt.CharSog, true},
		{"compact", "00001004000010008000" + "5786DB67EEC5", gatt.ServiceNavigation, true},
		{"unknown id in base", "00003000-0000-1000-8000-5786DB67EEC5", 0, false},
		{"foreign base", "0000180f-0000-1000-8000-00805f9b34fb", 0, false},
		{"garbage", "not-a-uuid", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := gatt.Lookup(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestTable(t *testing.T) {
	rows := gatt.Table()

	require.Len(t, rows, 20, "table MUST list 5 services and 15 characteristics")
	assert.Equal(t, gatt.ServiceBattery, rows[0].ID, "services MUST come first")
	assert.Equal(t, gatt.CharBatteryLevel, rows[5].ID, "characteristics MUST follow services")
	assert.Equal(t, gatt.CharUnsetDocking, rows[len(rows)-1].ID)

	for _, row := range rows {
		assert.Equal(t, gatt.Resolve(row.ID), row.UUID)
		assert.NotEmpty(t, row.ID.Name())
	}

	addr, ok := gatt.ByName(strings.ToLower("SetAnchor"))
	require.True(t, ok)
	assert.Equal(t, gatt.CharSetAnchor, addr.ID)

	_, ok = gatt.ByName("Rudder")
	assert.False(t, ok)
}

func TestID_String(t *testing.T) {
	assert.Equal(t, "Sog(0x2003)", gatt.CharSog.String())
	assert.Equal(t, "0x3001", gatt.ID(0x3001).String())
	assert.True(t, gatt.ServiceVersion.IsService())
	assert.False(t, gatt.ServiceVersion.IsCharacteristic())
}

func TestUUID_BLE(t *testing.T) {
	u := gatt.Resolve(gatt.CharSetHeading)
	bu := u.BLE()

	assert.Len(t, bu, 16, "MUST be a full 128-bit UUID")
	id, ok := gatt.Lookup(bu.String())
	require.True(t, ok, "go-ble string form MUST map back to the table")
	assert.Equal(t, gatt.CharSetHeading, id)
}
