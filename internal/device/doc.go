// Package device defines the Bluetooth Low Energy transport capability used by the
// autopilot protocol layer, together with its error taxonomy.
//
// The package contains contracts only:
//   - Transport: scanning and connecting (connect includes full GATT discovery)
//   - Link: subscribe, write-with-response, and disconnect on one peripheral
//   - PeripheralDevice: the transient advertisement record surfaced to callers
//   - Error / ErrorKind: the closed set of failures reported by the layer
//
// The go-ble backed implementation lives in the go-ble subpackage.
package device
