// Package gatt holds the autopilot's GATT addressing table and the codec that maps
// 16-bit logical ids to 128-bit UUIDs.
package gatt
