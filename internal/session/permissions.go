package session

import "context"

// PermissionChecker is the platform permission subsystem. Scanning is only
// attempted once it reports the radio permissions as granted.
type PermissionChecker interface {
	Granted(ctx context.Context) bool
}

// PermissionFunc adapts a function to PermissionChecker
type PermissionFunc func(ctx context.Context) bool

// Granted calls f(ctx)
func (f PermissionFunc) Granted(ctx context.Context) bool {
	return f(ctx)
}

// AlwaysGranted is used on platforms without a runtime permission prompt
var AlwaysGranted PermissionChecker = PermissionFunc(func(context.Context) bool { return true })
