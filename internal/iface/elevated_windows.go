//go:build windows

package iface

import "golang.org/x/sys/windows"

// Elevated reports whether the process token is elevated (run as
// administrator).
func Elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
