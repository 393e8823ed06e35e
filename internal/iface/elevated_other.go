//go:build !unix && !windows

package iface

func Elevated() bool {
	return false
}
