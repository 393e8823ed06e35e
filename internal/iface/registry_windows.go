//go:build windows

package iface

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

type systemRegistry struct{}

// NewRegistry returns the HKLM-backed AdapterRegistry.
func NewRegistry() AdapterRegistry {
	return systemRegistry{}
}

func (systemRegistry) Adapters() ([]AdapterKey, error) {
	class, err := registry.OpenKey(registry.LOCAL_MACHINE, AdapterClassPath, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("open adapter class key: %w", err)
	}
	defer class.Close()

	names, err := class.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("read adapter subkeys: %w", err)
	}

	var keys []AdapterKey
	for _, n := range names {
		if !isDigits(n) {
			continue // "Properties" and friends
		}
		path := AdapterClassPath + `\` + n
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		desc, _, _ := k.GetStringValue("DriverDesc")
		id, _, _ := k.GetStringValue("NetCfgInstanceId")
		k.Close()

		keys = append(keys, AdapterKey{Path: path, Description: desc, InstanceID: id})
	}
	return keys, nil
}

func (systemRegistry) SetNetworkAddress(path, value string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer k.Close()

	return k.SetStringValue("NetworkAddress", value)
}

func (systemRegistry) DeleteNetworkAddress(path string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer k.Close()

	if err := k.DeleteValue("NetworkAddress"); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
