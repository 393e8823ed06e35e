//go:build !windows

package iface

type unsupportedRegistry struct{}

// NewRegistry returns an AdapterRegistry whose every call fails with
// ErrUnsupported.
func NewRegistry() AdapterRegistry {
	return unsupportedRegistry{}
}

func (unsupportedRegistry) Adapters() ([]AdapterKey, error) {
	return nil, ErrUnsupported
}

func (unsupportedRegistry) SetNetworkAddress(string, string) error {
	return ErrUnsupported
}

func (unsupportedRegistry) DeleteNetworkAddress(string) error {
	return ErrUnsupported
}
