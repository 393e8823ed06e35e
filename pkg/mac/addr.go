package mac

import (
	"net"
	"strings"
)

// Addr is a 48-bit MAC address. The zero value is 00:00:00:00:00:00 and
// reports IsZero.
type Addr [6]byte

// Prefix is the first three octets of an address (an OUI).
type Prefix [3]byte

const hexDigits = "0123456789abcdef"

// String returns the canonical lowercase colon form.
func (a Addr) String() string {
	return a.format(':')
}

// Dash returns the lowercase dash form (aa-bb-cc-dd-ee-ff).
func (a Addr) Dash() string {
	return a.format('-')
}

// Bare returns the address as 12 uppercase hex digits, the form Windows
// drivers expect in the NetworkAddress registry value.
func (a Addr) Bare() string {
	var buf [12]byte
	for i, b := range a {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0x0f]
	}
	return strings.ToUpper(string(buf[:]))
}

func (a Addr) format(sep byte) string {
	var buf [17]byte
	for i, b := range a {
		off := i * 3
		buf[off] = hexDigits[b>>4]
		buf[off+1] = hexDigits[b&0x0f]
		if i < 5 {
			buf[off+2] = sep
		}
	}
	return string(buf[:])
}

// IsZero reports whether a is 00:00:00:00:00:00.
func (a Addr) IsZero() bool {
	return a == Addr{}
}

// IsUnicast reports whether the multicast bit (bit 0 of the first octet) is clear.
func (a Addr) IsUnicast() bool {
	return a[0]&0x01 == 0
}

// IsLocallyAdministered reports whether bit 1 of the first octet is set.
func (a Addr) IsLocallyAdministered() bool {
	return a[0]&0x02 != 0
}

// OUI returns the first three octets.
func (a Addr) OUI() Prefix {
	return Prefix{a[0], a[1], a[2]}
}

// HardwareAddr returns a copy as a net.HardwareAddr.
func (a Addr) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, 6)
	copy(hw, a[:])
	return hw
}

// MarshalText implements encoding.TextMarshaler.
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (a *Addr) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// String returns the prefix as xx:xx:xx.
func (p Prefix) String() string {
	var buf [8]byte
	for i, b := range p {
		off := i * 3
		buf[off] = hexDigits[b>>4]
		buf[off+1] = hexDigits[b&0x0f]
		if i < 2 {
			buf[off+2] = ':'
		}
	}
	return string(buf[:])
}

// Global returns the prefix with the locally administered bit cleared.
func (p Prefix) Global() Prefix {
	p[0] &^= 0x02
	return p
}
