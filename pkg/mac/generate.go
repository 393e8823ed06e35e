package mac

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// stableSalt scopes derived addresses to this tool so the same secret
// used elsewhere does not produce related output.
var stableSalt = []byte("spoofmac/stable-address/v1")

// Generator produces unicast, locally administered addresses from a
// random source.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from r. A nil r uses crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// Random returns six random octets with the first octet forced to
// unicast and locally administered: (b & 0xFE) | 0x02.
func (g *Generator) Random() (Addr, error) {
	var a Addr
	if _, err := io.ReadFull(g.rand, a[:]); err != nil {
		return Addr{}, fmt.Errorf("read random octets: %w", err)
	}
	a[0] = a[0]&0xfe | 0x02
	return a, nil
}

// FromPrefix keeps the vendor prefix, sets the locally administered bit
// on its first octet and appends three random octets.
func (g *Generator) FromPrefix(p Prefix) (Addr, error) {
	a := Addr{p[0] | 0x02, p[1], p[2]}
	if _, err := io.ReadFull(g.rand, a[3:]); err != nil {
		return Addr{}, fmt.Errorf("read random octets: %w", err)
	}
	return a, nil
}

// Stable derives an address from secret and label with HKDF-SHA256. The
// same inputs always yield the same address.
func (g *Generator) Stable(secret []byte, label string) (Addr, error) {
	if len(secret) == 0 {
		return Addr{}, errors.New("stable address requires a non-empty secret")
	}
	if label == "" {
		return Addr{}, errors.New("stable address requires a label")
	}

	var a Addr
	kdf := hkdf.New(sha256.New, secret, stableSalt, []byte(label))
	if _, err := io.ReadFull(kdf, a[:]); err != nil {
		return Addr{}, fmt.Errorf("derive stable address: %w", err)
	}
	a[0] = a[0]&0xfe | 0x02
	return a, nil
}

// Intn returns a value in [0, n) drawn from the generator's source.
func (g *Generator) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid bound %d", n)
	}
	var buf [8]byte
	if _, err := io.ReadFull(g.rand, buf[:]); err != nil {
		return 0, fmt.Errorf("read random index: %w", err)
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n)), nil
}
