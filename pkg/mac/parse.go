package mac

import "strings"

// Parse validates text as xx:xx:xx:xx:xx:xx or xx-xx-xx-xx-xx-xx. Each
// octet must be exactly two hex digits and the separator must not change
// within the address. Input is case-insensitive and surrounding
// whitespace is ignored.
func Parse(text string) (Addr, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Addr{}, formatErr(text, "empty")
	}
	if len(s) != 17 {
		return Addr{}, formatErr(text, "expected six two-digit octets")
	}
	sep := s[2]
	if sep != ':' && sep != '-' {
		return Addr{}, formatErr(text, "separator must be ':' or '-'")
	}

	var a Addr
	for i := range 6 {
		off := i * 3
		if i < 5 && s[off+2] != sep {
			return Addr{}, formatErr(text, "inconsistent separators")
		}
		b, ok := hexByte(s[off], s[off+1])
		if !ok {
			return Addr{}, formatErr(text, "non-hex digit")
		}
		a[i] = b
	}
	return a, nil
}

// MustParse is like Parse but panics on error. Intended for tables and tests.
func MustParse(text string) Addr {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseLoose accepts everything Parse does plus the bare 12-digit form
// (AABBCCDDEEFF) and the dotted form (aabb.ccdd.eeff). Used for scraping
// command output, never for user input.
func ParseLoose(text string) (Addr, error) {
	s := strings.TrimSpace(text)
	switch len(s) {
	case 17:
		return Parse(s)
	case 14:
		if s[4] != '.' || s[9] != '.' {
			return Addr{}, formatErr(text, "malformed dotted form")
		}
		s = s[0:4] + s[5:9] + s[10:14]
	case 12:
	default:
		return Addr{}, formatErr(text, "unrecognised length")
	}

	var a Addr
	for i := range 6 {
		b, ok := hexByte(s[i*2], s[i*2+1])
		if !ok {
			return Addr{}, formatErr(text, "non-hex digit")
		}
		a[i] = b
	}
	return a, nil
}

// ParsePrefix validates an OUI written as xx:xx:xx or xx-xx-xx.
func ParsePrefix(text string) (Prefix, error) {
	s := strings.TrimSpace(text)
	if len(s) != 8 || (s[2] != ':' && s[2] != '-') || s[5] != s[2] {
		return Prefix{}, formatErr(text, "expected xx:xx:xx")
	}
	var p Prefix
	for i := range 3 {
		b, ok := hexByte(s[i*3], s[i*3+1])
		if !ok {
			return Prefix{}, formatErr(text, "non-hex digit")
		}
		p[i] = b
	}
	return p, nil
}

// MustParsePrefix is like ParsePrefix but panics on error.
func MustParsePrefix(text string) Prefix {
	p, err := ParsePrefix(text)
	if err != nil {
		panic(err)
	}
	return p
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexValue(hi)
	l, ok2 := hexValue(lo)
	return h<<4 | l, ok1 && ok2
}

func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
