// Package probe identifies 1-Wire temperature probes by their fixed 8-byte
// ROM code and holds the values the reporter prints when a probe cannot be
// read.
package probe

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Family codes of supported thermometers.
const (
	FamilyDS18S20 = 0x10
	FamilyDS1822  = 0x22
	FamilyDS18B20 = 0x28
)

// ErrBadAddress is returned when an address cannot be parsed.
var ErrBadAddress = errors.New("bad probe address")

// Address is a 1-Wire ROM code: family code, 6 serial bytes, CRC-8.
type Address [8]byte

// ParseAddress parses 16 hex digits. An optional 0x prefix and ':', '-' or
// ' ' separators are accepted.
func ParseAddress(s string) (Address, error) {
	var a Address

	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	clean = strings.NewReplacer(":", "", "-", "", " ", "").Replace(clean)
	if len(clean) != 2*len(a) {
		return a, fmt.Errorf("%w %q: expected 16 hex digits, got %d", ErrBadAddress, s, len(clean))
	}
	if _, err := hex.Decode(a[:], []byte(clean)); err != nil {
		return a, fmt.Errorf("%w %q: %v", ErrBadAddress, s, err)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the address as 16 zero-padded upper-case hex digits.
func (a Address) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// Family returns the family code.
func (a Address) Family() byte { return a[0] }

// Valid reports whether the trailing byte is the CRC-8 of the first seven.
func (a Address) Valid() bool {
	return CRC8(a[:7]) == a[7]
}

// CRC8 computes the Dallas/Maxim 1-Wire CRC (polynomial x^8+x^5+x^4+1).
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		for range 8 {
			mix := (crc ^ b) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= 0x8C
			}
			b >>= 1
		}
	}
	return crc
}
