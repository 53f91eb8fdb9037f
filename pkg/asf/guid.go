package asf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUID object or type identifier in wire order.
type GUID [16]byte

// ParseGUID parses the textual form, "75B22630-668E-11CF-A6D9-00AA0062CE6C".
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("parse guid %q: %w", s, err)
	}
	return swapGroups(u), nil
}

// MustParseGUID is like ParseGUID but panics on error.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// The first three groups are little endian on the wire,
// the swap is its own inverse.
func swapGroups(in [16]byte) [16]byte {
	return [16]byte{
		in[3], in[2], in[1], in[0],
		in[5], in[4],
		in[7], in[6],
		in[8], in[9], in[10], in[11], in[12], in[13], in[14], in[15],
	}
}

// UUID returns the identifier in RFC 4122 byte order.
func (g GUID) UUID() uuid.UUID {
	return uuid.UUID(swapGroups(g))
}

func (g GUID) String() string {
	return strings.ToUpper(g.UUID().String())
}

// IsZero reports whether all bytes are zero.
func (g GUID) IsZero() bool {
	return g == GUID{}
}
