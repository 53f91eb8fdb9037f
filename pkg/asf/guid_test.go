package asf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGUID(t *testing.T) {
	g, err := ParseGUID("75B22630-668E-11CF-A6D9-00AA0062CE6C")
	require.NoError(t, err)

	expected := GUID{
		0x30, 0x26, 0xb2, 0x75, // Data1.
		0x8e, 0x66, // Data2.
		0xcf, 0x11, // Data3.
		0xa6, 0xd9, 0x00, 0xaa, 0x00, 0x62, 0xce, 0x6c, // Data4.
	}
	require.Equal(t, expected, g)
	require.Equal(t, "75B22630-668E-11CF-A6D9-00AA0062CE6C", g.String())
	require.Equal(t, HeaderObject, g)

	_, err = ParseGUID("nil")
	require.Error(t, err)
}

func TestName(t *testing.T) {
	require.Equal(t, "Header Object", Name(HeaderObject))
	require.Equal(t, "Audio Media", Name(AudioMedia))
	require.Equal(t, "Unknown", Name(GUID{1}))
	require.True(t, GUID{}.IsZero())
}

func TestNewObject(t *testing.T) {
	_, ok := newObject(FilePropertiesObject).(*FileProperties)
	require.True(t, ok)
	_, ok = newObject(MarkerObject).(*Unknown)
	require.True(t, ok)
	_, ok = newObject(GUID{1}).(*Unknown)
	require.True(t, ok)
}
