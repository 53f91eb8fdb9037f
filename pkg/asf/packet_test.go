package asf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPacket() []byte {
	return []byte{
		0x82, 0, 0, // Error correction.
		0x11,       // Length type flags, padding word, multiple payloads.
		0x5d,       // Property flags.
		4, 0,       // Padding length.
		0xe8, 3, 0, 0, // Send time.
		100, 0, // Duration.
		0x82, // Payload flags, length word, 2 payloads.

		// Payload 1.
		0x82,       // Stream number, key frame.
		7,          // Media object number.
		0, 0, 0, 0, // Offset into media object.
		8,          // Replicated data length.
		3, 0, 0, 0, // Media object size.
		0xb8, 0x0b, 0, 0, // Presentation time.
		3, 0, // Payload length.
		1, 2, 3, // Payload data.

		// Payload 2, compressed.
		0x01,             // Stream number.
		9,                // Media object number.
		0xbc, 0x0b, 0, 0, // Presentation time.
		1,    // Replicated data length.
		10,   // Presentation time delta.
		2, 0, // Payload length.
		4, 5, // Payload data.

		0, 0, 0, 0, // Padding.
	}
}

func TestDecodePacket(t *testing.T) {
	raw := testPacket()
	cfg := &Config{PacketSize: uint32(len(raw))}

	p, err := DecodePacket(cfg, raw)
	require.NoError(t, err)

	require.True(t, p.ErrorCorrection)
	require.True(t, p.MultiplePayloads)
	require.Equal(t, uint32(4), p.PaddingLength)
	require.Equal(t, uint32(1000), p.SendTime)
	require.Equal(t, uint16(100), p.Duration)
	require.True(t, p.IsKeyFrame)

	expected := []Payload{
		{
			StreamID:          2,
			KeyFrame:          true,
			MediaObjectNumber: 7,
			ReplicatedLength:  8,
			MediaObjectSize:   3,
			PresentationTime:  3000,
			Length:            3,
			KeyframeStart:     true,

			StreamIDOffset:          14,
			MediaObjectNumberOffset: 15,
			OffsetIntoMediaOffset:   16,
			ReplicatedLengthOffset:  20,
			MediaObjectSizeOffset:   21,
			PresentationTimeOffset:  25,
			LengthOffset:            29,
			DataOffset:              31,

			monCode:    1,
			offsetCode: 3,
			repCode:    1,
			ptCode:     3,
			lenCode:    2,
		},
		{
			StreamID:              1,
			MediaObjectNumber:     9,
			OffsetIntoMedia:       3004,
			ReplicatedLength:      1,
			PresentationTime:      3004,
			Length:                2,
			Compressed:            true,
			PresentationTimeDelta: 10,

			StreamIDOffset:          34,
			MediaObjectNumberOffset: 35,
			OffsetIntoMediaOffset:   36,
			ReplicatedLengthOffset:  40,
			MediaObjectSizeOffset:   -1,
			PresentationTimeOffset:  36,
			LengthOffset:            42,
			DataOffset:              44,

			monCode:    1,
			offsetCode: 3,
			repCode:    1,
			ptCode:     3,
			lenCode:    2,
		},
	}
	require.Equal(t, expected, p.Payloads)
}

func TestDecodePacketNoErrorCorrection(t *testing.T) {
	raw := []byte{
		0x08,       // Length type flags, padding byte.
		0x5d,       // Property flags.
		2,          // Padding length.
		10, 0, 0, 0, // Send time.
		0, 0, // Duration.
		0x03,       // Stream number.
		1,          // Media object number.
		5, 0, 0, 0, // Offset into media object.
		0,          // Replicated data length.
		9, 9, 9, // Payload data.
		0, 0, // Padding.
	}
	p, err := DecodePacket(&Config{PacketSize: uint32(len(raw))}, raw)
	require.NoError(t, err)

	require.False(t, p.ErrorCorrection)
	require.False(t, p.IsKeyFrame)
	require.Equal(t, uint32(10), p.SendTime)
	require.Len(t, p.Payloads, 1)

	pl := p.Payloads[0]
	require.Equal(t, uint8(3), pl.StreamID)
	require.Equal(t, uint32(5), pl.OffsetIntoMedia)
	require.Equal(t, uint32(3), pl.Length)
	require.False(t, pl.HasPresentationTime())
	require.Equal(t, 16, pl.DataOffset)

	p.SetPresentationTime(0, 1234)
	require.Equal(t, raw, p.Marshal())
}

func TestDecodePacketLengthFields(t *testing.T) {
	raw := []byte{
		0x82, 0, 0, // Error correction.
		0x2a,       // Length type flags, sequence, padding and packet length bytes.
		0x5d,       // Property flags.
		7,          // Sequence.
		2,          // Padding length.
		32,         // Packet length.
		20, 0, 0, 0, // Send time.
		0, 0, // Duration.
		0x81,       // Stream number, key frame.
		1,          // Media object number.
		0, 0, 0, 0, // Offset into media object.
		0,                         // Replicated data length.
		1, 2, 3, 4, 5, 6, 7, 8, 9, // Payload data.
		0, 0, // Padding.
	}
	p, err := DecodePacket(&Config{PacketSize: uint32(len(raw))}, raw)
	require.NoError(t, err)

	require.Equal(t, uint32(7), p.Sequence)
	require.Equal(t, uint32(2), p.PaddingLength)
	require.Equal(t, uint32(32), p.PacketLength)
	require.Equal(t, 5, p.sequenceOffset)
	require.Equal(t, 6, p.paddingOffset)
	require.Equal(t, 7, p.packetLengthOffset)
	require.Equal(t, uint32(20), p.SendTime)

	require.Len(t, p.Payloads, 1)
	pl := p.Payloads[0]
	require.Equal(t, uint8(1), pl.StreamID)
	require.True(t, pl.KeyframeStart)
	require.Equal(t, uint32(9), pl.Length)
	require.Equal(t, 21, pl.DataOffset)

	require.Equal(t, raw, p.Marshal())
}

func TestPacketMarshal(t *testing.T) {
	raw := testPacket()
	p, err := DecodePacket(&Config{PacketSize: uint32(len(raw))}, raw)
	require.NoError(t, err)

	require.Equal(t, testPacket(), p.Marshal())
	require.Equal(t, testPacket(), p.Bytes())
}

func TestPacketPatch(t *testing.T) {
	t.Run("sendTime", func(t *testing.T) {
		p, err := DecodePacket(&Config{PacketSize: 50}, testPacket())
		require.NoError(t, err)

		p.SetSendTime(0x01020304)
		require.Equal(t, []byte{4, 3, 2, 1}, p.Bytes()[7:11])
		require.Equal(t, uint32(0x01020304), p.SendTime)
		require.Equal(t, p.Bytes(), p.Marshal())
	})
	t.Run("streamID", func(t *testing.T) {
		p, err := DecodePacket(&Config{PacketSize: 50}, testPacket())
		require.NoError(t, err)

		p.SetStreamID(0, 52)
		require.Equal(t, byte(0x80|52), p.Bytes()[14])
		p.SetStreamID(1, 51)
		require.Equal(t, byte(51), p.Bytes()[34])
		require.Equal(t, p.Bytes(), p.Marshal())
	})
	t.Run("presentationTime", func(t *testing.T) {
		p, err := DecodePacket(&Config{PacketSize: 50}, testPacket())
		require.NoError(t, err)

		p.SetPresentationTime(0, 0x0a0b0c0d)
		require.Equal(t, []byte{0x0d, 0x0c, 0x0b, 0x0a}, p.Bytes()[25:29])

		p.SetPresentationTime(1, 7)
		require.Equal(t, []byte{7, 0, 0, 0}, p.Bytes()[36:40])
		require.Equal(t, uint32(7), p.Payloads[1].OffsetIntoMedia)
		require.Equal(t, p.Bytes(), p.Marshal())
	})
	t.Run("mediaObjectNumber", func(t *testing.T) {
		p, err := DecodePacket(&Config{PacketSize: 50}, testPacket())
		require.NoError(t, err)

		p.SetMediaObjectNumber(0, 300)
		require.Equal(t, byte(44), p.Bytes()[15])
		require.Equal(t, uint32(44), p.Payloads[0].MediaObjectNumber)
		require.Equal(t, p.Bytes(), p.Marshal())
	})
	t.Run("offsetIntoMedia", func(t *testing.T) {
		p, err := DecodePacket(&Config{PacketSize: 50}, testPacket())
		require.NoError(t, err)

		p.SetOffsetIntoMedia(0, 0x100)
		require.Equal(t, []byte{0, 1, 0, 0}, p.Bytes()[16:20])
		require.Equal(t, p.Bytes(), p.Marshal())
	})
	t.Run("movePrivate", func(t *testing.T) {
		p, err := DecodePacket(&Config{PacketSize: 50}, testPacket())
		require.NoError(t, err)

		p.MovePrivate(0, 9)
		require.Equal(t, uint8(52), p.Payloads[0].StreamID)
		require.Equal(t, byte(0x80|52), p.Bytes()[14])
		require.Equal(t, uint32(9), p.Payloads[0].PresentationTime)
		require.Equal(t, []byte{9, 0, 0, 0}, p.Bytes()[25:29])
	})
}

func TestDecodePacketErrors(t *testing.T) {
	cases := map[string]struct {
		modify func([]byte)
		size   uint32
		err    error
	}{
		"opaque": {
			modify: func(b []byte) { b[0] = 0x92 },
			err:    ErrUnsupportedPacket,
		},
		"errorCorrectionLength": {
			modify: func(b []byte) { b[0] = 0x81 },
			err:    ErrUnsupportedPacket,
		},
		"errorCorrectionType": {
			modify: func(b []byte) { b[1] = 1 },
			err:    ErrUnsupportedPacket,
		},
		"streamNumberWidth": {
			modify: func(b []byte) { b[4] = 0x9d },
			err:    ErrUnsupportedPacket,
		},
		"payloadLengthType": {
			modify: func(b []byte) { b[13] = 0x02 },
			err:    ErrUnsupportedPacket,
		},
		"replicatedLength": {
			modify: func(b []byte) { b[20] = 2 },
			err:    ErrUnsupportedPacket,
		},
		"payloadLength": {
			modify: func(b []byte) { b[42] = 0xff },
			err:    ErrUnsupportedPacket,
		},
		"packetSize": {
			modify: func(b []byte) {},
			size:   49,
			err:    ErrInvalidArgument,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw := testPacket()
			tc.modify(raw)
			size := uint32(len(raw))
			if tc.size != 0 {
				size = tc.size
			}
			_, err := DecodePacket(&Config{PacketSize: size}, raw)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestBitFields(t *testing.T) {
	fields, err := bitFields(0x5d, 2, 2, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 1, 3, 1}, fields)

	fields, err = bitFields(0x82, 1, 2, 1, 4)
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 0, 0, 2}, fields)
}
