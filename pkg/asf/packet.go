package asf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

// PrivateStreamOffset is added to the stream number of payloads that
// must be ignored by the decoder.
const PrivateStreamOffset = 50

const (
	keyFrameBit = 0x80
	ecPresent   = 0x80
)

// Packet decode errors.
var (
	errOpaqueData        = errors.New("opaque data present")
	errErrorCorrection   = errors.New("unexpected error correction layout")
	errStreamNumberWidth = errors.New("stream number must be one byte")
	errPayloadLengthType = errors.New("payload length type missing")
	errNoPayloads        = errors.New("no payloads")
	errReplicatedLength  = errors.New("unsupported replicated data length")
	errPayloadLength     = errors.New("payload exceeds packet")
)

// Payload one media object fragment in a packet. The offsets are the
// positions of the fields within the packet and -1 when the field is
// not present.
type Payload struct {
	StreamID          uint8
	KeyFrame          bool
	MediaObjectNumber uint32
	OffsetIntoMedia   uint32
	ReplicatedLength  uint32
	MediaObjectSize   uint32
	PresentationTime  uint32
	Length            uint32

	// Compressed payloads carry the presentation time in the
	// offset into media field followed by a time delta.
	Compressed            bool
	PresentationTimeDelta uint8

	// KeyframeStart first fragment of a key frame.
	KeyframeStart bool

	StreamIDOffset          int
	MediaObjectNumberOffset int
	OffsetIntoMediaOffset   int
	ReplicatedLengthOffset  int
	MediaObjectSizeOffset   int
	PresentationTimeOffset  int
	LengthOffset            int
	DataOffset              int

	monCode    uint8
	offsetCode uint8
	repCode    uint8
	ptCode     uint8
	lenCode    uint8
}

// HasPresentationTime reports whether the payload carries a presentation time.
func (p *Payload) HasPresentationTime() bool {
	return p.PresentationTimeOffset >= 0
}

// Packet decoded data packet. The decoded fields can be patched in
// place, all other bytes are left untouched.
type Packet struct {
	buf []byte

	ErrorCorrection  bool
	MultiplePayloads bool
	PacketLength     uint32
	Sequence         uint32
	PaddingLength    uint32

	// SendTime in milliseconds.
	SendTime uint32
	Duration uint16
	Payloads []Payload

	// IsKeyFrame any payload starts a key frame.
	IsKeyFrame bool

	ecFlags            byte
	lengthTypeFlags    byte
	propertyFlags      byte
	payloadFlags       byte
	lengthTypeOffset   int
	packetLengthOffset int
	sequenceOffset     int
	paddingOffset      int
	sendTimeOffset     int
	durationOffset     int
	payloadFlagsOffset int
	packetLengthCode   uint8
	sequenceCode       uint8
	paddingCode        uint8
}

// DecodePacket decodes one packet, len(buf) must equal cfg.PacketSize.
// The packet keeps buf and patches it in place.
func DecodePacket(cfg *Config, buf []byte) (*Packet, error) {
	if uint64(len(buf)) != uint64(cfg.PacketSize) {
		return nil, fmt.Errorf("%w: packet length %d, expected %d",
			ErrInvalidArgument, len(buf), cfg.PacketSize)
	}
	p := &Packet{buf: buf}
	if err := p.decode(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPacket, err)
	}
	return p, nil
}

// bitFields splits b into fields of the given widths, most
// significant bit first.
func bitFields(b byte, widths ...uint8) ([]uint8, error) {
	r := bitio.NewReader(bytes.NewReader([]byte{b}))
	out := make([]uint8, len(widths))
	for i, n := range widths {
		v, err := r.ReadBits(n)
		if err != nil {
			return nil, err
		}
		out[i] = uint8(v)
	}
	return out, nil
}

func absentOr(pos int, code uint8) int {
	if code == 0 {
		return -1
	}
	return pos
}

func (p *Packet) decode() error { //nolint:funlen
	d := newDecoder(p.buf, 0)

	if len(p.buf) > 0 && p.buf[0]&ecPresent != 0 {
		p.ecFlags = d.u8("")
		f, err := bitFields(p.ecFlags, 1, 2, 1, 4)
		if err != nil {
			return err
		}
		lengthType, opaque, dataLength := f[1], f[2], f[3]
		if opaque != 0 {
			return errOpaqueData
		}
		if !((lengthType == 0 && dataLength == 2) || (lengthType != 0 && dataLength == 0)) {
			return fmt.Errorf("%w: length type %d data length %d",
				errErrorCorrection, lengthType, dataLength)
		}
		ec := d.bytes("", 2)
		if d.err != nil {
			return d.err
		}
		if ec[0] != 0 || ec[1] != 0 {
			return fmt.Errorf("%w: type %d cycle %d", errErrorCorrection, ec[0], ec[1])
		}
		p.ErrorCorrection = true
	}

	p.lengthTypeOffset = d.pos
	p.lengthTypeFlags = d.u8("")
	p.propertyFlags = d.u8("")
	if d.err != nil {
		return d.err
	}

	lt, err := bitFields(p.lengthTypeFlags, 1, 2, 2, 2, 1)
	if err != nil {
		return err
	}
	p.packetLengthCode, p.paddingCode, p.sequenceCode = lt[1], lt[2], lt[3]
	p.MultiplePayloads = lt[4] == 1

	pf, err := bitFields(p.propertyFlags, 2, 2, 2, 2)
	if err != nil {
		return err
	}
	streamCode, monCode, offsetCode, repCode := pf[0], pf[1], pf[2], pf[3]
	if streamCode != 1 {
		return errStreamNumberWidth
	}

	p.sequenceOffset = absentOr(d.pos, p.sequenceCode)
	p.Sequence = d.varuint("", p.sequenceCode)
	p.paddingOffset = absentOr(d.pos, p.paddingCode)
	p.PaddingLength = d.varuint("", p.paddingCode)
	p.packetLengthOffset = absentOr(d.pos, p.packetLengthCode)
	p.PacketLength = d.varuint("", p.packetLengthCode)

	p.sendTimeOffset = d.pos
	p.SendTime = d.u32("")
	p.durationOffset = d.pos
	p.Duration = d.u16("")

	count := 1
	var lenCode uint8
	p.payloadFlagsOffset = -1
	if p.MultiplePayloads {
		p.payloadFlagsOffset = d.pos
		p.payloadFlags = d.u8("")
		f, err := bitFields(p.payloadFlags, 2, 6)
		if err != nil {
			return err
		}
		lenCode, count = f[0], int(f[1])
		if lenCode == 0 {
			return errPayloadLengthType
		}
		if count == 0 {
			return errNoPayloads
		}
	}
	if d.err != nil {
		return d.err
	}

	end := len(p.buf)
	if p.PacketLength > 0 && int64(p.PacketLength) < int64(end) {
		end = int(p.PacketLength)
	}

	p.Payloads = make([]Payload, 0, count)
	for i := 0; i < count; i++ {
		pl := Payload{
			monCode:    monCode,
			offsetCode: offsetCode,
			repCode:    repCode,
			lenCode:    lenCode,

			MediaObjectSizeOffset:  -1,
			PresentationTimeOffset: -1,
			LengthOffset:           -1,
		}

		pl.StreamIDOffset = d.pos
		stream := d.u8("")
		pl.StreamID = stream &^ keyFrameBit
		pl.KeyFrame = stream&keyFrameBit != 0

		pl.MediaObjectNumberOffset = absentOr(d.pos, monCode)
		pl.MediaObjectNumber = d.varuint("", monCode)
		pl.OffsetIntoMediaOffset = absentOr(d.pos, offsetCode)
		pl.OffsetIntoMedia = d.varuint("", offsetCode)
		pl.ReplicatedLengthOffset = absentOr(d.pos, repCode)
		pl.ReplicatedLength = d.varuint("", repCode)
		if d.err != nil {
			return d.err
		}

		switch rep := pl.ReplicatedLength; {
		case rep >= 8:
			pl.MediaObjectSizeOffset = d.pos
			pl.MediaObjectSize = d.u32("")
			pl.PresentationTimeOffset = d.pos
			pl.ptCode = 3
			pl.PresentationTime = d.u32("")
			d.skip(int(rep) - 8)
		case rep == 1:
			pl.Compressed = true
			pl.PresentationTime = pl.OffsetIntoMedia
			pl.PresentationTimeOffset = pl.OffsetIntoMediaOffset
			pl.ptCode = offsetCode
			pl.PresentationTimeDelta = d.u8("")
		case rep > 1:
			return fmt.Errorf("%w: %d", errReplicatedLength, rep)
		}

		if p.MultiplePayloads {
			pl.LengthOffset = d.pos
			pl.Length = d.varuint("", lenCode)
		} else {
			n := end - d.pos - int(p.PaddingLength)
			if n < 0 {
				return fmt.Errorf("%w: padding %d", errPayloadLength, p.PaddingLength)
			}
			pl.Length = uint32(n)
		}
		if d.err != nil {
			return d.err
		}

		pl.DataOffset = d.pos
		if int64(pl.Length) > int64(len(p.buf)-d.pos) {
			return fmt.Errorf("%w: payload %d length %d at %d",
				errPayloadLength, i, pl.Length, d.pos)
		}
		d.skip(int(pl.Length))

		pl.KeyframeStart = pl.KeyFrame && (pl.Compressed || pl.OffsetIntoMedia == 0)
		p.IsKeyFrame = p.IsKeyFrame || pl.KeyframeStart
		p.Payloads = append(p.Payloads, pl)
	}
	return d.err
}

// Bytes returns the packet buffer including any patches.
func (p *Packet) Bytes() []byte {
	return p.buf
}

// Len packet size in bytes.
func (p *Packet) Len() int {
	return len(p.buf)
}

// Marshal encodes the decoded fields at their positions in a copy
// of the packet buffer.
func (p *Packet) Marshal() []byte {
	out := make([]byte, len(p.buf))
	copy(out, p.buf)
	le := binary.LittleEndian

	if p.ErrorCorrection {
		out[0] = p.ecFlags
	}
	out[p.lengthTypeOffset] = p.lengthTypeFlags
	out[p.lengthTypeOffset+1] = p.propertyFlags
	putField(out, p.packetLengthOffset, p.packetLengthCode, p.PacketLength)
	putField(out, p.sequenceOffset, p.sequenceCode, p.Sequence)
	putField(out, p.paddingOffset, p.paddingCode, p.PaddingLength)
	le.PutUint32(out[p.sendTimeOffset:], p.SendTime)
	le.PutUint16(out[p.durationOffset:], p.Duration)
	if p.payloadFlagsOffset >= 0 {
		out[p.payloadFlagsOffset] = p.payloadFlags
	}

	for i := range p.Payloads {
		pl := &p.Payloads[i]
		out[pl.StreamIDOffset] = streamByte(pl.StreamID, pl.KeyFrame)
		putField(out, pl.MediaObjectNumberOffset, pl.monCode, pl.MediaObjectNumber)
		if pl.Compressed {
			putField(out, pl.OffsetIntoMediaOffset, pl.offsetCode, pl.PresentationTime)
		} else {
			putField(out, pl.OffsetIntoMediaOffset, pl.offsetCode, pl.OffsetIntoMedia)
		}
		putField(out, pl.ReplicatedLengthOffset, pl.repCode, pl.ReplicatedLength)
		if pl.MediaObjectSizeOffset >= 0 {
			le.PutUint32(out[pl.MediaObjectSizeOffset:], pl.MediaObjectSize)
			le.PutUint32(out[pl.PresentationTimeOffset:], pl.PresentationTime)
		}
		if pl.Compressed {
			out[pl.ReplicatedLengthOffset+widthOf(pl.repCode)] = pl.PresentationTimeDelta
		}
		putField(out, pl.LengthOffset, pl.lenCode, pl.Length)
	}
	return out
}

func putField(buf []byte, offset int, code uint8, v uint32) {
	if offset >= 0 {
		putVaruint(buf, offset, code, v)
	}
}

func streamByte(id uint8, key bool) byte {
	b := id &^ keyFrameBit
	if key {
		b |= keyFrameBit
	}
	return b
}

// SetSendTime patches the packet send time.
func (p *Packet) SetSendTime(t uint32) {
	p.SendTime = t
	binary.LittleEndian.PutUint32(p.buf[p.sendTimeOffset:], t)
}

// SetStreamID patches the stream number of payload i, the key frame
// bit is kept.
func (p *Packet) SetStreamID(i int, id uint8) {
	pl := &p.Payloads[i]
	pl.StreamID = id &^ keyFrameBit
	p.buf[pl.StreamIDOffset] = streamByte(pl.StreamID, pl.KeyFrame)
}

// SetPresentationTime patches the presentation time of payload i.
// Payloads without a presentation time are left unchanged.
func (p *Packet) SetPresentationTime(i int, t uint32) {
	pl := &p.Payloads[i]
	if !pl.HasPresentationTime() {
		return
	}
	pl.PresentationTime = t
	if pl.Compressed {
		pl.OffsetIntoMedia = t
	}
	putVaruint(p.buf, pl.PresentationTimeOffset, pl.ptCode, t)
}

// SetMediaObjectNumber patches the media object number of payload i.
// The value is truncated to the field width.
func (p *Packet) SetMediaObjectNumber(i int, n uint32) {
	pl := &p.Payloads[i]
	if pl.MediaObjectNumberOffset < 0 {
		return
	}
	pl.MediaObjectNumber = truncate(n, pl.monCode)
	putVaruint(p.buf, pl.MediaObjectNumberOffset, pl.monCode, n)
}

// SetOffsetIntoMedia patches the offset into media object of payload i.
func (p *Packet) SetOffsetIntoMedia(i int, v uint32) {
	pl := &p.Payloads[i]
	if pl.OffsetIntoMediaOffset < 0 {
		return
	}
	pl.OffsetIntoMedia = truncate(v, pl.offsetCode)
	if pl.Compressed {
		pl.PresentationTime = pl.OffsetIntoMedia
	}
	putVaruint(p.buf, pl.OffsetIntoMediaOffset, pl.offsetCode, v)
}

// MovePrivate moves payload i to its private stream and sets the
// presentation time.
func (p *Packet) MovePrivate(i int, t uint32) {
	p.SetStreamID(i, p.Payloads[i].StreamID+PrivateStreamOffset)
	p.SetPresentationTime(i, t)
}

func truncate(v uint32, code uint8) uint32 {
	switch code {
	case 1:
		return v & 0xff
	case 2:
		return v & 0xffff
	case 3:
		return v
	}
	return 0
}
