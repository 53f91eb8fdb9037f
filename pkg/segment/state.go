// Package segment streams a time range of a container file as a
// playable file of its own.
package segment

import (
	"math"

	"asfkit/pkg/asf"
)

// Type stream type.
type Type int

// Stream types.
const (
	// Stream renormalized segment with header, length capped to 2 GiB.
	Stream Type = iota

	// Unaltered packets without header and without payload changes
	// besides time stamps.
	Unaltered

	// File renormalized segment with header.
	File

	// Image video segment without audio, used to decode a single frame.
	Image

	// Audio segment that starts at an audio packet.
	Audio
)

func (t Type) String() string {
	switch t {
	case Stream:
		return "stream"
	case Unaltered:
		return "unaltered"
	case File:
		return "file"
	case Image:
		return "image"
	case Audio:
		return "audio"
	}
	return "unknown"
}

const (
	// Send times are moved back by this many milliseconds.
	sendThreshold = 2000

	// Video before the start of an image segment is presented
	// this many milliseconds before the preroll.
	imageLead = 100
)

// State renormalizes the packets of one segment so that it starts at
// presentation time preroll and send time 0. Media object numbers are
// renumbered per stream starting at 1.
type State struct {
	kind Type
	cfg  *asf.Config

	StartSendTime     uint32
	MinPacketSendTime uint32

	// Start and end of the segment in milliseconds.
	StartTimeOffset int64
	EndTimeOffset   int64

	// MaxPresentationTime per stream number.
	MaxPresentationTime map[uint8]uint32

	mediaObjectID     [256]uint8
	prevMediaObjectID [256]uint8
}

// NewState returns the state of a segment between start and end in
// milliseconds.
func NewState(cfg *asf.Config, kind Type, start, end int64) *State {
	return &State{
		kind:                kind,
		cfg:                 cfg,
		StartTimeOffset:     start,
		EndTimeOffset:       end,
		MaxPresentationTime: make(map[uint8]uint32),
	}
}

// ResetMediaObjects restarts the media object numbering.
func (s *State) ResetMediaObjects() {
	s.mediaObjectID = [256]uint8{}
	s.prevMediaObjectID = [256]uint8{}
}

// SetStart hides the video payloads of the first packet that belong
// to frames before its last key frame. It returns false if the packet
// has no key frame.
func (s *State) SetStart(p *asf.Packet) bool {
	if s.kind == Audio {
		return true
	}
	video := s.cfg.VideoStreamID

	key := -1
	for i, pl := range p.Payloads {
		if pl.StreamID == video && pl.KeyframeStart {
			key = i
		}
	}
	if key < 0 {
		return false
	}
	keyTime := p.Payloads[key].PresentationTime
	keyObject := uint8(p.Payloads[key].MediaObjectNumber)

	for i := range p.Payloads {
		pl := &p.Payloads[i]
		if pl.StreamID != video || pl.KeyframeStart || pl.PresentationTime >= keyTime {
			continue
		}
		if uint8(pl.MediaObjectNumber) < keyObject && s.kind != Unaltered {
			p.SetStreamID(i, video+asf.PrivateStreamOffset)
		}
		if !pl.Compressed {
			p.SetOffsetIntoMedia(i, 0)
		}
	}
	return true
}

func movePrivate(p *asf.Packet, i int, t uint32) {
	if p.Payloads[i].StreamID >= asf.PrivateStreamOffset {
		p.SetPresentationTime(i, t)
		return
	}
	p.MovePrivate(i, t)
}

func clampUint32(v int64) uint32 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

// SetFollowup rewrites the send time, presentation times and media
// object numbers of a packet. Audio before the start and payloads
// after the end are moved to private streams.
func (s *State) SetFollowup(p *asf.Packet) { //nolint:funlen
	preroll := int64(s.cfg.Preroll)

	send := int64(p.SendTime) - int64(s.StartSendTime)
	if send-sendThreshold > 0 {
		send -= sendThreshold
	} else {
		send = 0
	}
	sendTime := uint32(send)
	span := s.EndTimeOffset - s.StartTimeOffset

	for i := range p.Payloads {
		pl := &p.Payloads[i]
		isAudio := pl.StreamID == s.cfg.AudioStreamID

		pt := int64(pl.PresentationTime) - s.StartTimeOffset
		if pt < preroll {
			switch {
			case isAudio && s.kind != Unaltered:
				pt = int64(sendTime) + preroll
				movePrivate(p, i, clampUint32(pt))
			case s.kind == Image:
				pt = preroll - imageLead
			default:
				pt = preroll
			}
		}
		if s.kind == Image && isAudio {
			movePrivate(p, i, clampUint32(int64(sendTime)+preroll))
		}

		// The send time may not be later than any presentation time.
		if pt < int64(sendTime) {
			sendTime = clampUint32(pt)
			if sendTime < s.MinPacketSendTime {
				sendTime = s.MinPacketSendTime
			}
		}
		p.SetPresentationTime(i, clampUint32(pt))

		cropped := int64(pl.PresentationTime) > preroll && int64(pl.PresentationTime)-preroll > span
		if s.kind != Unaltered && s.kind != Image && cropped {
			movePrivate(p, i, clampUint32(span+preroll))
		}

		if s.MaxPresentationTime[pl.StreamID] < pl.PresentationTime {
			s.MaxPresentationTime[pl.StreamID] = pl.PresentationTime
		}

		id := pl.StreamID
		raw := uint8(pl.MediaObjectNumber)
		if (s.mediaObjectID[id] == 0 && s.prevMediaObjectID[id] == 0) || s.prevMediaObjectID[id] != raw {
			s.mediaObjectID[id]++
		}
		s.prevMediaObjectID[id] = raw
		p.SetMediaObjectNumber(i, uint32(s.mediaObjectID[id]))
	}

	p.SetSendTime(sendTime)
	s.MinPacketSendTime = sendTime
}
