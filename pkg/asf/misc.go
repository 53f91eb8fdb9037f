package asf

// BitrateMutualExclusion object.
type BitrateMutualExclusion struct {
	base
	ExclusionType GUID
	StreamNumbers []uint16
}

func (o *BitrateMutualExclusion) unmarshal(d *decoder, _ *Config) error {
	o.ExclusionType = d.guid("Exclusion Type")
	count := d.u16("Stream Numbers Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		o.StreamNumbers = append(o.StreamNumbers, d.u16("Stream Number"))
	}
	return nil
}

// StreamPriority stream prioritization record.
type StreamPriority struct {
	StreamNumber uint16
	Mandatory    bool
}

// StreamPrioritization object.
type StreamPrioritization struct {
	base
	Priorities []StreamPriority
}

func (o *StreamPrioritization) unmarshal(d *decoder, _ *Config) error {
	count := d.u16("Priority Records Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		stream := d.u16("Stream Number")
		flags := d.u16("Priority Flags")
		o.Priorities = append(o.Priorities, StreamPriority{
			StreamNumber: stream,
			Mandatory:    flags&1 != 0,
		})
	}
	return nil
}

// Compatibility object.
type Compatibility struct {
	base
	Profile uint8
	Mode    uint8
}

func (o *Compatibility) unmarshal(d *decoder, _ *Config) error {
	o.Profile = d.u8("Profile")
	o.Mode = d.u8("Mode")
	return nil
}
