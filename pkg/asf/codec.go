package asf

// Codec types.
const (
	CodecVideo   = 1
	CodecAudio   = 2
	CodecUnknown = 0xffff
)

// Codec codec list entry.
type Codec struct {
	Type        uint16
	Name        string
	Description string
	Info        []byte
}

// TypeName returns "Video", "Audio" or "Unknown".
func (c Codec) TypeName() string {
	switch c.Type {
	case CodecVideo:
		return "Video"
	case CodecAudio:
		return "Audio"
	}
	return "Unknown"
}

// CodecList object.
type CodecList struct {
	base
	Codecs []Codec
}

func (o *CodecList) unmarshal(d *decoder, _ *Config) error {
	d.guid("Reserved")
	count := d.u32("Codec Entries Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		var c Codec
		c.Type = d.u16("Type")
		nameLen := d.u16("")
		c.Name = d.utf16("Codec Name", 2*int(nameLen))
		descLen := d.u16("")
		c.Description = d.utf16("Codec Description", 2*int(descLen))
		infoLen := d.u16("")
		c.Info = d.bytes("Codec Information", int(infoLen))
		o.Codecs = append(o.Codecs, c)
	}
	return nil
}

// ScriptCommandEntry command at a presentation time.
type ScriptCommandEntry struct {
	// Time in milliseconds.
	Time      uint32
	TypeIndex uint16
	Name      string
}

// ScriptCommand object.
type ScriptCommand struct {
	base
	CommandTypes []string
	Commands     []ScriptCommandEntry
}

func (o *ScriptCommand) unmarshal(d *decoder, _ *Config) error {
	d.guid("Reserved")
	commandCount := d.u16("Commands Count")
	typeCount := d.u16("Command Types Count")
	for i := 0; i < int(typeCount) && d.err == nil; i++ {
		n := d.u16("")
		o.CommandTypes = append(o.CommandTypes, d.utf16("Command Type Name", 2*int(n)))
	}
	for i := 0; i < int(commandCount) && d.err == nil; i++ {
		var c ScriptCommandEntry
		c.Time = d.u32("Presentation Time")
		c.TypeIndex = d.u16("Type Index")
		n := d.u16("")
		c.Name = d.utf16("Command Name", 2*int(n))
		o.Commands = append(o.Commands, c)
	}
	return nil
}
