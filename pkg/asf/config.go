package asf

// Config parse configuration shared by the objects of one file.
// It is filled while the header is parsed and must not be used
// concurrently by two operations.
type Config struct {
	PacketSize  uint32
	PacketCount uint64

	// HeaderSize offset of the first data packet.
	HeaderSize int64

	// Preroll in milliseconds.
	Preroll uint32
	Bitrate uint32

	// IndexSize size of the simple index object.
	IndexSize uint64

	AudioStreamID      uint8
	AudioChannels      uint16
	AudioSampleRate    uint32
	AudioBitsPerSample uint16

	VideoStreamID uint8
	ImageWidth    int
	ImageHeight   int

	// Duration play duration minus preroll in seconds.
	Duration float64
}

// NewConfig returns a config with default values.
func NewConfig() *Config {
	c := &Config{}
	c.Reset()
	return c
}

// Reset restores the default values.
func (c *Config) Reset() {
	*c = Config{AudioChannels: 1}
}

// HasVideo reports whether a video stream with dimensions was parsed.
func (c *Config) HasVideo() bool {
	return c.ImageWidth > 0
}

// DataEnd offset of the byte after the last data packet.
func (c *Config) DataEnd() int64 {
	return c.HeaderSize + int64(c.PacketCount)*int64(c.PacketSize)
}
