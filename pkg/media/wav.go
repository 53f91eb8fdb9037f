package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidFormat invalid WAVE format.
var ErrInvalidFormat = errors.New("invalid wav format")

// WAVFormat 16 bit PCM format.
type WAVFormat struct {
	SampleRate int
	Channels   int
}

const (
	wavHeaderSize    = 44
	wavBitsPerSample = 16
	wavFormatPCM     = 1
)

// WriteWAV writes a RIFF WAVE file with the interleaved s16le pcm data.
func WriteWAV(w io.Writer, format WAVFormat, pcm []byte) error {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return fmt.Errorf("%w: rate %v channels %v",
			ErrInvalidFormat, format.SampleRate, format.Channels)
	}
	blockAlign := format.Channels * wavBitsPerSample / 8

	// Drop a trailing partial sample frame.
	pcm = pcm[:len(pcm)-len(pcm)%blockAlign]

	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(wavHeaderSize-8+len(pcm)))
	copy(header[8:], "WAVE")

	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:], uint16(format.Channels))
	binary.LittleEndian.PutUint32(header[24:], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(format.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:], wavBitsPerSample)

	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(len(pcm)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}
