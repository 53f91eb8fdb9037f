package asf_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"asfkit/pkg/asf"
	"asfkit/pkg/asf/asftest"

	"github.com/stretchr/testify/require"
)

func readObjects(t *testing.T, b []byte) ([]asf.Object, *asf.Config) {
	t.Helper()
	cfg := asf.NewConfig()
	r := bytes.NewReader(b)
	var objects []asf.Object
	for {
		o, err := asf.ReadObject(r, cfg)
		if errors.Is(err, io.EOF) {
			return objects, cfg
		}
		require.NoError(t, err)
		objects = append(objects, o)
		if o.GUID() == asf.DataObject {
			_, err := r.Seek(cfg.DataEnd(), io.SeekStart)
			require.NoError(t, err)
		}
	}
}

func TestReadObject(t *testing.T) {
	f := asftest.DefaultFile(30)
	raw := f.Bytes()
	objects, cfg := readObjects(t, raw)

	var names []string
	for _, o := range objects {
		names = append(names, o.Name())
	}
	expected := []string{
		"Header Object",
		"File Properties Object",
		"Header Extension Object",
		"Language List Object",
		"Compatibility Object",
		"Stream Properties Object [1]",
		"Stream Properties Object [2]",
		"Codec List Object",
		"Content Description Object",
		"Extended Content Description Object",
		"Data Object",
		"Simple Index Object",
	}
	require.Equal(t, expected, names)

	headerSize := int64(len(f.Header()) + 50)
	require.Equal(t, headerSize, cfg.HeaderSize)
	require.Equal(t, uint32(128), cfg.PacketSize)
	require.Equal(t, uint64(30), cfg.PacketCount)
	require.Equal(t, uint32(3000), cfg.Preroll)
	require.Equal(t, uint8(1), cfg.AudioStreamID)
	require.Equal(t, uint16(2), cfg.AudioChannels)
	require.Equal(t, uint32(32000), cfg.AudioSampleRate)
	require.Equal(t, uint16(16), cfg.AudioBitsPerSample)
	require.Equal(t, uint8(2), cfg.VideoStreamID)
	require.Equal(t, 320, cfg.ImageWidth)
	require.Equal(t, 240, cfg.ImageHeight)
	require.Equal(t, 3.0, cfg.Duration)
	require.Equal(t, objects[11].Size(), cfg.IndexSize)
	require.Equal(t, int64(len(raw)), objects[11].Position()+int64(objects[11].Size()))

	fp := objects[1].(*asf.FileProperties)
	require.Equal(t, f.CreationTime, fp.CreationTime)
	require.Equal(t, 3*time.Second, fp.Duration())
	require.True(t, fp.Seekable())
	require.False(t, fp.Broadcast())

	video := objects[6].(*asf.StreamProperties)
	require.Equal(t, asf.VideoMedia, video.StreamType)
	require.Equal(t, "WMV3", video.Video.FourCC())

	codecs := objects[7].(*asf.CodecList)
	require.Equal(t, f.Codecs[0].Name, codecs.Codecs[0].Name)
	require.Equal(t, "Audio", codecs.Codecs[1].TypeName())

	ecd := objects[9].(*asf.ExtendedContentDescription)
	v, ok := ecd.Lookup("IsVBR")
	require.True(t, ok)
	require.Equal(t, false, v)

	lang := objects[3].(*asf.LanguageList)
	require.Equal(t, []string{"en-us"}, lang.Languages)

	index := objects[11].(*asf.SimpleIndex)
	require.Len(t, index.Entries, 4)
	require.Equal(t, 2*time.Second, index.Entries[2].Time)
}

func TestMarshalUnchanged(t *testing.T) {
	f := asftest.DefaultFile(5)
	raw := f.Bytes()
	objects, cfg := readObjects(t, raw)

	var buf bytes.Buffer
	for _, o := range objects {
		start := buf.Len()
		require.NoError(t, o.Marshal(&buf, cfg))
		require.Equal(t, o.Len(), buf.Len()-start, o.Name())
		if o.GUID() == asf.DataObject {
			break
		}
	}
	require.Equal(t, raw[:cfg.HeaderSize], buf.Bytes())
}

func TestContentDescriptionEdit(t *testing.T) {
	f := asftest.DefaultFile(1)
	objects, cfg := readObjects(t, f.Bytes())

	cd := objects[8].(*asf.ContentDescription)
	require.Equal(t, "title", cd.Title)
	require.Equal(t, "author", cd.Author)
	require.Equal(t, "", cd.Rating)

	cd.Title = "A longer title"
	cd.Rating = "PG"

	var buf bytes.Buffer
	require.NoError(t, cd.Marshal(&buf, cfg))
	require.Equal(t, cd.Len(), buf.Len())
	require.Equal(t, 34+30+14+2+2+6, buf.Len())

	o, err := asf.ReadObject(bytes.NewReader(buf.Bytes()), asf.NewConfig())
	require.NoError(t, err)
	edited := o.(*asf.ContentDescription)
	require.Equal(t, "A longer title", edited.Title)
	require.Equal(t, "author", edited.Author)
	require.Equal(t, "", edited.Copyright)
	require.Equal(t, "", edited.Description)
	require.Equal(t, "PG", edited.Rating)
	require.Equal(t, uint64(buf.Len()), edited.Size())
}

func TestFilePropertiesEdit(t *testing.T) {
	f := asftest.DefaultFile(1)
	objects, cfg := readObjects(t, f.Bytes())

	fp := objects[1].(*asf.FileProperties)
	created := time.Date(2020, 1, 2, 3, 4, 5, 600, time.UTC)
	fp.CreationTime = created
	cfg.PacketSize = 256

	var buf bytes.Buffer
	require.NoError(t, fp.Marshal(&buf, cfg))
	require.Equal(t, fp.Len(), buf.Len())

	o, err := asf.ReadObject(bytes.NewReader(buf.Bytes()), asf.NewConfig())
	require.NoError(t, err)
	edited := o.(*asf.FileProperties)
	require.Equal(t, created, edited.CreationTime)
	require.Equal(t, uint32(256), edited.MaxPacketSize)
	require.Equal(t, fp.PlayDuration, edited.PlayDuration)
}

func TestReadObjectUnknown(t *testing.T) {
	g := asf.MustParseGUID("01020304-0506-0708-090A-0B0C0D0E0F10")
	raw := asftest.Object(g, []byte{1, 2, 3})

	o, err := asf.ReadObject(bytes.NewReader(raw), asf.NewConfig())
	require.NoError(t, err)
	require.Equal(t, "Unknown", o.Name())
	require.Equal(t, 27, o.Len())

	var buf bytes.Buffer
	require.NoError(t, o.Marshal(&buf, nil))
	require.Equal(t, raw, buf.Bytes())
}

func TestReadObjectErrors(t *testing.T) {
	raw := asftest.DefaultFile(1).Bytes()

	t.Run("truncatedHeader", func(t *testing.T) {
		_, err := asf.ReadObject(bytes.NewReader(raw[:10]), asf.NewConfig())
		require.ErrorIs(t, err, asf.ErrInvalidContainer)
	})
	t.Run("exceedsFile", func(t *testing.T) {
		r := bytes.NewReader(raw[:100])
		_, err := asf.ReadObject(r, asf.NewConfig())
		require.NoError(t, err)
		_, err = asf.ReadObject(r, asf.NewConfig())
		require.ErrorIs(t, err, asf.ErrInvalidContainer)
	})
	t.Run("tooSmall", func(t *testing.T) {
		b := asftest.Object(asf.FilePropertiesObject, []byte{1, 2})
		_, err := asf.ReadObject(bytes.NewReader(b), asf.NewConfig())
		require.ErrorIs(t, err, asf.ErrInvalidContainer)
	})
	t.Run("eof", func(t *testing.T) {
		_, err := asf.ReadObject(bytes.NewReader(nil), asf.NewConfig())
		require.ErrorIs(t, err, io.EOF)
	})
}

func TestFiletime(t *testing.T) {
	require.Equal(t, time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC), asf.FromFiletime(0))
	now := time.Date(2024, 2, 29, 23, 59, 59, 123456700, time.UTC)
	require.Equal(t, now, asf.FromFiletime(asf.ToFiletime(now)))
}
