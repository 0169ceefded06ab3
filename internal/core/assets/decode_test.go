package assets

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavBytes builds a minimal 16-bit mono PCM WAV with the given samples.
func wavBytes(t *testing.T, sampleRate uint32, samples []int16) []byte {
	t.Helper()
	dataLen := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(&buf, binary.LittleEndian, sampleRate*2) // byte rate
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))    // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))   // bits per sample
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

func TestDecodeTextureConvertsToNRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(40 * i)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gray))

	tex, err := decodeTexture("ui/gradient.png", buf.Bytes())
	require.NoError(t, err)
	require.NotNil(t, tex.Image)
	assert.Equal(t, 3, tex.Bounds().Dx())
	assert.Equal(t, 2, tex.Bounds().Dy())
	assert.NotZero(t, tex.Fingerprint)

	again, err := decodeTexture("ui/gradient.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, tex.Fingerprint, again.Fingerprint)
}

func TestDecodeTextureBadData(t *testing.T) {
	_, err := decodeTexture("bad.png", []byte("not an image"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode texture")
}

func TestCubeFaceSources(t *testing.T) {
	srcs, err := cubeFaceSources("sky/{face}.png")
	require.NoError(t, err)
	assert.Equal(t, [6]string{
		"sky/px.png", "sky/nx.png",
		"sky/py.png", "sky/ny.png",
		"sky/pz.png", "sky/nz.png",
	}, srcs)

	_, err = cubeFaceSources("sky/front.png")
	require.Error(t, err)
	assert.ErrorContains(t, err, FacePlaceholder)
}

func TestDecodeJSON(t *testing.T) {
	doc, err := decodeJSON("cfg.json", []byte(`{"speed": 4.5, "name": "bot"}`))
	require.NoError(t, err)
	assert.Equal(t, 4.5, doc["speed"])
	assert.Equal(t, "bot", doc["name"])

	_, err = decodeJSON("list.json", []byte(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestDecodeAudioWAV(t *testing.T) {
	data := wavBytes(t, 44100, []int16{0, 1000, -1000, 32000})

	clip, err := decodeAudio("sfx/blip.wav", data)
	require.NoError(t, err)
	require.NotNil(t, clip.Buffer)
	assert.Equal(t, 4, clip.Buffer.Len())
	assert.EqualValues(t, 44100, clip.Format.SampleRate)
	assert.NotZero(t, clip.Fingerprint)

	streamer := clip.Streamer()
	require.NotNil(t, streamer)
	assert.Equal(t, 4, streamer.Len())
}

func TestDecodeAudioUnsupportedExtension(t *testing.T) {
	_, err := decodeAudio("music/track.xm", []byte{0, 1, 2})
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestDecodeModelAppliesDefaults(t *testing.T) {
	model, err := decodeModel("m.json", []byte(`{
		"nodes": [{"name": "only"}],
		"root": 0
	}`))
	require.NoError(t, err)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, model.Root.Rotation)
	assert.Equal(t, [3]float64{1, 1, 1}, model.Root.Scale)
}

func TestDecodeModelSharesGeometryAcrossNodes(t *testing.T) {
	model, err := decodeModel("m.json", []byte(crateModel))
	require.NoError(t, err)
	lid := model.Root.Children[0]
	base := model.Root.Children[1]
	assert.Same(t, lid.Geometry, base.Geometry)
	assert.Same(t, model.Geometries[0], lid.Geometry)
	assert.Same(t, model.Materials[0], lid.Material)
}

func TestDecodeModelRejectsBadStructure(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"no nodes", `{"nodes": [], "root": 0}`, "no nodes"},
		{"root out of range", `{"nodes": [{"name":"a"}], "root": 7}`, "out of range"},
		{"self cycle", `{"nodes": [{"name":"a","children":[0]}], "root": 0}`, "cycle"},
		{"shared child", `{"nodes": [{"name":"a","children":[1,1]},{"name":"b"}], "root": 0}`, "referenced twice"},
		{"bad geometry index", `{"nodes": [{"name":"a","geometry":3}], "root": 0}`, "geometry index"},
		{"bad material index", `{"nodes": [{"name":"a","material":1}], "root": 0}`, "material index"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeModel("m.json", []byte(tc.body))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
