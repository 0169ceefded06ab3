// Package assets loads, caches and reference-counts engine resources. Five
// asset kinds share one loader pipeline: a three-class priority queue drained
// by a bounded number of loader goroutines. Caches are per kind; a cache hit
// is synchronous, a miss waits for its queued load task.
package assets

import (
	"image"

	"github.com/gopxl/beep"
)

// Kind names one of the five asset caches.
type Kind uint8

const (
	KindTexture Kind = iota
	KindCubeTexture
	KindModel
	KindAudio
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindCubeTexture:
		return "cube-texture"
	case KindModel:
		return "model"
	case KindAudio:
		return "audio"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Priority selects the scheduler class for a load. High drains fully before
// Normal, Normal before Low.
type Priority uint8

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// Texture is decoded pixel data ready for GPU upload.
type Texture struct {
	Source      string
	Image       *image.NRGBA
	Fingerprint uint64
}

func (t *Texture) Bounds() image.Rectangle {
	if t.Image == nil {
		return image.Rectangle{}
	}
	return t.Image.Bounds()
}

func (t *Texture) Dispose() {
	t.Image = nil
}

// Cube face order: +x, -x, +y, -y, +z, -z.
var CubeFaces = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

// FacePlaceholder marks where the face name goes in a cube-texture source,
// e.g. "sky/{face}.png".
const FacePlaceholder = "{face}"

// CubeTexture is six decoded faces of a skybox or environment map.
type CubeTexture struct {
	Source      string
	Faces       [6]*image.NRGBA
	Fingerprint uint64
}

func (t *CubeTexture) Dispose() {
	for i := range t.Faces {
		t.Faces[i] = nil
	}
}

// AudioClip is a fully buffered, decoded sound.
type AudioClip struct {
	Source      string
	Buffer      *beep.Buffer
	Format      beep.Format
	Fingerprint uint64
}

// Streamer returns a fresh streamer over the whole clip. Each call is an
// independent playback cursor.
func (c *AudioClip) Streamer() beep.StreamSeeker {
	return c.Buffer.Streamer(0, c.Buffer.Len())
}

func (c *AudioClip) Dispose() {
	c.Buffer = nil
}

// Document is a parsed JSON asset. The top level must be an object.
type Document map[string]any

// ProgressEvent reports fetch progress for one load task. Total is -1 when
// the source does not announce its size.
type ProgressEvent struct {
	TaskID string
	Source string
	Kind   Kind
	Loaded int64
	Total  int64
}
