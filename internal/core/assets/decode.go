package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"io"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func decodeTexture(src string, data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", src, err)
	}
	return &Texture{
		Source:      src,
		Image:       toNRGBA(img),
		Fingerprint: xxhash.Sum64(data),
	}, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// cubeFaceSources expands a placeholder source into the six face sources.
func cubeFaceSources(src string) ([6]string, error) {
	var out [6]string
	if !strings.Contains(src, FacePlaceholder) {
		return out, fmt.Errorf("cube texture %s: source must contain %s", src, FacePlaceholder)
	}
	for i, face := range CubeFaces {
		out[i] = strings.ReplaceAll(src, FacePlaceholder, face)
	}
	return out, nil
}

func decodeAudio(src string, data []byte) (*AudioClip, error) {
	reader := io.NopCloser(bytes.NewReader(data))

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(path.Ext(src)) {
	case ".wav":
		streamer, format, err = wav.Decode(reader)
	case ".ogg":
		streamer, format, err = vorbis.Decode(reader)
	case ".mp3":
		streamer, format, err = mp3.Decode(reader)
	case ".flac":
		streamer, format, err = flac.Decode(reader)
	default:
		return nil, fmt.Errorf("decode audio %s: unsupported extension", src)
	}
	if err != nil {
		return nil, fmt.Errorf("decode audio %s: %w", src, err)
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	_ = streamer.Close()

	return &AudioClip{
		Source:      src,
		Buffer:      buffer,
		Format:      format,
		Fingerprint: xxhash.Sum64(data),
	}, nil
}

func decodeJSON(src string, data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json %s: %w", src, err)
	}
	return doc, nil
}

// modelDoc is the on-disk model schema.
type modelDoc struct {
	Name       string        `json:"name"`
	Geometries []geometryDoc `json:"geometries"`
	Materials  []materialDoc `json:"materials"`
	Nodes      []nodeDoc     `json:"nodes"`
	Root       int           `json:"root"`
}

type geometryDoc struct {
	Name      string    `json:"name"`
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
}

type materialDoc struct {
	Name      string     `json:"name"`
	BaseColor [4]float64 `json:"baseColor"`
	Texture   string     `json:"texture"`
}

type nodeDoc struct {
	Name        string     `json:"name"`
	Geometry    *int       `json:"geometry"`
	Material    *int       `json:"material"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
	Children    []int      `json:"children"`
}

func decodeModel(src string, data []byte) (*Model, error) {
	var doc modelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", src, err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("decode model %s: no nodes", src)
	}

	geometries := make([]*Geometry, len(doc.Geometries))
	for i, g := range doc.Geometries {
		geometries[i] = &Geometry{
			Name:      g.Name,
			Positions: g.Positions,
			Normals:   g.Normals,
			UVs:       g.UVs,
			Indices:   g.Indices,
		}
	}
	materials := make([]*Material, len(doc.Materials))
	for i, m := range doc.Materials {
		materials[i] = &Material{
			Name:       m.Name,
			BaseColor:  m.BaseColor,
			TextureSrc: m.Texture,
		}
	}

	building := make([]bool, len(doc.Nodes))
	built := make([]*Node, len(doc.Nodes))
	var buildNode func(i int) (*Node, error)
	buildNode = func(i int) (*Node, error) {
		if i < 0 || i >= len(doc.Nodes) {
			return nil, fmt.Errorf("decode model %s: node index %d out of range", src, i)
		}
		if built[i] != nil {
			return nil, fmt.Errorf("decode model %s: node %d referenced twice", src, i)
		}
		if building[i] {
			return nil, fmt.Errorf("decode model %s: node cycle at %d", src, i)
		}
		building[i] = true

		d := doc.Nodes[i]
		node := &Node{
			Name:        d.Name,
			Translation: d.Translation,
			Rotation:    d.Rotation,
			Scale:       d.Scale,
		}
		if node.Rotation == ([4]float64{}) {
			node.Rotation[3] = 1
		}
		if node.Scale == ([3]float64{}) {
			node.Scale = [3]float64{1, 1, 1}
		}
		if d.Geometry != nil {
			if *d.Geometry < 0 || *d.Geometry >= len(geometries) {
				return nil, fmt.Errorf("decode model %s: geometry index %d out of range", src, *d.Geometry)
			}
			node.Geometry = geometries[*d.Geometry]
		}
		if d.Material != nil {
			if *d.Material < 0 || *d.Material >= len(materials) {
				return nil, fmt.Errorf("decode model %s: material index %d out of range", src, *d.Material)
			}
			node.Material = materials[*d.Material]
		}
		for _, childIdx := range d.Children {
			child, err := buildNode(childIdx)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		built[i] = node
		return node, nil
	}

	root, err := buildNode(doc.Root)
	if err != nil {
		return nil, err
	}
	return &Model{
		Source:      src,
		Root:        root,
		Geometries:  geometries,
		Materials:   materials,
		Fingerprint: xxhash.Sum64(data),
	}, nil
}
