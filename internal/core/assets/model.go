package assets

// Model is a node hierarchy referencing shared geometry and material
// payloads. Clones copy the hierarchy and share the payloads.
type Model struct {
	Source      string
	Root        *Node
	Geometries  []*Geometry
	Materials   []*Material
	Fingerprint uint64
}

// Node is one transform in a model's hierarchy.
type Node struct {
	Name        string
	Translation [3]float64
	Rotation    [4]float64 // quaternion, xyzw
	Scale       [3]float64
	Geometry    *Geometry // shared across clones, may be nil
	Material    *Material // shared across clones, may be nil
	Children    []*Node
}

// Geometry is decoded vertex data, uploaded once and shared by reference.
type Geometry struct {
	Name      string
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
}

// Material references its texture by source so instances resolve it through
// the asset cache.
type Material struct {
	Name       string
	BaseColor  [4]float64
	TextureSrc string
}

// Clone deep-copies the node hierarchy. Geometry and material pointers are
// shared: instances get independent transforms over the same uploaded data.
func (m *Model) Clone() *Model {
	return &Model{
		Source:      m.Source,
		Root:        m.Root.clone(),
		Geometries:  m.Geometries,
		Materials:   m.Materials,
		Fingerprint: m.Fingerprint,
	}
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Name:        n.Name,
		Translation: n.Translation,
		Rotation:    n.Rotation,
		Scale:       n.Scale,
		Geometry:    n.Geometry,
		Material:    n.Material,
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.clone()
		}
	}
	return out
}

// NodeCount walks the hierarchy.
func (m *Model) NodeCount() int {
	return m.Root.count()
}

func (n *Node) count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range n.Children {
		total += child.count()
	}
	return total
}

// Dispose releases vertex data. Clones sharing the geometries see them
// emptied too; freeing is the owner's call via the cache.
func (m *Model) Dispose() {
	m.Root = nil
	for _, g := range m.Geometries {
		g.Positions = nil
		g.Normals = nil
		g.UVs = nil
		g.Indices = nil
	}
	m.Geometries = nil
	m.Materials = nil
}
