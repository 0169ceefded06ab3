package scene

import (
	"math"
	"sync"
)

// Defaults for the manager-owned camera.
const (
	DefaultFOV  = 60.0
	DefaultNear = 0.1
	DefaultFar  = 1000.0
)

// Camera is a perspective camera. The projection matrix is cached in
// column-major order and rebuilt when a parameter changes.
type Camera struct {
	mu     sync.RWMutex
	fov    float64 // vertical field of view, degrees
	aspect float64
	near   float64
	far    float64
	proj   [16]float32
}

func NewCamera(fov, aspect, near, far float64) *Camera {
	c := &Camera{fov: fov, aspect: aspect, near: near, far: far}
	c.rebuildLocked()
	return c
}

func (c *Camera) FOV() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fov
}

func (c *Camera) SetFOV(fov float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.rebuildLocked()
}

func (c *Camera) Aspect() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aspect
}

func (c *Camera) SetAspect(aspect float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.rebuildLocked()
}

func (c *Camera) Near() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.near
}

func (c *Camera) Far() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.far
}

// SetPlanes updates the near and far clip planes together.
func (c *Camera) SetPlanes(near, far float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.rebuildLocked()
}

// Projection returns the current projection matrix, column-major.
func (c *Camera) Projection() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proj
}

func (c *Camera) rebuildLocked() {
	f := 1 / math.Tan(c.fov*math.Pi/360)
	nf := 1 / (c.near - c.far)
	c.proj = [16]float32{
		float32(f / c.aspect), 0, 0, 0,
		0, float32(f), 0, 0,
		0, 0, float32((c.far + c.near) * nf), -1,
		0, 0, float32(2 * c.far * c.near * nf), 0,
	}
}
