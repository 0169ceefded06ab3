package audio

import (
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Voice is the handle for one playing clip. All methods take the manager's
// stream lock, so they are safe against a concurrent Stream pump.
type Voice struct {
	m      *Manager
	ctrl   *beep.Ctrl
	volume *effects.Volume
	gain   float64
}

func (v *Voice) Pause() {
	v.m.mu.Lock()
	v.ctrl.Paused = true
	v.m.mu.Unlock()
}

func (v *Voice) Resume() {
	v.m.mu.Lock()
	v.ctrl.Paused = false
	v.m.mu.Unlock()
}

func (v *Voice) Paused() bool {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return v.ctrl.Paused
}

// SetGain adjusts this voice only. 1 is unity, 0 silences.
func (v *Voice) SetGain(gain float64) {
	v.m.mu.Lock()
	v.gain = gain
	applyGain(v.volume, gain)
	v.m.mu.Unlock()
}

func (v *Voice) Gain() float64 {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return v.gain
}

// Stop ends the voice. A nil ctrl streamer reads as drained, so the mixer
// sheds the voice on its next pump; the handle is removed immediately.
func (v *Voice) Stop() {
	v.m.mu.Lock()
	v.ctrl.Streamer = nil
	v.m.mu.Unlock()
	v.m.removeVoice(v)
}
