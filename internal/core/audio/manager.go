// Package audio mixes decoded clips into one sample stream. The manager
// owns a beep mixer and hands the mixed samples to whoever pumps Stream:
// a speaker binding in a native shell, a WebAudio bridge in the browser.
// Binding to a real output device stays outside the core.
package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/glint3d/glint/internal/core/assets"
	"github.com/glint3d/glint/internal/core/observability/log"
)

// DefaultSampleRate is the mix rate; clips at other rates are resampled.
const DefaultSampleRate = beep.SampleRate(48000)

const resampleQuality = 4

var ErrDisposed = errors.New("audio: manager disposed")

// Manager is the mixing core. mu plays the role speaker.Lock plays in a
// speaker-bound setup: every mutation of live streamer state happens under
// it, as does Stream itself.
type Manager struct {
	log *log.Logger

	mu         sync.Mutex
	mixer      *beep.Mixer
	master     *effects.Volume
	sampleRate beep.SampleRate
	masterGain float64
	paused     bool
	disposed   bool

	voicesMu sync.Mutex
	voices   map[*Voice]struct{}
}

func NewManager(logger *log.Logger, sampleRate beep.SampleRate) *Manager {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	mixer := &beep.Mixer{}
	return &Manager{
		log:        logger,
		mixer:      mixer,
		master:     &effects.Volume{Streamer: mixer, Base: 2},
		sampleRate: sampleRate,
		masterGain: 1,
		voices:     make(map[*Voice]struct{}),
	}
}

func (m *Manager) SampleRate() beep.SampleRate { return m.sampleRate }

type playSettings struct {
	gain   float64
	loop   int
	paused bool
}

type PlayOption func(*playSettings)

// WithGain sets the voice gain. 1 is unity, 0 silences.
func WithGain(gain float64) PlayOption {
	return func(s *playSettings) { s.gain = gain }
}

// WithLoop plays the clip count times; negative loops forever.
func WithLoop(count int) PlayOption {
	return func(s *playSettings) { s.loop = count }
}

// WithPaused starts the voice paused.
func WithPaused() PlayOption {
	return func(s *playSettings) { s.paused = true }
}

// Play starts a clip and returns its voice handle. The clip's buffer is
// shared, not copied: releasing the asset while voices play it is the
// caller's bug to avoid.
func (m *Manager) Play(clip *assets.AudioClip, opts ...PlayOption) (*Voice, error) {
	if clip == nil || clip.Buffer == nil {
		return nil, fmt.Errorf("audio: play: empty clip")
	}
	settings := playSettings{gain: 1}
	for _, opt := range opts {
		opt(&settings)
	}

	var streamer beep.Streamer = clip.Streamer()
	if settings.loop != 0 {
		streamer = beep.Loop(settings.loop, clip.Streamer())
	}
	if clip.Format.SampleRate != m.sampleRate {
		streamer = beep.Resample(resampleQuality, clip.Format.SampleRate, m.sampleRate, streamer)
	}

	volume := &effects.Volume{Streamer: streamer, Base: 2}
	applyGain(volume, settings.gain)
	ctrl := &beep.Ctrl{Streamer: volume}

	voice := &Voice{m: m, ctrl: ctrl, volume: volume, gain: settings.gain}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil, ErrDisposed
	}
	ctrl.Paused = settings.paused || m.paused
	m.voicesMu.Lock()
	m.voices[voice] = struct{}{}
	m.voicesMu.Unlock()
	m.mixer.Add(beep.Seq(ctrl, beep.Callback(func() {
		m.removeVoice(voice)
	})))
	m.mu.Unlock()

	m.log.Debug("voice started",
		log.String("src", clip.Source),
		log.Int("loop", settings.loop),
	)
	return voice, nil
}

// PauseAll pauses every live voice. Voices started while paused stay paused
// until ResumeAll or their own Resume.
func (m *Manager) PauseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	m.eachVoiceLocked(func(v *Voice) { v.ctrl.Paused = true })
}

func (m *Manager) ResumeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	m.eachVoiceLocked(func(v *Voice) { v.ctrl.Paused = false })
}

// SetMasterGain scales the whole mix. 1 is unity, 0 silences.
func (m *Manager) SetMasterGain(gain float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterGain = gain
	applyGain(m.master, gain)
}

func (m *Manager) MasterGain() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.masterGain
}

func (m *Manager) ActiveVoices() int {
	m.voicesMu.Lock()
	defer m.voicesMu.Unlock()
	return len(m.voices)
}

// Stream fills samples with the current mix. The mixer emits silence when
// no voices play, so a pump loop never starves. Returns ok=false only after
// Dispose.
func (m *Manager) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return 0, false
	}
	return m.master.Stream(samples)
}

func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.mixer.Clear()
	m.voicesMu.Lock()
	dropped := len(m.voices)
	m.voices = make(map[*Voice]struct{})
	m.voicesMu.Unlock()
	m.mu.Unlock()

	m.log.Debug("audio disposed", log.Int("voices", dropped))
}

// eachVoiceLocked runs fn for every voice. Caller holds mu.
func (m *Manager) eachVoiceLocked(fn func(*Voice)) {
	m.voicesMu.Lock()
	defer m.voicesMu.Unlock()
	for v := range m.voices {
		fn(v)
	}
}

// removeVoice may run inside Stream (via the drain callback), which already
// holds mu, so it touches only voicesMu.
func (m *Manager) removeVoice(v *Voice) {
	m.voicesMu.Lock()
	delete(m.voices, v)
	m.voicesMu.Unlock()
}

func applyGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Volume = 0
		v.Silent = true
		return
	}
	v.Volume = math.Log2(gain)
	v.Silent = false
}
