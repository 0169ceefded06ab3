// Package engine wires the managers together and drives the frame loop.
// Construction order is fixed: logger, renderer, scenes (bound back to the
// renderer), assets, input, audio, systems. Collaborators arrive through
// options so shells and tests can swap the boundaries.
package engine

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/glint3d/glint/internal/core/assets"
	"github.com/glint3d/glint/internal/core/audio"
	"github.com/glint3d/glint/internal/core/input"
	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/render"
	"github.com/glint3d/glint/internal/core/scene"
	"github.com/glint3d/glint/internal/core/system"
)

// Disposable releases resources. Managers, scenes, systems, and
// resource-bearing asset payloads all satisfy it.
type Disposable interface {
	Dispose()
}

// Observer runs inside the frame, before or after the update phase.
type Observer func(dt float64)

type options struct {
	logger    *log.Logger
	backend   render.Backend
	fetcher   assets.Fetcher
	clock     assets.Clock
	scheduler Scheduler
}

type Option func(*options)

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithBackend(backend render.Backend) Option {
	return func(o *options) { o.backend = backend }
}

func WithFetcher(fetcher assets.Fetcher) Option {
	return func(o *options) { o.fetcher = fetcher }
}

func WithClock(clock assets.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithScheduler(scheduler Scheduler) Option {
	return func(o *options) { o.scheduler = scheduler }
}

// Engine owns the managers and the frame loop. One frame: clamp dt,
// pre-update observers, systems, input, scenes, post-update observers,
// render. The first error halts the loop for good.
type Engine struct {
	log *log.Logger
	cfg Config

	renderer *render.Manager
	scenes   scene.Manager
	assets   *assets.Manager
	input    *input.Manager
	audio    *audio.Manager
	systems  system.Manager

	scheduler Scheduler

	running  atomic.Bool
	disposed atomic.Bool
	frame    atomic.Uint64
	lastTick time.Time

	obsMu      sync.Mutex
	preUpdate  []Observer
	postUpdate []Observer

	errMu    sync.Mutex
	err      error
	doneOnce sync.Once
	done     chan struct{}
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		if cfg.LogFormat == "json" {
			logger = log.NewJSON(level)
		} else {
			logger = log.New(level)
		}
	}

	backend := o.backend
	if backend == nil {
		backend = render.NullBackend{}
	}
	renderer := render.NewManager(logger, backend, cfg.Width, cfg.Height)
	scenes := scene.NewManager(logger, cfg.Width, cfg.Height)
	renderer.BindScenes(scenes)

	fetcher := o.fetcher
	if fetcher == nil {
		remote := assets.NewHTTPFetcher(cfg.AssetTimeout())
		remote.BaseURL = cfg.AssetBaseURL
		fetcher = assets.NewRouterFetcher(remote, assets.NewFSFetcher(os.DirFS(cfg.AssetRoot)))
	}
	assetOpts := []assets.Option{
		assets.WithFetcher(fetcher),
		assets.WithConcurrency(cfg.AssetConcurrency),
	}
	if o.clock != nil {
		assetOpts = append(assetOpts, assets.WithClock(o.clock))
	}

	scheduler := o.scheduler
	if scheduler == nil {
		scheduler = newDefaultScheduler(cfg.TargetFPS)
	}

	e := &Engine{
		log:       logger,
		cfg:       cfg,
		renderer:  renderer,
		scenes:    scenes,
		assets:    assets.NewManager(logger, assetOpts...),
		input:     input.NewManager(logger),
		audio:     audio.NewManager(logger, beep.SampleRate(cfg.AudioSampleRate)),
		systems:   system.NewManager(logger),
		scheduler: scheduler,
		done:      make(chan struct{}),
	}

	logger.Info("engine constructed",
		log.Int("width", cfg.Width),
		log.Int("height", cfg.Height),
		log.Int("target_fps", cfg.TargetFPS),
		log.Bool("debug", cfg.Debug),
	)
	return e, nil
}

// Start begins frame scheduling. Safe to call repeatedly; a disposed or
// halted engine stays down.
func (e *Engine) Start() {
	if e.disposed.Load() {
		e.log.Warn("start ignored, engine disposed")
		return
	}
	if e.Err() != nil {
		e.log.Warn("start ignored, engine halted", log.ErrorWithKey("cause", e.Err()))
		return
	}
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	e.lastTick = time.Time{}
	e.scheduler.Start(e.step)
	e.log.Info("engine started")
}

// Stop halts frame scheduling only. Loads, sounds, and registries stay
// live; Start resumes.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	e.scheduler.Stop()
	e.log.Info("engine stopped", log.Uint64("frames", e.frame.Load()))
}

func (e *Engine) step(now time.Time) {
	if !e.running.Load() {
		return
	}

	var dt time.Duration
	if !e.lastTick.IsZero() {
		dt = now.Sub(e.lastTick)
	}
	e.lastTick = now
	if limit := e.cfg.MaxDelta(); dt > limit {
		dt = limit
	}
	if dt < 0 {
		dt = 0
	}
	dtSec := dt.Seconds()
	frame := e.frame.Add(1)

	for _, fn := range e.snapshotObservers(&e.preUpdate) {
		fn(dtSec)
	}
	if err := e.systems.Update(dtSec); err != nil {
		e.halt(frame, err)
		return
	}
	e.input.Update()
	if err := e.scenes.Update(dtSec); err != nil {
		e.halt(frame, err)
		return
	}
	for _, fn := range e.snapshotObservers(&e.postUpdate) {
		fn(dtSec)
	}
	if err := e.renderer.Render(dtSec); err != nil {
		e.halt(frame, err)
	}
}

// halt records the first fatal error, closes Done, and stops scheduling.
func (e *Engine) halt(frame uint64, err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()

	e.log.Error("frame loop halted",
		log.Uint64("frame", frame),
		log.Error(err),
	)
	e.doneOnce.Do(func() { close(e.done) })
	e.Stop()
}

// Err reports the error that halted the loop, if any.
func (e *Engine) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// Done closes when the loop halts fatally or the engine is disposed.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) OnPreUpdate(fn Observer) {
	if fn == nil {
		return
	}
	e.obsMu.Lock()
	e.preUpdate = append(e.preUpdate, fn)
	e.obsMu.Unlock()
}

func (e *Engine) OnPostUpdate(fn Observer) {
	if fn == nil {
		return
	}
	e.obsMu.Lock()
	e.postUpdate = append(e.postUpdate, fn)
	e.obsMu.Unlock()
}

func (e *Engine) snapshotObservers(list *[]Observer) []Observer {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	if len(*list) == 0 {
		return nil
	}
	out := make([]Observer, len(*list))
	copy(out, *list)
	return out
}

// HandleResize forwards a viewport change to the renderer and the scenes.
func (e *Engine) HandleResize(width, height int) {
	e.renderer.HandleResize(width, height)
	e.scenes.HandleResize(width, height)
}

func (e *Engine) Scenes() scene.Manager { return e.scenes }

func (e *Engine) Systems() system.Manager { return e.systems }

func (e *Engine) Assets() *assets.Manager { return e.assets }

func (e *Engine) Input() *input.Manager { return e.input }

func (e *Engine) Audio() *audio.Manager { return e.audio }

func (e *Engine) Renderer() *render.Manager { return e.renderer }

func (e *Engine) Logger() *log.Logger { return e.log }

// Config returns a copy; the engine's own copy never changes.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Frame() uint64 { return e.frame.Load() }

func (e *Engine) Running() bool { return e.running.Load() }

// Render-affecting settings, fixed at construction.

func (e *Engine) PixelRatio() float64 { return e.cfg.PixelRatio }

func (e *Engine) ShadowsEnabled() bool { return e.cfg.Shadows }

func (e *Engine) AntialiasEnabled() bool { return e.cfg.Antialias }

func (e *Engine) DebugEnabled() bool { return e.cfg.Debug }

// Dispose stops the loop and tears the managers down in a fixed order:
// renderer, scenes, assets, input, audio, systems. Idempotent.
func (e *Engine) Dispose() {
	if !e.disposed.CompareAndSwap(false, true) {
		return
	}
	e.Stop()

	e.renderer.Dispose()
	e.scenes.Dispose()
	e.assets.Dispose()
	e.input.Dispose()
	e.audio.Dispose()
	e.systems.Dispose()

	e.obsMu.Lock()
	e.preUpdate = nil
	e.postUpdate = nil
	e.obsMu.Unlock()

	e.doneOnce.Do(func() { close(e.done) })
	e.log.Info("engine disposed")
	e.log.Sync()
}
