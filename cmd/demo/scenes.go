package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/glint3d/glint/internal/core/assets"
	"github.com/glint3d/glint/internal/core/engine"
	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/scene"
	"github.com/glint3d/glint/internal/core/systems/network"
	"github.com/glint3d/glint/internal/core/systems/physics"
	"github.com/glint3d/glint/internal/core/systems/script"
)

// loadingScene warms the asset caches in the background, then hands off to
// the game scene. A preload failure is frame-fatal so a broken manifest
// halts the engine instead of limping into the game.
type loadingScene struct {
	scene.Base
	eng      *engine.Engine
	manifest string

	mu      sync.Mutex
	started bool
	done    bool
	failed  error
}

func newLoadingScene(eng *engine.Engine, manifest string) *loadingScene {
	return &loadingScene{eng: eng, manifest: manifest}
}

func (s *loadingScene) OnActivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.preload()
}

func (s *loadingScene) preload() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var err error
	if s.manifest != "" {
		var man *assets.Manifest
		if man, err = assets.LoadManifest(s.manifest); err == nil {
			err = s.eng.Assets().Preload(ctx, man)
		}
	}

	s.mu.Lock()
	s.done = true
	s.failed = err
	s.mu.Unlock()
}

func (s *loadingScene) Update(float64) error {
	s.mu.Lock()
	done, failed := s.done, s.failed
	s.mu.Unlock()
	if !done {
		return nil
	}
	if failed != nil {
		return fmt.Errorf("preload: %w", failed)
	}
	s.eng.Scenes().Activate("game")
	return nil
}

// gameScene drops a ball into the physics space and logs a status line every
// couple of seconds: ball height from the physics system, spin angle from
// the script system. Escape quits.
type gameScene struct {
	scene.Base
	eng  *engine.Engine
	log  *log.Logger
	phys *physics.System
	spin *script.System
	net  *network.System

	quitCh   chan struct{}
	quitOnce sync.Once

	ball    *cp.Body
	shape   *cp.Shape
	elapsed float64
}

func newGameScene(eng *engine.Engine, phys *physics.System, spin *script.System, net *network.System, quitCh chan struct{}) *gameScene {
	return &gameScene{
		eng:    eng,
		log:    eng.Logger(),
		phys:   phys,
		spin:   spin,
		net:    net,
		quitCh: quitCh,
	}
}

func (s *gameScene) OnActivate() {
	body := cp.NewBody(1, cp.MomentForCircle(1, 0, 0.5, cp.Vector{}))
	body.SetPosition(cp.Vector{X: 0, Y: 40})
	shape := cp.NewCircle(body, 0.5, cp.Vector{})
	shape.SetElasticity(0.7)
	shape.SetFriction(0.4)
	s.ball = s.phys.AddBody(body)
	s.shape = s.phys.AddShape(shape)

	ground := cp.NewSegment(s.phys.StaticBody(), cp.Vector{X: -50}, cp.Vector{X: 50}, 0)
	ground.SetElasticity(0.6)
	s.phys.AddShape(ground)

	go s.warmTextures()
	s.log.Info("game scene active")
}

// warmTextures pulls the demo texture through the asset pipeline. Missing
// files just log a warning; the demo runs fine without them.
func (s *gameScene) warmTextures() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.eng.Assets().LoadTexture(ctx, "textures/crate.png", assets.WithPriority(assets.PriorityHigh)); err != nil {
		s.log.Warn("demo texture unavailable", log.Error(err))
	}
}

func (s *gameScene) OnDeactivate() {
	if s.shape != nil {
		s.phys.RemoveShape(s.shape)
		s.shape = nil
	}
	if s.ball != nil {
		s.phys.RemoveBody(s.ball)
		s.ball = nil
	}
}

func (s *gameScene) Update(dt float64) error {
	if s.eng.Input().JustPressed("Escape") {
		s.quitOnce.Do(func() { close(s.quitCh) })
		return nil
	}

	s.elapsed += dt
	if s.elapsed < 2 {
		return nil
	}
	s.elapsed = 0

	angle := 0.0
	if state, ok := s.spin.Var("state").(map[string]any); ok {
		angle, _ = state["angle"].(float64)
	}
	s.log.Info("demo status",
		log.Float64("ball_height", s.ball.Position().Y),
		log.Float64("spin_angle", angle),
		log.Uint64("frame", s.eng.Frame()),
	)

	if s.net != nil && s.net.Connected() {
		s.net.Queue([]byte("ping"))
	}
	return nil
}
