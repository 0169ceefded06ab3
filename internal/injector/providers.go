// Package injector assembles engines at the application boundary. Core
// packages stay free of globals; the shared-instance accessor lives here so
// callers that want one well-known engine have a single place to get it.
package injector

import (
	"errors"
	"os"
	"sync"

	"github.com/glint3d/glint/internal/core/engine"
)

func provideConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.DefaultConfig(), nil
	}
	cfg, err := engine.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return engine.DefaultConfig(), nil
	}
	return cfg, err
}

func provideEngine(cfg engine.Config) (*engine.Engine, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	setShared(eng)
	return eng, nil
}

var (
	sharedMu sync.Mutex
	shared   *engine.Engine
)

func setShared(eng *engine.Engine) {
	sharedMu.Lock()
	shared = eng
	sharedMu.Unlock()
}

// Shared returns the most recently built engine, constructing a
// default-configured one on first use.
func Shared() (*engine.Engine, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		eng, err := engine.New(engine.DefaultConfig())
		if err != nil {
			return nil, err
		}
		shared = eng
	}
	return shared, nil
}
