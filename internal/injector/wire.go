//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/glint3d/glint/internal/core/engine"
)

// BuildEngine assembles an engine from a config file path. An empty or
// missing path builds with defaults.
func BuildEngine(configPath string) (*engine.Engine, error) {
	wire.Build(provideConfig, provideEngine)
	return nil, nil
}
