package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glint3d/glint/internal/core/assets"
	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/systems/network"
	"github.com/glint3d/glint/internal/core/systems/physics"
	"github.com/glint3d/glint/internal/core/systems/script"
	"github.com/glint3d/glint/internal/injector"
)

// spinScript drives the demo's rotation state. The game scene reads the
// angle back every status tick.
const spinScript = `
state.angle += dt * 0.6
if state.angle > 6.283185 {
	state.angle -= 6.283185
}
state.frames = frame
`

func main() {
	configPath := flag.String("config", "engine.yaml", "engine config file")
	manifestPath := flag.String("manifest", "", "asset manifest to preload")
	addr := flag.String("addr", "", "multiplayer endpoint (ws:// or wss://), empty for offline")
	flag.Parse()

	eng, err := injector.BuildEngine(*configPath)
	if err != nil {
		fmt.Println("Error building engine:", err)
		os.Exit(1)
	}
	defer eng.Dispose()

	logger := eng.Logger()

	phys := physics.New(logger)
	spin := script.New(logger, "spin", []byte(spinScript),
		script.WithGlobal("state", map[string]any{"angle": 0.0, "frames": int64(0)}))
	eng.Systems().Register(phys)
	eng.Systems().Register(spin)

	var net *network.System
	if *addr != "" {
		net = network.New(logger, network.NewWebSocketTransport(), *addr,
			func(data []byte) {
				logger.Debug("multiplayer message", log.Int("bytes", len(data)))
			})
		eng.Systems().Register(net)
	}

	quitCh := make(chan struct{})
	eng.Scenes().Register("loading", newLoadingScene(eng, *manifestPath))
	eng.Scenes().Register("game", newGameScene(eng, phys, spin, net, quitCh))
	eng.Scenes().Activate("loading")

	// Debug builds watch the asset root and reload edited files in place.
	if eng.DebugEnabled() {
		watcher, err := assets.NewWatcher(logger, eng.Assets(), eng.Config().AssetRoot)
		if err != nil {
			logger.Warn("asset watcher unavailable", log.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	eng.Start()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stopCh:
		logger.Info("signal received, shutting down")
	case <-quitCh:
		logger.Info("quit requested")
	case <-eng.Done():
		if err := eng.Err(); err != nil {
			fmt.Println("Engine halted:", err)
		}
	}
	eng.Stop()
}
