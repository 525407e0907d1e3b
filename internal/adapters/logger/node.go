package logger

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/sitepipe/internal/adapters/detector"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			lg := &Logger{output: os.Stderr}
			format := detector.ResolveLogFormat(detector.DetectLogFormat(), os.Getenv(detector.EnvLogFormat))
			lg.SetJSON(format == detector.FormatJSON)
			return lg, nil
		},
	})
}
