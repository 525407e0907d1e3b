package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sitepipe/internal/core/ports"
)

const (
	// NodeID is the executor used for tools whose output is parsed.
	NodeID graft.ID = "adapter.executor"
	// TTYNodeID is the executor used for user commands, attached to a pty.
	TTYNodeID graft.ID = "adapter.executor.tty"
)

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{},
		Run: func(_ context.Context) (ports.Executor, error) {
			return NewExecutor(), nil
		},
	})

	graft.Register(graft.Node[*Executor]{
		ID:        TTYNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{},
		Run: func(_ context.Context) (*Executor, error) {
			return NewExecutor(WithPTY()), nil
		},
	})
}
