package transform

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/adapters/livereload"
	"go.trai.ch/sitepipe/internal/adapters/shell"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// NodeID is the unique identifier for the action factory Graft node.
const NodeID graft.ID = "adapter.transform"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ResolverNodeID,
			fs.CleanerNodeID,
			shell.NodeID,
			shell.TTYNodeID,
			livereload.HubNodeID,
		},
		Run: func(ctx context.Context) (*Factory, error) {
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			cleaner, err := graft.Dep[*fs.Cleaner](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			terminal, err := graft.Dep[*shell.Executor](ctx)
			if err != nil {
				return nil, err
			}
			hub, err := graft.Dep[*livereload.Hub](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(Deps{
				Resolver: resolver,
				Executor: executor,
				Terminal: terminal,
				Cleaner:  cleaner,
				Reloader: hub,
			}), nil
		},
	})
}
