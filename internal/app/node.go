package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sitepipe/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/fs"         //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/linear"     //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/livereload" //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/telemetry"  //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/transform"  //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/adapters/watcher"    //nolint:depguard // Wired in app layer
	"go.trai.ch/sitepipe/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			transform.NodeID,
			logger.NodeID,
			linear.NodeID,
			telemetry.TracerNodeID,
			watcher.NodeID,
			livereload.HubNodeID,
			fs.HasherNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	factory, err := graft.Dep[*transform.Factory](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := graft.Dep[ports.Renderer](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	hub, err := graft.Dep[*livereload.Hub](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[*fs.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, factory, log, renderer, tracer, w, hub).WithDigest(hasher), nil
}
