package livereload

import (
	"context"

	"github.com/grindlemire/graft"
)

// HubNodeID is the unique identifier for the live-reload hub Graft node.
const HubNodeID graft.ID = "adapter.livereload.hub"

func init() {
	graft.Register(graft.Node[*Hub]{
		ID:        HubNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Hub, error) {
			return NewHub(), nil
		},
	})
}
