package ports

import "go.trai.ch/sitepipe/internal/core/domain"

// InputResolver defines the interface for resolving input files.
//
//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go
type InputResolver interface {
	// ResolveInputs expands the glob patterns relative to root, removes every
	// match of the exclude patterns and returns the files in lexical order.
	// A pattern that matches nothing is not an error.
	ResolveInputs(patterns, excludes []string, root string) ([]domain.InputFile, error)
}
