package ports

// Reloader pushes change notifications to connected browsers.
//
//go:generate mockgen -source=reloader.go -destination=mocks/mock_reloader.go -package=mocks
type Reloader interface {
	// Reload asks every client to reload the page.
	Reload()
	// Inject asks every client to swap the given stylesheets in place.
	Inject(paths []string)
}
