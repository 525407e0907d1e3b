package domain

// Project is the fully loaded build definition of a site.
type Project struct {
	Config    BuildConfig
	Graph     *Graph
	Watches   []WatchRule
	Pipelines []Pipeline
}

// Pipeline returns the pipeline registered under name.
func (p *Project) Pipeline(name string) (Pipeline, bool) {
	for _, pl := range p.Pipelines {
		if pl.Name == name {
			return pl, true
		}
	}
	return Pipeline{}, false
}
