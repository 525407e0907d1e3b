package fs

// WithRemove replaces the function used to delete single paths.
func (c *Cleaner) WithRemove(remove func(path string) error) *Cleaner {
	c.remove = remove
	return c
}
