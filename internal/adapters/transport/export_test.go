package transport

// SetMaxBodySize overrides the size limit of fetched resources.
func (t *Transport) SetMaxBodySize(n int64) {
	t.maxBody = n
}
