package root

// GetOutput carries the greeting as a raw text/plain body.
type GetOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
