package pipeline

import "github.com/PDLPorters/genpp/internal/diagnostics"

// Source is one named input, already split into lines. Name is used in
// diagnostics only; it is a file path or "<stdin>".
type Source struct {
	Name  string
	Lines []string
}

// Context is the shared state threaded through the pipeline. Inputs are
// read-only after construction; Output is owned by whichever stage
// produces it (expander, or cache lookup on a hit).
type Context struct {
	Sources []Source

	Output    []string
	FromCache bool
	CacheKey  string

	Errors []*diagnostics.Diagnostic
}

// NewContext creates a context over the given sources, processed as one
// logical concatenated stream in slice order.
func NewContext(sources []Source) *Context {
	return &Context{Sources: sources}
}

// Failed reports whether any stage recorded an error.
func (c *Context) Failed() bool {
	return len(c.Errors) > 0
}
