package pipeline

// Processor is a single processing stage. Stages receive the shared
// context, may mutate it, and return it for the next stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages are responsible for their own
// guards (skip on prior errors, skip on cache hit); Run itself never
// short-circuits, so every stage sees the final error set.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
