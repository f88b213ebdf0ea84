package expander

import (
	"errors"

	"github.com/PDLPorters/genpp/internal/diagnostics"
	"github.com/PDLPorters/genpp/internal/pipeline"
	"github.com/PDLPorters/genpp/internal/typetable"
)

// Processor runs expansion as a pipeline stage.
type Processor struct {
	Table *typetable.Table
	Opts  Options
}

func NewProcessor(table *typetable.Table, opts Options) *Processor {
	return &Processor{Table: table, Opts: opts}
}

func (p *Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() || ctx.FromCache {
		return ctx
	}

	out, err := New(p.Table, p.Opts).Expand(ctx.Sources)
	if err != nil {
		var be *BlockError
		if errors.As(err, &be) {
			ctx.Errors = append(ctx.Errors,
				diagnostics.NewError(codeFor(be.Kind), be.File, be.Line, "%s", be.Kind.Message()))
		} else {
			ctx.Errors = append(ctx.Errors,
				diagnostics.NewError(diagnostics.ErrG003, "", 0, "expansion failed: %s", err))
		}
		return ctx
	}

	ctx.Output = out
	return ctx
}

func codeFor(k BlockErrorKind) string {
	switch k {
	case NestedBlock:
		return diagnostics.ErrG001
	case UnexpectedClose:
		return diagnostics.ErrG002
	default:
		return diagnostics.ErrG003
	}
}
