package cache

import (
	"github.com/PDLPorters/genpp/internal/expander"
	"github.com/PDLPorters/genpp/internal/pipeline"
	"github.com/PDLPorters/genpp/internal/typetable"
)

// LookupProcessor runs before the expander. On a hit it sets the
// context output and FromCache so the expander skips the stream.
// Lookup failures are swallowed: the run falls through to expansion.
type LookupProcessor struct {
	Store *Store
	Table *typetable.Table
	Opts  expander.Options
}

func (p *LookupProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() || p.Store == nil {
		return ctx
	}

	ctx.CacheKey = Key(ctx.Sources, p.Table, p.Opts)
	lines, ok, err := p.Store.Lookup(ctx.CacheKey)
	if err != nil || !ok {
		return ctx
	}
	ctx.Output = lines
	ctx.FromCache = true
	return ctx
}

// StoreProcessor runs after the expander and stores fresh output.
// Never stores on error and never overwrites a hit. Store failures are
// ignored; the next run simply re-expands.
type StoreProcessor struct {
	Store *Store
}

func (p *StoreProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() || ctx.FromCache || p.Store == nil || ctx.CacheKey == "" {
		return ctx
	}
	_ = p.Store.Put(ctx.CacheKey, ctx.Output)
	return ctx
}
