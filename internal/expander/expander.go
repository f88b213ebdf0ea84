// Package expander implements the generic-block expansion engine.
//
// The engine is a two-state line scanner. Outside a generic block every
// line passes through verbatim. A GENERICLOOP(expr) marker switches to
// capture mode; lines up to the matching ENDGENERICLOOP are buffered,
// then replayed once per type-table entry with the placeholder token
// substituted, wrapped in a C switch over expr. Markers may share a
// line with ordinary code: text after the open marker is the first body
// line, text before the close marker is the last, and text after the
// close marker resumes passthrough on the spot.
package expander

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PDLPorters/genpp/internal/config"
	"github.com/PDLPorters/genpp/internal/pipeline"
	"github.com/PDLPorters/genpp/internal/typetable"
)

// Options configure the parts of expansion that are not the type table.
// Zero-value fields fall back to the config package defaults.
type Options struct {
	// SubstMarker and SubstValue drive the stream-wide literal
	// substitution applied to every line before block detection.
	SubstMarker string
	SubstValue  string

	// OnFail is the function called from the generated default case.
	OnFail string
}

// FromProfile builds Options from a loaded profile.
func FromProfile(p *typetable.Profile) Options {
	return Options{
		SubstMarker: p.Substitution.Marker,
		SubstValue:  p.Substitution.Value,
		OnFail:      p.Dispatch.OnFail,
	}
}

type state int

const (
	scanning state = iota // outside any generic block
	capturing             // buffering body lines of an open block
)

// Expander owns all scan state for one stream. It is not safe for
// concurrent use; run one Expander per stream and share only the table.
type Expander struct {
	table *typetable.Table
	opts  Options

	openRe        *regexp.Regexp
	closeRe       *regexp.Regexp
	placeholderRe *regexp.Regexp

	st       state
	indent   string
	loopExpr string
	openFile string
	openLine int
	body     []string
	out      []string
}

// New creates an Expander over the given table.
func New(table *typetable.Table, opts Options) *Expander {
	if opts.SubstMarker == "" {
		opts.SubstMarker = config.DefaultSubstMarker
	}
	if opts.SubstValue == "" {
		opts.SubstValue = config.DefaultSubstValue
	}
	if opts.OnFail == "" {
		opts.OnFail = config.DefaultFailCall
	}
	return &Expander{
		table: table,
		opts:  opts,
		openRe: regexp.MustCompile(
			`^(.*?)\b` + config.OpenKeyword + `\s*\(([^)]*)\)(?:\s*;)?(.*)$`),
		closeRe: regexp.MustCompile(
			`^(.*?)\b` + config.CloseKeyword + `\b(?:\s*;)?(.*)$`),
		placeholderRe: regexp.MustCompile(
			`\b` + regexp.QuoteMeta(config.PlaceholderToken) + `\b`),
	}
}

// Expand processes the sources as one concatenated stream and returns
// the output lines. On error no output is returned; callers must treat
// the stream as failed, not partially expanded. The Expander is reset
// at entry, so one instance may run successive streams.
func (e *Expander) Expand(sources []pipeline.Source) ([]string, error) {
	e.reset()
	for _, src := range sources {
		for i, line := range src.Lines {
			if err := e.feed(src.Name, i+1, line); err != nil {
				e.reset()
				return nil, err
			}
		}
	}
	if e.st != scanning {
		err := &BlockError{Kind: UnterminatedBlock, File: e.openFile, Line: e.openLine}
		e.reset()
		return nil, err
	}
	out := e.out
	e.reset()
	return out, nil
}

func (e *Expander) reset() {
	e.st = scanning
	e.indent = ""
	e.loopExpr = ""
	e.openFile = ""
	e.openLine = 0
	e.body = nil
	e.out = nil
}

// feed consumes one raw input line. The incidental substitution runs
// first, then the segment loop re-scans any text remaining after a
// marker so that open and close may share a line.
func (e *Expander) feed(file string, lineNo int, line string) error {
	segment := strings.ReplaceAll(line, e.opts.SubstMarker, e.opts.SubstValue)
	for {
		om := e.openRe.FindStringSubmatchIndex(segment)
		cm := e.closeRe.FindStringSubmatchIndex(segment)

		switch e.st {
		case scanning:
			if cm != nil && (om == nil || keywordStart(cm) < keywordStart(om)) {
				return &BlockError{Kind: UnexpectedClose, File: file, Line: lineNo}
			}
			if om == nil {
				e.out = append(e.out, segment)
				return nil
			}
			e.indent = segment[om[2]:om[3]]
			e.loopExpr = strings.TrimSpace(segment[om[4]:om[5]])
			e.openFile = file
			e.openLine = lineNo
			e.body = nil
			e.st = capturing
			rest := segment[om[6]:om[7]]
			if strings.TrimSpace(rest) == "" {
				return nil
			}
			segment = rest

		case capturing:
			if om != nil && (cm == nil || keywordStart(om) < keywordStart(cm)) {
				return &BlockError{Kind: NestedBlock, File: file, Line: lineNo}
			}
			if cm == nil {
				e.body = append(e.body, segment)
				return nil
			}
			if before := segment[cm[2]:cm[3]]; strings.TrimSpace(before) != "" {
				e.body = append(e.body, before)
			}
			e.emitDispatch()
			e.st = scanning
			after := segment[cm[4]:cm[5]]
			if strings.TrimSpace(after) == "" {
				return nil
			}
			segment = after
		}
	}
}

// keywordStart returns the offset of the marker keyword within the
// segment: the end of the lazy prefix group.
func keywordStart(idx []int) int { return idx[3] }

// emitDispatch replaces the captured block with its switch construct.
// The opening line's indentation prefixes every generated structural
// line; body lines keep their own original indentation.
func (e *Expander) emitDispatch() {
	e.out = append(e.out, e.indent+"switch ("+e.loopExpr+") {")
	for _, entry := range e.table.Entries() {
		e.out = append(e.out, e.indent+"case "+entry.Tag+": {")
		for _, bl := range e.body {
			e.out = append(e.out, e.placeholderRe.ReplaceAllLiteralString(bl, entry.Spelling))
		}
		e.out = append(e.out, e.indent+"  } break;")
	}
	// The default case is mandatory even for a table covering every
	// tag the host defines: the dispatch value is runtime data.
	e.out = append(e.out, e.indent+"default:")
	e.out = append(e.out, fmt.Sprintf("%s  %s(\"genpp: unhandled type tag %%d\", (int)(%s));",
		e.indent, e.opts.OnFail, e.loopExpr))
	e.out = append(e.out, e.indent+"}")
	e.body = nil
}
