// Package typetable defines the ordered registry of concrete types that
// drives generic-block expansion.
//
// Each entry pairs a runtime tag (the symbolic constant or integer the
// dispatch expression evaluates to) with the concrete C spelling that
// replaces the generic placeholder. Entry order is declaration order and
// is emitted verbatim into the generated switch, so it must be stable:
// regenerating from the same table yields byte-identical dispatch code.
package typetable

import (
	"fmt"
	"strings"
)

// Entry is one (tag, spelling) pair.
type Entry struct {
	// Tag is the case label, emitted verbatim (e.g. "PDL_L" or "3").
	Tag string `yaml:"tag"`

	// Spelling is the concrete type text substituted for the
	// placeholder (e.g. "unsigned char").
	Spelling string `yaml:"spelling"`
}

// Table is an ordered, immutable set of entries. Construct with New or
// Default; a Table is safe to share across concurrent expansions.
type Table struct {
	entries []Entry
}

// New builds a table from entries, rejecting duplicate tags and empty
// fields. An empty entry list is permitted: expansion then produces a
// dispatch with only the default case.
func New(entries []Entry) (*Table, error) {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Tag) == "" {
			return nil, fmt.Errorf("type entry %d: tag is empty", i)
		}
		if strings.TrimSpace(e.Spelling) == "" {
			return nil, fmt.Errorf("type entry %d (%s): spelling is empty", i, e.Tag)
		}
		if seen[e.Tag] {
			return nil, fmt.Errorf("type entry %d: duplicate tag %q", i, e.Tag)
		}
		seen[e.Tag] = true
	}
	t := &Table{entries: make([]Entry, len(entries))}
	copy(t.entries, entries)
	return t, nil
}

// Default returns the built-in numeric type table, in its fixed
// declaration order.
func Default() *Table {
	return &Table{entries: []Entry{
		{Tag: "PDL_B", Spelling: "unsigned char"},
		{Tag: "PDL_S", Spelling: "short"},
		{Tag: "PDL_US", Spelling: "unsigned short"},
		{Tag: "PDL_L", Spelling: "long"},
		{Tag: "PDL_F", Spelling: "float"},
		{Tag: "PDL_D", Spelling: "double"},
	}}
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the entries in declaration order. The returned slice
// is shared; callers must not mutate it.
func (t *Table) Entries() []Entry { return t.entries }

// Fingerprint serializes the table for cache keying. Two tables with
// the same entries in the same order have equal fingerprints.
func (t *Table) Fingerprint() string {
	var b strings.Builder
	for _, e := range t.entries {
		b.WriteString(e.Tag)
		b.WriteByte('=')
		b.WriteString(e.Spelling)
		b.WriteByte('\n')
	}
	return b.String()
}
