package expander

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/PDLPorters/genpp/internal/pipeline"
	"github.com/PDLPorters/genpp/internal/typetable"
)

func mustTable(t *testing.T, entries ...typetable.Entry) *typetable.Table {
	t.Helper()
	table, err := typetable.New(entries)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func expandLines(t *testing.T, table *typetable.Table, opts Options, lines ...string) ([]string, error) {
	t.Helper()
	return New(table, opts).Expand([]pipeline.Source{{Name: "test.g.c", Lines: lines}})
}

func TestExpand_PassthroughIdentity(t *testing.T) {
	input := []string{
		"#include <stdio.h>",
		"",
		"/* generic mentioned outside a block is not substituted */",
		"int generic_count = 0;",
		"    indented line   ",
		"}",
	}
	out, err := expandLines(t, typetable.Default(), Options{}, input...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out, input) {
		t.Errorf("passthrough changed input:\n got %q\nwant %q", out, input)
	}
}

func TestExpand_ExampleScenario(t *testing.T) {
	table := mustTable(t,
		typetable.Entry{Tag: "1", Spelling: "long"},
		typetable.Entry{Tag: "2", Spelling: "float"},
	)
	out, err := expandLines(t, table, Options{},
		"  GENERICLOOP(x.type)",
		"  generic *p = x.data;",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"  switch (x.type) {",
		"  case 1: {",
		"  long *p = x.data;",
		"    } break;",
		"  case 2: {",
		"  float *p = x.data;",
		"    } break;",
		"  default:",
		`    barf("genpp: unhandled type tag %d", (int)(x.type));`,
		"  }",
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("output mismatch:\n got %q\nwant %q", out, want)
	}
}

func TestExpand_CaseCountMatchesTable(t *testing.T) {
	table := typetable.Default()
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(t)",
		"generic v;",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases, defaults := 0, 0
	for _, line := range out {
		if strings.HasPrefix(line, "case ") {
			cases++
		}
		if line == "default:" {
			defaults++
		}
	}
	if cases != table.Len() {
		t.Errorf("case labels = %d, want %d", cases, table.Len())
	}
	if defaults != 1 {
		t.Errorf("default cases = %d, want 1", defaults)
	}
}

func TestExpand_SubstitutionTotality(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "PDL_D", Spelling: "double"})
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(t)",
		"generic a; generic b = (generic)c;",
		"int generically = 0; my_generic_fn();",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leftover := regexp.MustCompile(`\bgeneric\b`)
	for _, line := range out {
		if leftover.MatchString(line) {
			t.Errorf("placeholder survived substitution: %q", line)
		}
	}
	joined := strings.Join(out, "\n")
	if !strings.Contains(joined, "double a; double b = (double)c;") {
		t.Errorf("whole-word occurrences not all replaced:\n%s", joined)
	}
	// Substring matches must be untouched.
	if !strings.Contains(joined, "int generically = 0; my_generic_fn();") {
		t.Errorf("substring tokens were modified:\n%s", joined)
	}
}

func TestExpand_OrderPreservation(t *testing.T) {
	table := mustTable(t,
		typetable.Entry{Tag: "PDL_D", Spelling: "double"},
		typetable.Entry{Tag: "PDL_B", Spelling: "unsigned char"},
		typetable.Entry{Tag: "PDL_L", Spelling: "long"},
	)
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(t)",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var labels []string
	for _, line := range out {
		if strings.HasPrefix(line, "case ") {
			labels = append(labels, strings.TrimSuffix(strings.TrimPrefix(line, "case "), ": {"))
		}
	}
	want := []string{"PDL_D", "PDL_B", "PDL_L"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("case order = %v, want %v", labels, want)
	}
}

func TestExpand_InlineMarkerSplit(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "1", Spelling: "long"})
	out, err := expandLines(t, table, Options{},
		"  GENERICLOOP(v.tag) generic t = 0;",
		"done(); ENDGENERICLOOP cleanup();",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(out, "\n")
	if !strings.Contains(joined, "long t = 0;") {
		t.Errorf("text after open marker missing from case body:\n%s", joined)
	}
	if !strings.Contains(joined, "done();") {
		t.Errorf("text before close marker missing from case body:\n%s", joined)
	}
	last := out[len(out)-1]
	if strings.TrimSpace(last) != "cleanup();" {
		t.Errorf("text after close marker should resume passthrough, last line = %q", last)
	}
	// Both body fragments must precede the dispatch close; the trailing
	// fragment must follow it.
	closeIdx := -1
	for i, line := range out {
		if line == "  }" {
			closeIdx = i
		}
	}
	if closeIdx == -1 || closeIdx != len(out)-2 {
		t.Errorf("dispatch close misplaced in %q", out)
	}
}

func TestExpand_OpenAndCloseOnOneLine(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "2", Spelling: "float"})
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(k) generic x; ENDGENERICLOOP after();",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(out, "\n")
	if !strings.Contains(joined, "float x;") {
		t.Errorf("inline body not expanded:\n%s", joined)
	}
	if strings.TrimSpace(out[len(out)-1]) != "after();" {
		t.Errorf("trailing text lost, last line = %q", out[len(out)-1])
	}
}

func TestExpand_MarkerStatementTerminators(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "1", Spelling: "long"})
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(x.type);",
		"generic v;",
		"ENDGENERICLOOP;",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != "switch (x.type) {" {
		t.Errorf("dispatch open = %q", out[0])
	}
	for _, line := range out {
		if strings.Contains(line, "GENERICLOOP") {
			t.Errorf("marker leaked into output: %q", line)
		}
	}
}

func TestExpand_EmptyTable(t *testing.T) {
	table := mustTable(t)
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(t)",
		"generic v;",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"switch (t) {",
		"default:",
		`  barf("genpp: unhandled type tag %d", (int)(t));`,
		"}",
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("empty-table dispatch:\n got %q\nwant %q", out, want)
	}
}

func TestExpand_EmptyBody(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "1", Spelling: "long"})
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(t)",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"switch (t) {",
		"case 1: {",
		"  } break;",
		"default:",
		`  barf("genpp: unhandled type tag %d", (int)(t));`,
		"}",
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("empty-body dispatch:\n got %q\nwant %q", out, want)
	}
}

func TestExpand_IncidentalSubstitution(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "1", Spelling: "long"})
	opts := Options{SubstMarker: "GENPP_DATADIR", SubstValue: "/usr/share/genpp"}
	out, err := expandLines(t, table, opts,
		`static char *dir = "GENPP_DATADIR/tables";`,
		"GENERICLOOP(t)",
		`generic *p = load("GENPP_DATADIR", t);`,
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != `static char *dir = "/usr/share/genpp/tables";` {
		t.Errorf("marker not replaced outside block: %q", out[0])
	}
	joined := strings.Join(out, "\n")
	if !strings.Contains(joined, `long *p = load("/usr/share/genpp", t);`) {
		t.Errorf("marker not replaced inside block:\n%s", joined)
	}
	if strings.Contains(joined, "GENPP_DATADIR") {
		t.Errorf("marker survived substitution:\n%s", joined)
	}
}

func TestExpand_MultipleBlocks(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "1", Spelling: "long"})
	out, err := expandLines(t, table, Options{},
		"GENERICLOOP(a)",
		"generic x;",
		"ENDGENERICLOOP",
		"between();",
		"GENERICLOOP(b)",
		"generic y;",
		"ENDGENERICLOOP",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(out, "\n")
	for _, want := range []string{"switch (a) {", "long x;", "between();", "switch (b) {", "long y;"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in output:\n%s", want, joined)
		}
	}
}

func TestExpand_BlockSpansSources(t *testing.T) {
	table := mustTable(t, typetable.Entry{Tag: "1", Spelling: "long"})
	sources := []pipeline.Source{
		{Name: "a.g.c", Lines: []string{"GENERICLOOP(t)", "generic v;"}},
		{Name: "b.g.c", Lines: []string{"ENDGENERICLOOP"}},
	}
	out, err := New(table, Options{}).Expand(sources)
	if err != nil {
		t.Fatalf("sources are one logical stream, got error: %v", err)
	}
	if !strings.Contains(strings.Join(out, "\n"), "long v;") {
		t.Errorf("cross-source block not expanded: %q", out)
	}
}

func TestExpand_Unterminated(t *testing.T) {
	table := typetable.Default()
	for i := 0; i < 3; i++ {
		out, err := expandLines(t, table, Options{},
			"before();",
			"  GENERICLOOP(t)",
			"generic v;",
		)
		if out != nil {
			t.Fatalf("partial output returned on error: %q", out)
		}
		var be *BlockError
		if !errors.As(err, &be) {
			t.Fatalf("want *BlockError, got %T (%v)", err, err)
		}
		if be.Kind != UnterminatedBlock {
			t.Errorf("kind = %v, want UnterminatedBlock", be.Kind)
		}
		if be.File != "test.g.c" || be.Line != 2 {
			t.Errorf("position = %s:%d, want test.g.c:2", be.File, be.Line)
		}
	}
}

func TestExpand_NestedBlock(t *testing.T) {
	_, err := expandLines(t, typetable.Default(), Options{},
		"GENERICLOOP(a)",
		"GENERICLOOP(b)",
		"ENDGENERICLOOP",
	)
	var be *BlockError
	if !errors.As(err, &be) || be.Kind != NestedBlock {
		t.Fatalf("want NestedBlock error, got %v", err)
	}
	if be.Line != 2 {
		t.Errorf("line = %d, want 2", be.Line)
	}
}

func TestExpand_UnexpectedClose(t *testing.T) {
	_, err := expandLines(t, typetable.Default(), Options{},
		"fine();",
		"ENDGENERICLOOP",
	)
	var be *BlockError
	if !errors.As(err, &be) || be.Kind != UnexpectedClose {
		t.Fatalf("want UnexpectedClose error, got %v", err)
	}
	if be.Line != 2 {
		t.Errorf("line = %d, want 2", be.Line)
	}
}

func TestExpand_CloseBeforeOpenOnOneLine(t *testing.T) {
	_, err := expandLines(t, typetable.Default(), Options{},
		"ENDGENERICLOOP GENERICLOOP(t)",
	)
	var be *BlockError
	if !errors.As(err, &be) || be.Kind != UnexpectedClose {
		t.Fatalf("want UnexpectedClose error, got %v", err)
	}
}

func TestExpand_ReusableAfterError(t *testing.T) {
	e := New(typetable.Default(), Options{})
	_, err := e.Expand([]pipeline.Source{{Name: "bad", Lines: []string{"GENERICLOOP(t)"}}})
	if err == nil {
		t.Fatal("expected error for unterminated block")
	}
	out, err := e.Expand([]pipeline.Source{{Name: "good", Lines: []string{"plain line"}}})
	if err != nil {
		t.Fatalf("expander not reusable after error: %v", err)
	}
	if !reflect.DeepEqual(out, []string{"plain line"}) {
		t.Errorf("stale state leaked into new run: %q", out)
	}
}
