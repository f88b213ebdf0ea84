package config

// Version is reported by -version and mixed into cache keys so that
// cached output from an older generator is never reused.
const Version = "2.1.0"

// SourceFileExt is the conventional extension for generic C templates.
const SourceFileExt = ".g.c"

// SourceFileExtensions are all recognized template extensions
var SourceFileExtensions = []string{".g.c", ".g.h", ".gc"}

// Generic-block marker keywords
const (
	OpenKeyword  = "GENERICLOOP"
	CloseKeyword = "ENDGENERICLOOP"
)

// PlaceholderToken is the reserved word replaced per emitted case.
// Matching is whole-word: "generic" substitutes, "generically" does not.
const PlaceholderToken = "generic"

// Incidental stream-wide substitution defaults. The marker is replaced
// by a configured literal on every line, before block detection sees it.
const (
	DefaultSubstMarker = "GENPP_DATADIR"
	DefaultSubstValue  = "."
)

// DefaultFailCall is the C function name called from the generated
// default case when the runtime tag matches no table entry.
const DefaultFailCall = "barf"

// CacheDBName is the sqlite file created inside the --cache directory.
const CacheDBName = "genpp-cache.db"

// StdinName labels diagnostics for input read from standard input.
const StdinName = "<stdin>"
