package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/PDLPorters/genpp/internal/config"
	"github.com/PDLPorters/genpp/internal/expander"
	"github.com/PDLPorters/genpp/internal/pipeline"
	"github.com/PDLPorters/genpp/internal/typetable"
)

// Key derives the deterministic cache key for one expansion run: a
// sha256 over the concatenated input lines, the table fingerprint, the
// options, and the generator version, NUL-separated so distinct inputs
// cannot collide by concatenation. Source names are excluded — they
// only affect diagnostics, not output.
func Key(sources []pipeline.Source, table *typetable.Table, opts expander.Options) string {
	h := sha256.New()
	for _, src := range sources {
		for _, line := range src.Lines {
			h.Write([]byte(line))
			h.Write([]byte{'\n'})
		}
	}
	for _, part := range []string{
		table.Fingerprint(),
		opts.SubstMarker,
		opts.SubstValue,
		opts.OnFail,
		config.Version,
	} {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
