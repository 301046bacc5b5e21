// Package generator is the C2 IR generator: per-language translators from a
// parsed syntax tree to the language-neutral ir.Document schema. Per spec
// §9's design note, languages are not modeled via inheritance — each
// generator implements a small capability-set interface and is registered
// in a language-keyed dispatch table.
package generator

import (
	"fmt"

	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/parser"
)

// Generator is the capability-set every per-language translator implements.
type Generator interface {
	// BuildIR produces (or incrementally refreshes) the IR contribution of
	// one file into doc. previous, when non-nil, is the file's prior IR
	// contribution and may be used to reuse unchanged subtrees.
	BuildIR(doc *ir.Document, relativePath string, tree *parser.SyntaxTree, previous *ir.Document) error
	// SupportsIncremental reports whether BuildIR can exploit a non-nil
	// previous argument, or always regenerates fully.
	SupportsIncremental() bool
}

// registry is the language-keyed dispatch table (spec §9: "composition +
// dispatch table", no inheritance).
var registry = map[parser.Language]Generator{}

// Register adds or replaces the generator for a language. Called from each
// per-language subpackage's init(), mirroring the teacher's
// inspector.Factory.GetInspector switch but without hardcoding the switch
// here — new languages register themselves.
func Register(lang parser.Language, g Generator) {
	registry[lang] = g
}

// Lookup returns the generator registered for lang, or an error if none is
// registered — callers should degrade to treating the file as an opaque
// asset (see inspector/graph/document.go's KindAsset handling in the
// teacher) rather than aborting the build.
func Lookup(lang parser.Language) (Generator, error) {
	g, ok := registry[lang]
	if !ok {
		return nil, fmt.Errorf("generator: no generator registered for language %q", lang)
	}
	return g, nil
}

// Languages lists every currently registered language, for diagnostics and
// tests.
func Languages() []parser.Language {
	out := make([]parser.Language, 0, len(registry))
	for lang := range registry {
		out = append(out, lang)
	}
	return out
}
