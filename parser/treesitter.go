package parser

import (
	"bytes"
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tsgolang "github.com/smacker/go-tree-sitter/golang"
	tsjava "github.com/smacker/go-tree-sitter/java"
	tsjs "github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"
)

// grammars is the language-keyed table backing both the parser adapter and
// (indirectly) the generator registry — the "no inheritance, composition +
// dispatch table" design note from spec §9.
var grammars = map[Language]*sitter.Language{
	Go:         tsgolang.GetLanguage(),
	Java:       tsjava.GetLanguage(),
	JavaScript: tsjs.GetLanguage(),
}

// TreeSitterAdapter is the concrete C1 parser port, grounded on the
// teacher's inspector/golang/inspector_tree_sitter.go construction of a
// fresh *sitter.Parser per call.
type TreeSitterAdapter struct {
	log *zap.Logger
}

func NewTreeSitterAdapter(log *zap.Logger) *TreeSitterAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &TreeSitterAdapter{log: log}
}

func grammarFor(lang Language) (*sitter.Language, error) {
	g, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("parser: unsupported language %q", lang)
	}
	return g, nil
}

// Parse performs a full parse of source under lang.
func (a *TreeSitterAdapter) Parse(source SourceFile, lang Language) (*SyntaxTree, error) {
	grammar, err := grammarFor(lang)
	if err != nil {
		return nil, err
	}
	return a.parseWithGrammar(source, lang, grammar, nil)
}

// ParseIncremental re-parses source, reusing previous's unchanged subtrees.
// The edit list is checked only against previous's recorded source (see
// editsConsistent); it is not compared with source.Content. On a missing
// previous tree, an out-of-range edit, or an out-of-order edit it
// falls back to a full parse; incremental parsing must never be allowed to
// produce a tree observationally different from a full parse (spec §4.1).
func (a *TreeSitterAdapter) ParseIncremental(source SourceFile, previous *SyntaxTree, edits []Edit) (*SyntaxTree, error) {
	if previous == nil || previous.tree == nil || len(edits) == 0 {
		if previous == nil {
			return a.Parse(source, Go)
		}
		return a.Parse(source, previous.Language)
	}
	grammar, err := grammarFor(previous.Language)
	if err != nil {
		return nil, err
	}
	if !editsConsistent(previous.Source, edits) {
		a.log.Warn("parser: incremental edits inconsistent, falling back to full parse", zap.String("path", source.Path))
		return a.parseWithGrammar(source, previous.Language, grammar, nil)
	}

	for _, e := range edits {
		previous.tree.Edit(e.toSitter())
	}
	result, err := a.parseWithGrammar(source, previous.Language, grammar, previous.tree)
	if err != nil {
		a.log.Warn("parser: incremental parse failed, falling back to full parse", zap.String("path", source.Path), zap.Error(err))
		return a.parseWithGrammar(source, previous.Language, grammar, nil)
	}
	return result, nil
}

func (a *TreeSitterAdapter) parseWithGrammar(source SourceFile, lang Language, grammar *sitter.Language, oldTree *sitter.Tree) (*SyntaxTree, error) {
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	tree, err := p.ParseCtx(context.Background(), oldTree, source.Content)
	if err != nil {
		return nil, fmt.Errorf("parser: parse %s: %w", source.Path, err)
	}
	return &SyntaxTree{Root: tree.RootNode(), Source: source.Content, Language: lang, tree: tree}, nil
}

// editsConsistent performs the minimal sanity check spec §4.1 requires
// before trusting an edit list: each edit's old-range must fit within the
// previous source and edits must be ordered by byte offset.
func editsConsistent(prevSource []byte, edits []Edit) bool {
	last := -1
	for _, e := range edits {
		if e.ByteStart < last {
			return false
		}
		if e.OldByteEnd > len(prevSource) {
			return false
		}
		if e.NewByteEnd < e.ByteStart {
			return false
		}
		last = e.ByteStart
	}
	return true
}

// ApplyBytes is a small helper for tests/tools that want to materialize the
// post-edit content given only the previous content and an edit list,
// mirroring how a real editor would produce SourceFile.Content.
func ApplyBytes(prevContent []byte, edits []Edit, replacement [][]byte) []byte {
	out := append([]byte(nil), prevContent...)
	for i, e := range edits {
		var repl []byte
		if i < len(replacement) {
			repl = replacement[i]
		}
		var buf bytes.Buffer
		buf.Write(out[:e.ByteStart])
		buf.Write(repl)
		buf.Write(out[e.OldByteEnd:])
		out = buf.Bytes()
	}
	return out
}
