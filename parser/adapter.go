// Package parser is the C1 parser adapter: it maps a source file to a
// concrete syntax tree and supports both full and incremental (edit-driven)
// parsing, per spec §4.1. The tree is treated as opaque by the rest of the
// core except for the traversal primitives exposed on SyntaxTree.
package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language is a recognized source language tag.
type Language string

const (
	Go         Language = "go"
	Java       Language = "java"
	JavaScript Language = "javascript"
	Python     Language = "python"
)

// SourceFile is the input to Parse: a path plus its current byte content.
type SourceFile struct {
	Path    string
	Content []byte
}

// Position mirrors tree-sitter's row/column point.
type Position struct {
	Row    int
	Column int
}

// Edit describes one incremental text edit, matching spec §4.1's required
// fields exactly.
type Edit struct {
	ByteStart     int
	OldByteEnd    int
	NewByteEnd    int
	StartPosition Position
	OldEndPos     Position
	NewEndPos     Position
}

func (e Edit) toSitter() sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  uint32(e.ByteStart),
		OldEndIndex: uint32(e.OldByteEnd),
		NewEndIndex: uint32(e.NewByteEnd),
		StartPoint:  sitter.Point{Row: uint32(e.StartPosition.Row), Column: uint32(e.StartPosition.Column)},
		OldEndPoint: sitter.Point{Row: uint32(e.OldEndPos.Row), Column: uint32(e.OldEndPos.Column)},
		NewEndPoint: sitter.Point{Row: uint32(e.NewEndPos.Row), Column: uint32(e.NewEndPos.Column)},
	}
}

// SyntaxTree is the opaque parse result. Downstream components traverse it
// via Root; syntax errors surface as error nodes within the tree rather than
// as a returned error — the adapter always returns a tree (spec §4.1
// "Error handling").
type SyntaxTree struct {
	Root     *sitter.Node
	Source   []byte
	Language Language
	tree     *sitter.Tree
}

// HasErrors reports whether the tree contains any ERROR or MISSING node.
func (t *SyntaxTree) HasErrors() bool {
	return containsError(t.Root)
}

func containsError(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if containsError(n.Child(i)) {
			return true
		}
	}
	return false
}

// Adapter is the C1 port: parse and parse_incremental.
type Adapter interface {
	Parse(source SourceFile, language Language) (*SyntaxTree, error)
	ParseIncremental(source SourceFile, previous *SyntaxTree, edits []Edit) (*SyntaxTree, error)
}

// LanguageForPath maps a file extension to a Language, grounded on the
// teacher's Factory.GetInspector extension switch. ok is false for an
// extension with no registered language, so callers can skip the file
// instead of treating it as a parse failure.
func LanguageForPath(path string) (lang Language, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return Go, true
	case ".java":
		return Java, true
	case ".js", ".jsx":
		return JavaScript, true
	case ".py":
		return Python, true
	default:
		return "", false
	}
}
