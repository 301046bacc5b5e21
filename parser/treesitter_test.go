package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeSitterAdapter_Parse(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		lang     Language
		wantErrs bool
	}{
		{
			name: "valid go function",
			src:  "package p\nfunc Foo() int { return 1 }\n",
			lang: Go,
		},
		{
			name:     "syntax error still returns a tree",
			src:      "package p\nfunc Foo( int { return 1 }\n",
			lang:     Go,
			wantErrs: true,
		},
	}

	a := NewTreeSitterAdapter(nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := a.Parse(SourceFile{Path: "p.go", Content: []byte(tc.src)}, tc.lang)
			require.NoError(t, err)
			require.NotNil(t, tree.Root)
			assert.Equal(t, tc.wantErrs, tree.HasErrors())
		})
	}
}

func TestTreeSitterAdapter_ParseIncremental_FallsBackOnInconsistentEdits(t *testing.T) {
	a := NewTreeSitterAdapter(nil)
	prevSrc := "package p\nfunc Foo() int { return 1 }\n"
	prev, err := a.Parse(SourceFile{Path: "p.go", Content: []byte(prevSrc)}, Go)
	require.NoError(t, err)

	newSrc := "package p\nfunc Foo() int { return 2 }\n"
	badEdits := []Edit{{ByteStart: 1000, OldByteEnd: 5, NewByteEnd: 5}}

	tree, err := a.ParseIncremental(SourceFile{Path: "p.go", Content: []byte(newSrc)}, prev, badEdits)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.False(t, tree.HasErrors())
}

func TestTreeSitterAdapter_ParseIncremental_AppliesConsistentEdit(t *testing.T) {
	a := NewTreeSitterAdapter(nil)
	prevSrc := "package p\nfunc Foo() int { return 1 }\n"
	prev, err := a.Parse(SourceFile{Path: "p.go", Content: []byte(prevSrc)}, Go)
	require.NoError(t, err)

	// Replace the literal "1" with "2" (byte offset of '1' in prevSrc).
	idx := len("package p\nfunc Foo() int { return ")
	edit := Edit{ByteStart: idx, OldByteEnd: idx + 1, NewByteEnd: idx + 1}
	newSrc := prevSrc[:idx] + "2" + prevSrc[idx+1:]

	tree, err := a.ParseIncremental(SourceFile{Path: "p.go", Content: []byte(newSrc)}, prev, []Edit{edit})
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())
	assert.Equal(t, newSrc, string(tree.Source))
}
