package ir

import "fmt"

// NodeID constructs the deterministic, stable node id for a definition:
// <language>:<repo_relative_path>:<fqn>. It must never embed line numbers —
// a node's id is only allowed to change when its name or enclosing scope
// changes (rename or move), never when its body is edited or the file
// around it gains/loses blank lines.
func NodeID(language, relativePath, fqn string) string {
	return fmt.Sprintf("%s:%s:%s", language, relativePath, fqn)
}

// ExternalID constructs the id for a synthesized node standing in for an
// unresolved reference (ExternalFunction / ExternalSymbol).
func ExternalID(language, rawReference string) string {
	return fmt.Sprintf("%s:external:%s", language, rawReference)
}
