package change

import (
	"unicode"
	"unicode/utf8"

	"github.com/viant/codeintel/ir"
)

// Level is the impact classification from spec §4.5.2.
type Level string

const (
	LevelNone      Level = "NONE"
	LevelBodyLocal Level = "BODY_LOCAL"
	LevelSignature Level = "SIGNATURE"
	LevelInterface Level = "INTERFACE"
	LevelGlobal    Level = "GLOBAL"
)

// Classification is the outcome of comparing a file's old IR contribution
// to a preview of its new IR contribution.
type Classification struct {
	Level Level
	// AffectedFQNs are the fully-qualified names whose callers/importers
	// Pass 2 of the rebuilder must also revisit.
	AffectedFQNs []string
}

// Classify compares oldDoc and newDoc's contribution to path and returns the
// most precise impact level that covers every observed difference, per the
// table in spec §4.5.2. It degrades to LevelGlobal whenever it cannot prove
// a narrower level applies (codeerr.ImpactClassification's documented
// conservative fallback).
func Classify(oldDoc, newDoc *ir.Document, path string) Classification {
	oldNodes := indexByFQN(oldDoc.NodesInFile(path))
	newNodes := indexByFQN(newDoc.NodesInFile(path))

	if sameContentHashes(oldNodes, newNodes) {
		return Classification{Level: LevelNone}
	}

	if exportsOrImportsChanged(oldDoc, newDoc, path, oldNodes, newNodes) {
		return Classification{Level: LevelGlobal, AffectedFQNs: allFQNs(oldNodes, newNodes)}
	}

	if interfaceChanged(oldDoc, newDoc, oldNodes, newNodes) {
		return Classification{Level: LevelInterface, AffectedFQNs: allFQNs(oldNodes, newNodes)}
	}

	sigChanged, sigFQNs := signatureChanged(oldDoc, newDoc, oldNodes, newNodes)
	if sigChanged {
		return Classification{Level: LevelSignature, AffectedFQNs: sigFQNs}
	}

	bodyChanged, bodyFQNs := bodyOnlyChanged(oldDoc, newDoc, oldNodes, newNodes)
	if bodyChanged {
		return Classification{Level: LevelBodyLocal, AffectedFQNs: bodyFQNs}
	}

	// A content difference was detected but none of the finer checks above
	// explain it (e.g. new/removed top-level symbols not already counted
	// as an interface change) — conservative fallback.
	return Classification{Level: LevelGlobal, AffectedFQNs: allFQNs(oldNodes, newNodes)}
}

func indexByFQN(nodes []*ir.Node) map[string]*ir.Node {
	out := make(map[string]*ir.Node, len(nodes))
	for _, n := range nodes {
		out[n.FQN] = n
	}
	return out
}

func sameContentHashes(oldNodes, newNodes map[string]*ir.Node) bool {
	if len(oldNodes) != len(newNodes) {
		return false
	}
	for fqn, on := range oldNodes {
		nn, ok := newNodes[fqn]
		if !ok || on.ContentHash != nn.ContentHash {
			return false
		}
	}
	return true
}

func exportsOrImportsChanged(oldDoc, newDoc *ir.Document, path string, oldNodes, newNodes map[string]*ir.Node) bool {
	oldImports := importFQNs(oldDoc, path)
	newImports := importFQNs(newDoc, path)
	if len(oldImports) != len(newImports) {
		return true
	}
	for fqn := range oldImports {
		if !newImports[fqn] {
			return true
		}
	}
	for fqn, n := range oldNodes {
		if n.Kind != ir.KindExport {
			continue
		}
		if nn, ok := newNodes[fqn]; !ok || nn.Kind != ir.KindExport {
			return true
		}
	}
	for fqn, n := range newNodes {
		if n.Kind != ir.KindExport {
			continue
		}
		if _, ok := oldNodes[fqn]; !ok {
			return true
		}
	}
	return false
}

func importFQNs(doc *ir.Document, path string) map[string]bool {
	out := map[string]bool{}
	for _, n := range doc.NodesInFile(path) {
		if n.Kind == ir.KindImport {
			out[n.FQN] = true
		}
	}
	return out
}

// interfaceChanged reports whether a Class/Interface's public member set
// changed: a public Field/Method added, removed, or renamed.
func interfaceChanged(oldDoc, newDoc *ir.Document, oldNodes, newNodes map[string]*ir.Node) bool {
	oldPublic := publicMemberFQNs(oldDoc, oldNodes)
	newPublic := publicMemberFQNs(newDoc, newNodes)
	if len(oldPublic) != len(newPublic) {
		return true
	}
	for fqn := range oldPublic {
		if !newPublic[fqn] {
			return true
		}
	}
	return false
}

func publicMemberFQNs(doc *ir.Document, nodes map[string]*ir.Node) map[string]bool {
	out := map[string]bool{}
	for fqn, n := range nodes {
		if n.Kind != ir.KindField && n.Kind != ir.KindMethod {
			continue
		}
		if n.ParentID == "" {
			continue
		}
		if !isExportedMember(doc, n) {
			continue
		}
		out[fqn] = true
	}
	return out
}

// isExportedMember reports whether a Field/Method is part of its owning
// type's public interface. A Method's signature carries an explicit
// ir.Visibility; a Field has no signature, so its export-ness falls back to
// the capitalization convention every generator's VisibilityOf already
// derives Visibility from (the only language-neutral signal the IR carries
// for a member with no signature).
func isExportedMember(doc *ir.Document, n *ir.Node) bool {
	if n.SignatureID != "" {
		if sig, ok := doc.Sigs[n.SignatureID]; ok {
			return sig.Visibility == ir.VisibilityPublic
		}
	}
	r, _ := utf8.DecodeRuneInString(n.Name)
	return unicode.IsUpper(r)
}

func signatureChanged(oldDoc, newDoc *ir.Document, oldNodes, newNodes map[string]*ir.Node) (bool, []string) {
	var changed []string
	for fqn, on := range oldNodes {
		if on.SignatureID == "" {
			continue
		}
		nn, ok := newNodes[fqn]
		if !ok || nn.SignatureID == "" {
			continue
		}
		oldSig, okOld := oldDoc.Sigs[on.SignatureID]
		newSig, okNew := newDoc.Sigs[nn.SignatureID]
		if !okOld || !okNew {
			continue
		}
		if oldSig.SignatureHash != newSig.SignatureHash {
			changed = append(changed, fqn)
			newSig.ChangeFrequency = oldSig.ChangeFrequency + 1
		}
	}
	return len(changed) > 0, changed
}

func bodyOnlyChanged(oldDoc, newDoc *ir.Document, oldNodes, newNodes map[string]*ir.Node) (bool, []string) {
	var changed []string
	for fqn, on := range oldNodes {
		nn, ok := newNodes[fqn]
		if !ok {
			continue
		}
		if on.ContentHash != nn.ContentHash && (on.Kind == ir.KindFunction || on.Kind == ir.KindMethod) {
			changed = append(changed, fqn)
			bumpChangeFrequency(oldDoc, newDoc, on, nn)
		}
	}
	return len(changed) > 0, changed
}

// bumpChangeFrequency carries a signature's edit-frequency counter forward
// from old to new when both nodes carry a signature id (spec.md is silent
// on this signal; see SPEC_FULL.md §4 "maintainability pressure").
func bumpChangeFrequency(oldDoc, newDoc *ir.Document, on, nn *ir.Node) {
	if on.SignatureID == "" || nn.SignatureID == "" {
		return
	}
	oldSig, okOld := oldDoc.Sigs[on.SignatureID]
	newSig, okNew := newDoc.Sigs[nn.SignatureID]
	if !okOld || !okNew {
		return
	}
	newSig.ChangeFrequency = oldSig.ChangeFrequency + 1
}

func allFQNs(maps ...map[string]*ir.Node) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range maps {
		for fqn := range m {
			if !seen[fqn] {
				seen[fqn] = true
				out = append(out, fqn)
			}
		}
	}
	return out
}
