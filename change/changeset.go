// Package change implements C5: change detection, impact classification,
// and stale-edge management. Grounded on the teacher's
// inspector/repository/detector.go directory-walk pattern and
// analyzer/analyzer.go's afs.Service-backed file access, generalized from a
// one-shot analyzer into a detector that compares two repository states.
package change

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/viant/afs"
)

// ChangeSet is the triple of added/modified/deleted file paths (spec §4.5.1).
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// FileState is a snapshot's per-file fingerprint used by hash- and
// mtime-based change detection.
type FileState struct {
	Path    string
	Hash    string
	ModTime time.Time
}

// DiffProvider supplies a source-control-provided diff when available
// (strategy 1, spec §4.5.1); a nil DiffProvider or one returning ok=false
// falls through to hash-based detection.
type DiffProvider interface {
	Diff(repoID string) (ChangeSet, bool, error)
}

// Detector computes a ChangeSet between a previous and current repository
// state, in the three-strategy priority order spec §4.5.1 requires:
// diff-provided, then file-hash, then modification-time.
type Detector struct {
	fs  afs.Service
	Diff DiffProvider
}

func NewDetector(fs afs.Service, diff DiffProvider) *Detector {
	return &Detector{fs: fs, Diff: diff}
}

// Detect compares previous against the files currently readable under root
// via the afs.Service (teacher's filesystem abstraction, inspector/
// repository/detector.go's walk pattern), honoring the strategy priority
// order.
func (d *Detector) Detect(repoID, root string, previous map[string]FileState) (ChangeSet, error) {
	if d.Diff != nil {
		if cs, ok, err := d.Diff.Diff(repoID); err != nil {
			return ChangeSet{}, err
		} else if ok {
			return cs, nil
		}
	}
	return d.detectByHash(root, previous)
}

func (d *Detector) detectByHash(root string, previous map[string]FileState) (ChangeSet, error) {
	current := map[string]FileState{}
	var cs ChangeSet

	ctx := context.Background()
	objects, err := d.fs.List(ctx, root)
	if err != nil {
		return cs, err
	}
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		path := obj.Name()
		data, err := d.fs.DownloadWithURL(ctx, obj.URL())
		var h string
		if err == nil {
			sum := sha256.Sum256(data)
			h = hex.EncodeToString(sum[:])
		}
		fs := FileState{Path: path, Hash: h, ModTime: obj.ModTime()}
		current[path] = fs

		prev, existed := previous[path]
		switch {
		case !existed:
			cs.Added = append(cs.Added, path)
		case h != "" && prev.Hash != "" && h != prev.Hash:
			cs.Modified = append(cs.Modified, path)
		case h == "" || prev.Hash == "":
			// Fallback: mtime-based detection (strategy 3) when hashing
			// either snapshot failed.
			if !prev.ModTime.Equal(fs.ModTime) {
				cs.Modified = append(cs.Modified, path)
			}
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	return cs, nil
}
