package engine

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/jbeckett/shelfsync/internal/remote"
	"github.com/jbeckett/shelfsync/internal/tree"
)

// reconcileCollectionPath returns the folder representing the
// collection, renaming it to the sanitized remote name when the two
// drifted apart. A rename that would land on an existing path keeps the
// current folder instead; the stale name is cosmetic, a lost folder is
// not.
func (r *run) reconcileCollectionPath(col remote.Collection) string {
	expected := tree.SanitizeName(col.Name)

	current, found := r.findCollectionFolder(col.ID)
	if !found {
		if r.mode.pulls() {
			if err := r.e.tree.MkdirAll(expected); err != nil {
				r.e.logger.Warn("creating collection folder",
					slog.String("path", expected),
					slog.String("error", err.Error()),
				)
			}
		}

		r.cache.collections[col.ID] = expected

		return expected
	}

	return r.renameFolder(current, expected, r.cache.collections, col.ID)
}

// reconcileSubCollectionPath is the sub-collection analogue of
// reconcileCollectionPath, one level down.
func (r *run) reconcileSubCollectionPath(sub remote.SubCollection, collectionPath string) string {
	expected := path.Join(collectionPath, tree.SanitizeName(sub.Name))

	current, found := r.findSubCollectionFolder(sub.ID, collectionPath)
	if !found {
		if r.mode.pulls() {
			if err := r.e.tree.MkdirAll(expected); err != nil {
				r.e.logger.Warn("creating subcollection folder",
					slog.String("path", expected),
					slog.String("error", err.Error()),
				)
			}
		}

		r.cache.subCollections[sub.ID] = expected

		return expected
	}

	return r.renameFolder(current, expected, r.cache.subCollections, sub.ID)
}

// renameFolder moves a container folder to its expected path and
// records the result in the given cache map. Failures are logged and
// leave the current path in place.
func (r *run) renameFolder(current, expected string, cache map[int64]string, id int64) string {
	if current == expected {
		cache[id] = current
		return current
	}

	if _, err := r.e.tree.Stat(expected); err == nil {
		r.e.logger.Warn("folder rename target occupied, keeping current name",
			slog.String("current", current),
			slog.String("target", expected),
		)

		cache[id] = current

		return current
	}

	if err := r.e.tree.Rename(current, expected); err != nil {
		r.e.logger.Warn("renaming folder",
			slog.String("current", current),
			slog.String("target", expected),
			slog.String("error", err.Error()),
		)

		cache[id] = current

		return current
	}

	r.e.logger.Info("renamed folder",
		slog.String("from", current),
		slog.String("to", expected),
	)

	cache[id] = expected

	return expected
}

// reconcileDocumentPath renames a tracked file to match the remote
// document's current name. The rename is best effort: an occupied
// target or a failed rename keeps the existing file.
func (r *run) reconcileDocumentPath(current, containerPath string, ref remote.DocumentRef) string {
	expected := path.Join(containerPath, tree.SanitizeName(ref.Name)+".md")
	if current == expected {
		return current
	}

	if _, err := r.e.tree.Stat(expected); err == nil {
		r.e.logger.Warn("document rename target occupied, keeping current name",
			slog.String("current", current),
			slog.String("target", expected),
		)

		return current
	}

	if err := r.e.tree.Rename(current, expected); err != nil {
		r.e.logger.Warn("renaming document",
			slog.String("current", current),
			slog.String("target", expected),
			slog.String("error", err.Error()),
		)

		return current
	}

	r.e.logger.Info("renamed document",
		slog.String("from", current),
		slog.String("to", expected),
	)

	r.cache.documents[ref.ID] = expected

	return expected
}

// pullTargetPath picks a path for a document being pulled for the first
// time. An untracked file already sitting at the natural path is never
// overwritten; a numbered variant is used instead.
func (r *run) pullTargetPath(containerPath, name string) string {
	base := tree.SanitizeName(name)
	target := path.Join(containerPath, base+".md")

	if _, err := r.e.tree.Stat(target); err != nil {
		return target
	}

	for i := 2; i <= 100; i++ {
		candidate := path.Join(containerPath, fmt.Sprintf("%s (%d).md", base, i))
		if _, err := r.e.tree.Stat(candidate); err != nil {
			return candidate
		}
	}

	// Pathological collision run; fall back to a timestamped name.
	suffix := time.Now().UnixMilli()

	return path.Join(containerPath, fmt.Sprintf("%s-%d.md", strings.TrimSpace(base), suffix))
}
