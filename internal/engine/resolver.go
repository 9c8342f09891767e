package engine

import (
	"log/slog"
	"path"
	"strings"

	"github.com/jbeckett/shelfsync/internal/metadata"
)

// identityCache maps remote ids to the local paths representing them.
// One cache is created per run and discarded when the run ends; entries
// are invalidated individually when a rename or parent mismatch is
// detected.
type identityCache struct {
	documents      map[int64]string
	subCollections map[int64]string
	collections    map[int64]string
}

func newIdentityCache() *identityCache {
	return &identityCache{
		documents:      make(map[int64]string),
		subCollections: make(map[int64]string),
		collections:    make(map[int64]string),
	}
}

// claimedFolders returns the set of folder paths the remote-driven pass
// has associated with a collection or sub-collection this run. The
// creation scanner uses it to avoid re-creating freshly pulled
// containers remotely.
func (c *identityCache) claimedFolders() map[string]int64 {
	claimed := make(map[string]int64, len(c.subCollections))
	for id, p := range c.subCollections {
		claimed[p] = id
	}

	return claimed
}

// findDocument returns the relative path of the local file representing
// the given remote document id inside containerPath. A miss is not an
// error: it signals "needs creation" or "needs pull as new".
func (r *run) findDocument(remoteID int64, containerPath string) (string, bool) {
	if p, ok := r.cache.documents[remoteID]; ok {
		if path.Dir(p) == containerPath {
			if _, err := r.e.tree.Stat(p); err == nil {
				return p, true
			}
		}
		// Parent moved or file vanished since it was cached.
		delete(r.cache.documents, remoteID)
	}

	entries, err := r.e.tree.ListDir(containerPath)
	if err != nil {
		return "", false
	}

	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".md") {
			continue
		}

		p := path.Join(containerPath, ent.Name())

		md, ok := r.readHeader(p)
		if !ok || md.RemoteID != remoteID {
			continue
		}

		r.cache.documents[remoteID] = p

		return p, true
	}

	return "", false
}

// findCollectionFolder scans top-level folders for one whose descendant
// files record the given collection id.
func (r *run) findCollectionFolder(collectionID int64) (string, bool) {
	if p, ok := r.cache.collections[collectionID]; ok {
		if _, err := r.e.tree.Stat(p); err == nil {
			return p, true
		}

		delete(r.cache.collections, collectionID)
	}

	folder, ok := r.scanFoldersFor(".", func(md metadata.Metadata) bool {
		return md.CollectionID == collectionID
	})
	if !ok {
		return "", false
	}

	r.cache.collections[collectionID] = folder

	return folder, true
}

// findSubCollectionFolder scans folders directly under collectionPath
// for one whose descendant files record the given sub-collection id.
func (r *run) findSubCollectionFolder(subCollectionID int64, collectionPath string) (string, bool) {
	if p, ok := r.cache.subCollections[subCollectionID]; ok {
		if path.Dir(p) == collectionPath {
			if _, err := r.e.tree.Stat(p); err == nil {
				return p, true
			}
		}

		delete(r.cache.subCollections, subCollectionID)
	}

	folder, ok := r.scanFoldersFor(collectionPath, func(md metadata.Metadata) bool {
		return md.SubCollectionID != nil && *md.SubCollectionID == subCollectionID
	})
	if !ok {
		return "", false
	}

	r.cache.subCollections[subCollectionID] = folder

	return folder, true
}

// scanFoldersFor returns the first folder under containerPath with a
// descendant file whose metadata satisfies match.
func (r *run) scanFoldersFor(containerPath string, match func(metadata.Metadata) bool) (string, bool) {
	entries, err := r.e.tree.ListDir(containerPath)
	if err != nil {
		return "", false
	}

	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}

		folder := path.Join(containerPath, ent.Name())
		if r.folderMatches(folder, match) {
			return folder, true
		}
	}

	return "", false
}

// folderMatches inspects the folder's descendant files' metadata for a
// match, recursing into subfolders.
func (r *run) folderMatches(folderPath string, match func(metadata.Metadata) bool) bool {
	entries, err := r.e.tree.ListDir(folderPath)
	if err != nil {
		return false
	}

	for _, ent := range entries {
		p := path.Join(folderPath, ent.Name())

		if ent.IsDir() {
			if r.folderMatches(p, match) {
				return true
			}

			continue
		}

		if !strings.HasSuffix(ent.Name(), ".md") {
			continue
		}

		if md, ok := r.readHeader(p); ok && match(md) {
			return true
		}
	}

	return false
}

// readHeader does a metadata-only parse of a file, avoiding a full-body
// read.
func (r *run) readHeader(relPath string) (metadata.Metadata, bool) {
	header, err := r.e.tree.ReadHeader(relPath)
	if err != nil {
		r.e.logger.Debug("reading document header",
			slog.String("path", relPath),
			slog.String("error", err.Error()),
		)

		return metadata.Metadata{}, false
	}

	return metadata.ParseHeader(header)
}
