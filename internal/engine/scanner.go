package engine

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/jbeckett/shelfsync/internal/metadata"
	"github.com/jbeckett/shelfsync/internal/remote"
)

// scanCollection walks the collection's local folder for untracked
// additions: markdown files without a remote identity become remote
// documents, folders not claimed by any known container become remote
// sub-collections (when enabled). Only one folder level is inspected;
// the tree mirrors a two-level hierarchy.
func (r *run) scanCollection(ctx context.Context, col *remote.CollectionDetail, colPath string) {
	entries, err := r.e.tree.ListDir(colPath)
	if err != nil {
		// No local folder yet means nothing untracked to create.
		return
	}

	claimed := r.cache.claimedFolders()

	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return
		}

		if !ent.IsDir() {
			continue
		}

		folder := path.Join(colPath, ent.Name())

		if subID, ok := claimed[folder]; ok {
			r.scanDocuments(ctx, col, folder, &subID)
			continue
		}

		if subID, ok := r.folderSubCollectionID(folder); ok {
			// Tracked by its files but unknown to the run cache, most
			// likely a sub-collection filtered out of this run.
			r.scanDocuments(ctx, col, folder, &subID)
			continue
		}

		if !r.e.createSubCollections {
			r.e.logger.Debug("skipping untracked folder, creation disabled",
				slog.String("path", folder),
			)

			continue
		}

		sub, err := r.e.store.CreateSubCollection(ctx, remote.CreateSubCollectionRequest{
			CollectionID: col.ID,
			Name:         ent.Name(),
		})
		if err != nil {
			r.fail("creating subcollection", err, slog.String("path", folder))
			continue
		}

		r.res.Created++
		r.cache.subCollections[sub.ID] = folder

		r.e.logger.Info("created subcollection",
			slog.Int64("id", sub.ID),
			slog.String("path", folder),
		)

		r.scanDocuments(ctx, col, folder, &sub.ID)
	}

	r.scanDocuments(ctx, col, colPath, nil)
}

// scanDocuments creates remote documents for untracked markdown files
// directly inside folder. subID is nil for files at collection level.
func (r *run) scanDocuments(ctx context.Context, col *remote.CollectionDetail, folder string, subID *int64) {
	entries, err := r.e.tree.ListDir(folder)
	if err != nil {
		return
	}

	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return
		}

		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".md") {
			continue
		}

		relPath := path.Join(folder, ent.Name())

		content, err := r.e.tree.ReadFile(relPath)
		if err != nil {
			r.fail("reading untracked file", err, slog.String("path", relPath))
			continue
		}

		md, body := metadata.Parse(content)
		if md.Tracked() {
			continue
		}

		name := strings.TrimSuffix(ent.Name(), ".md")

		req := remote.CreateDocumentRequest{
			CollectionID: col.ID,
			Name:         name,
			Markdown:     string(body),
		}
		if subID != nil {
			req.SubCollectionID = *subID
		}

		doc, err := r.e.store.CreateDocument(ctx, req)
		if err != nil {
			r.fail("creating document", err, slog.String("path", relPath))
			continue
		}

		parent := docParent{
			collectionID:          col.ID,
			collectionName:        col.Name,
			collectionDescription: col.Description,
		}
		if subID != nil {
			parent.sub = &remote.SubCollection{
				ID:           *subID,
				CollectionID: col.ID,
				Name:         path.Base(folder),
			}
		}

		newMD := buildMetadata(doc, parent)
		newMD.LastSynced = time.Now().UTC().Format(time.RFC3339)

		if err := r.e.tree.WriteFile(relPath, metadata.Serialize(newMD, body), time.Time{}); err != nil {
			r.fail("writing metadata after create", err, slog.String("path", relPath))
			continue
		}

		r.res.Created++
		r.cache.documents[doc.ID] = relPath

		r.e.logger.Info("created document",
			slog.Int64("id", doc.ID),
			slog.String("path", relPath),
		)
	}
}

// folderSubCollectionID inspects a folder's files for a recorded
// sub-collection identity.
func (r *run) folderSubCollectionID(folder string) (int64, bool) {
	entries, err := r.e.tree.ListDir(folder)
	if err != nil {
		return 0, false
	}

	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".md") {
			continue
		}

		md, ok := r.readHeader(path.Join(folder, ent.Name()))
		if ok && md.SubCollectionID != nil {
			return *md.SubCollectionID, true
		}
	}

	return 0, false
}
