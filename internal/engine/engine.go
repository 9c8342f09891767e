// Package engine implements the reconciliation engine: it walks the
// remote hierarchy and the local tree together and converges them one
// document at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/jbeckett/shelfsync/internal/errors"
	"github.com/jbeckett/shelfsync/internal/metadata"
	"github.com/jbeckett/shelfsync/internal/remote"
	"github.com/jbeckett/shelfsync/internal/textconv"
	"github.com/jbeckett/shelfsync/internal/tree"
)

// Mode is the direction of a reconciliation run.
type Mode string

// Run directions.
const (
	ModePull          Mode = "pull"
	ModePush          Mode = "push"
	ModeBidirectional Mode = "bidirectional"
)

// pulls reports whether the mode transfers remote changes to disk.
func (m Mode) pulls() bool {
	return m == ModePull || m == ModeBidirectional
}

// pushes reports whether the mode transfers local changes to the store.
func (m Mode) pushes() bool {
	return m == ModePush || m == ModeBidirectional
}

// Result summarizes what one run did.
type Result struct {
	Pulled  int
	Pushed  int
	Created int
	Skipped int
	Errors  int
}

// Summary renders the one-line end-of-run notice.
func (r Result) Summary() string {
	return fmt.Sprintf("sync complete: %d pulled, %d pushed, %d created, %d skipped, %d errors",
		r.Pulled, r.Pushed, r.Created, r.Skipped, r.Errors)
}

// RemoteStore is the slice of the shelf API the engine depends on.
//
//go:generate mockgen -source=engine.go -destination=mock_store_test.go -package=engine
type RemoteStore interface {
	ListCollections(ctx context.Context) ([]remote.Collection, error)
	GetCollection(ctx context.Context, id int64) (*remote.CollectionDetail, error)
	GetSubCollection(ctx context.Context, id int64) (*remote.SubCollectionDetail, error)
	GetDocument(ctx context.Context, id int64) (*remote.Document, error)
	CreateDocument(ctx context.Context, req remote.CreateDocumentRequest) (*remote.Document, error)
	CreateSubCollection(ctx context.Context, req remote.CreateSubCollectionRequest) (*remote.SubCollection, error)
	UpdateDocument(ctx context.Context, id int64, req remote.UpdateDocumentRequest) (*remote.Document, error)
	ExportMarkdown(ctx context.Context, id int64) (string, error)
}

// Config wires an Engine's collaborators.
type Config struct {
	Tree      *tree.Tree
	Store     RemoteStore
	Converter *textconv.Converter
	Conflicts Resolver
	Notifier  Notifier
	Logger    *slog.Logger

	// MTimeBuffer is the local-change detection tolerance; zero selects
	// DefaultBuffer.
	MTimeBuffer time.Duration

	// CreateSubCollections lets the creation scanner turn untracked
	// folders into remote sub-collections.
	CreateSubCollections bool

	// CollectionIDs restricts the run to these collections. Empty means
	// all collections visible to the token.
	CollectionIDs []int64
}

// Engine reconciles the local tree with the remote store. At most one
// run executes at a time; overlapping requests are rejected, not
// queued.
type Engine struct {
	tree                 *tree.Tree
	store                RemoteStore
	conv                 *textconv.Converter
	conflicts            Resolver
	notifier             Notifier
	logger               *slog.Logger
	buffer               time.Duration
	createSubCollections bool
	collectionIDs        []int64

	mu sync.Mutex
}

// New creates an Engine from the given configuration, filling in
// defaults for the buffer, notifier, and conflict resolver.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}

	if cfg.Conflicts == nil {
		cfg.Conflicts = NewPreserveLocal(cfg.Notifier)
	}

	if cfg.MTimeBuffer <= 0 {
		cfg.MTimeBuffer = DefaultBuffer
	}

	return &Engine{
		tree:                 cfg.Tree,
		store:                cfg.Store,
		conv:                 cfg.Converter,
		conflicts:            cfg.Conflicts,
		notifier:             cfg.Notifier,
		logger:               cfg.Logger,
		buffer:               cfg.MTimeBuffer,
		createSubCollections: cfg.CreateSubCollections,
		collectionIDs:        cfg.CollectionIDs,
	}
}

// run carries the per-run state: the identity cache, counters, and the
// run's direction. It is created fresh for every Run call and discarded
// when it returns.
type run struct {
	e     *Engine
	mode  Mode
	cache *identityCache
	res   Result
}

// Run executes one reconciliation pass in the given direction. A run
// already in progress causes ErrRunInProgress; the caller retries
// later. Per-document failures are counted and logged, not fatal; only
// a failure to enumerate collections aborts the run.
func (e *Engine) Run(ctx context.Context, mode Mode) (Result, error) {
	if !e.mu.TryLock() {
		return Result{}, apperrors.ErrRunInProgress
	}
	defer e.mu.Unlock()

	r := &run{e: e, mode: mode, cache: newIdentityCache()}

	e.logger.Info("starting run", slog.String("mode", string(mode)))

	collections, err := e.store.ListCollections(ctx)
	if err != nil {
		return r.res, fmt.Errorf("listing collections: %w", err)
	}

	for _, col := range collections {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}

		if !e.wantCollection(col.ID) {
			continue
		}

		if err := r.syncCollection(ctx, col); err != nil {
			r.fail("syncing collection", err, slog.String("collection", col.Name))
		}
	}

	e.notifier.Notice(r.res.Summary())

	return r.res, nil
}

// RunPull executes one remote-to-local run.
func (e *Engine) RunPull(ctx context.Context) (Result, error) {
	return e.Run(ctx, ModePull)
}

// RunPush executes one local-to-remote run.
func (e *Engine) RunPush(ctx context.Context) (Result, error) {
	return e.Run(ctx, ModePush)
}

// RunBidirectional executes one run transferring changes both ways.
func (e *Engine) RunBidirectional(ctx context.Context) (Result, error) {
	return e.Run(ctx, ModeBidirectional)
}

// wantCollection applies the configured collection filter.
func (e *Engine) wantCollection(id int64) bool {
	if len(e.collectionIDs) == 0 {
		return true
	}

	for _, want := range e.collectionIDs {
		if want == id {
			return true
		}
	}

	return false
}

// fail counts a non-fatal failure and logs it with context.
func (r *run) fail(msg string, err error, attrs ...slog.Attr) {
	r.res.Errors++

	args := make([]any, 0, len(attrs)+2)
	for _, a := range attrs {
		args = append(args, a)
	}

	args = append(args,
		slog.String("error", err.Error()),
		slog.Bool("transient", remote.IsTransient(err)),
	)

	r.e.logger.Warn(msg, args...)
}

// syncCollection reconciles one collection: its folder name, its
// sub-collections, its direct documents, and finally any untracked
// local additions.
func (r *run) syncCollection(ctx context.Context, col remote.Collection) error {
	detail, err := r.e.store.GetCollection(ctx, col.ID)
	if err != nil {
		return err
	}

	colPath := r.reconcileCollectionPath(detail.Collection)

	// Containers first so documents land in settled folders.
	for _, node := range detail.Contents {
		if node.Type != remote.NodeSubCollection {
			continue
		}

		if err := r.syncSubCollection(ctx, detail, node.ID); err != nil {
			r.fail("syncing subcollection", err,
				slog.String("collection", detail.Name),
				slog.String("subcollection", node.Name),
			)
		}
	}

	parent := docParent{
		collectionID:          detail.ID,
		collectionName:        detail.Name,
		collectionDescription: detail.Description,
	}

	for _, node := range detail.Contents {
		if node.Type != remote.NodeDocument {
			continue
		}

		ref := remote.DocumentRef{ID: node.ID, Name: node.Name, UpdatedAt: node.UpdatedAt}
		if err := r.syncDocument(ctx, parent, colPath, ref); err != nil {
			r.fail("syncing document", err,
				slog.String("collection", detail.Name),
				slog.String("document", node.Name),
			)
		}
	}

	if r.mode.pushes() {
		r.scanCollection(ctx, detail, colPath)
	}

	return nil
}

// syncSubCollection reconciles one sub-collection's folder and its
// documents.
func (r *run) syncSubCollection(ctx context.Context, col *remote.CollectionDetail, subID int64) error {
	detail, err := r.e.store.GetSubCollection(ctx, subID)
	if err != nil {
		return err
	}

	colPath, ok := r.cache.collections[col.ID]
	if !ok {
		colPath = r.reconcileCollectionPath(col.Collection)
	}

	subPath := r.reconcileSubCollectionPath(detail.SubCollection, colPath)

	parent := docParent{
		collectionID:          col.ID,
		collectionName:        col.Name,
		collectionDescription: col.Description,
		sub:                   &detail.SubCollection,
	}

	for _, ref := range detail.Documents {
		if err := r.syncDocument(ctx, parent, subPath, ref); err != nil {
			r.fail("syncing document", err,
				slog.String("subcollection", detail.Name),
				slog.String("document", ref.Name),
			)
		}
	}

	return nil
}

// docParent carries the container identity cached into each pulled
// document's metadata. sub is nil for documents living directly under
// their collection.
type docParent struct {
	collectionID          int64
	collectionName        string
	collectionDescription string
	sub                   *remote.SubCollection
}

// action is the per-document outcome of the decision table.
type action int

const (
	actionSkip action = iota
	actionPull
	actionPush
	actionConflict
)

// decide maps the run direction and the two change signals to an
// action. Single-direction modes never produce conflicts: the
// transferring side simply wins when it changed.
func decide(mode Mode, hasLocal, hasRemote bool) action {
	switch mode {
	case ModePull:
		if hasRemote {
			return actionPull
		}

		return actionSkip
	case ModePush:
		if hasLocal {
			return actionPush
		}

		return actionSkip
	default:
		switch {
		case hasLocal && hasRemote:
			return actionConflict
		case hasRemote:
			return actionPull
		case hasLocal:
			return actionPush
		default:
			return actionSkip
		}
	}
}

// syncDocument reconciles a single tracked document inside its
// container folder.
func (r *run) syncDocument(ctx context.Context, parent docParent, containerPath string, ref remote.DocumentRef) error {
	relPath, found := r.findDocument(ref.ID, containerPath)
	if !found {
		// No local counterpart: the remote version is authoritative by
		// definition, regardless of mode.
		target := r.pullTargetPath(containerPath, ref.Name)

		return r.pullDocument(ctx, parent, target, ref.ID)
	}

	relPath = r.reconcileDocumentPath(relPath, containerPath, ref)

	content, err := r.e.tree.ReadFile(relPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", relPath, err)
	}

	md, body := metadata.Parse(content)

	info, err := r.e.tree.Stat(relPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", relPath, err)
	}

	hasLocal, hasRemote := detectChanges(md.LastSynced, info.ModTime(), ref.UpdatedAt, r.e.buffer)

	switch decide(r.mode, hasLocal, hasRemote) {
	case actionSkip:
		r.res.Skipped++
		return nil
	case actionPull:
		return r.pullDocument(ctx, parent, relPath, ref.ID)
	case actionPush:
		return r.pushDocument(ctx, relPath, md, body)
	default:
		return r.resolveConflict(ctx, parent, relPath, info.ModTime(), body, md, ref)
	}
}

// pullDocument fetches the full document and writes it to targetPath.
func (r *run) pullDocument(ctx context.Context, parent docParent, targetPath string, docID int64) error {
	doc, err := r.e.store.GetDocument(ctx, docID)
	if err != nil {
		return err
	}

	body, err := r.documentBody(ctx, doc)
	if err != nil {
		return err
	}

	if err := r.writeDocument(doc, parent, targetPath, body); err != nil {
		return err
	}

	r.res.Pulled++

	r.e.logger.Debug("pulled document",
		slog.Int64("id", doc.ID),
		slog.String("path", targetPath),
	)

	return nil
}

// writeDocument serializes metadata plus body to targetPath. The
// last_synced stamp is taken before the write so it never exceeds the
// file's resulting modification time.
func (r *run) writeDocument(doc *remote.Document, parent docParent, targetPath string, body string) error {
	md := buildMetadata(doc, parent)
	md.LastSynced = time.Now().UTC().Format(time.RFC3339)

	var mtime time.Time
	if t, ok := parseTimestamp(doc.UpdatedAt); ok {
		mtime = t
	}

	if err := r.e.tree.WriteFile(targetPath, metadata.Serialize(md, []byte(body)), mtime); err != nil {
		return fmt.Errorf("writing %s: %w", targetPath, err)
	}

	r.cache.documents[doc.ID] = targetPath

	return nil
}

// documentBody chooses the markdown representation of a document: the
// stored markdown source when present, else the server-side export,
// else a local conversion of the HTML body.
func (r *run) documentBody(ctx context.Context, doc *remote.Document) (string, error) {
	if doc.Markdown != "" {
		return doc.Markdown, nil
	}

	exported, err := r.e.store.ExportMarkdown(ctx, doc.ID)
	if err == nil {
		return exported, nil
	}

	r.e.logger.Debug("markdown export failed, converting HTML",
		slog.Int64("id", doc.ID),
		slog.String("error", err.Error()),
	)

	converted, convErr := r.e.conv.Markdown(doc.HTML)
	if convErr != nil {
		return "", fmt.Errorf("document %d has no usable body: export: %v, convert: %w", doc.ID, err, convErr)
	}

	return converted, nil
}

// buildMetadata assembles the metadata block for a pulled document.
func buildMetadata(doc *remote.Document, parent docParent) metadata.Metadata {
	md := metadata.Metadata{
		Title:                 doc.Name,
		RemoteID:              doc.ID,
		CollectionID:          parent.collectionID,
		CollectionName:        parent.collectionName,
		CollectionDescription: parent.collectionDescription,
		Created:               doc.CreatedAt,
		Updated:               doc.UpdatedAt,
	}

	if parent.sub != nil {
		subID := parent.sub.ID
		md.SubCollectionID = &subID
		md.SubCollectionName = parent.sub.Name
		md.SubCollectionDescription = parent.sub.Description
	}

	return md
}

// pushDocument uploads the local body and re-stamps the file's metadata
// with the server's resulting update time.
func (r *run) pushDocument(ctx context.Context, relPath string, md metadata.Metadata, body []byte) error {
	resp, err := r.e.store.UpdateDocument(ctx, md.RemoteID, remote.UpdateDocumentRequest{
		Markdown: string(body),
	})
	if err != nil {
		return err
	}

	md.Updated = resp.UpdatedAt
	md.LastSynced = time.Now().UTC().Format(time.RFC3339)

	if err := r.e.tree.WriteFile(relPath, metadata.Serialize(md, body), time.Time{}); err != nil {
		return fmt.Errorf("writing %s after push: %w", relPath, err)
	}

	r.res.Pushed++

	r.e.logger.Debug("pushed document",
		slog.Int64("id", md.RemoteID),
		slog.String("path", relPath),
	)

	return nil
}

// resolveConflict fetches the remote body, asks the configured resolver
// to pick a side, and applies the choice. Deferring leaves both sides
// untouched.
func (r *run) resolveConflict(ctx context.Context, parent docParent, relPath string, localModified time.Time, localBody []byte, md metadata.Metadata, ref remote.DocumentRef) error {
	doc, err := r.e.store.GetDocument(ctx, ref.ID)
	if err != nil {
		return err
	}

	remoteBody, err := r.documentBody(ctx, doc)
	if err != nil {
		return err
	}

	choice, err := r.e.conflicts.Resolve(ctx, Conflict{
		Path:          relPath,
		DocumentID:    ref.ID,
		Name:          ref.Name,
		LocalBody:     string(localBody),
		RemoteBody:    remoteBody,
		LocalModified: localModified,
		RemoteUpdated: ref.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("resolving conflict on %s: %w", relPath, err)
	}

	switch choice {
	case ChoiceKeepLocal:
		return r.pushDocument(ctx, relPath, md, localBody)
	case ChoiceKeepRemote:
		if err := r.writeDocument(doc, parent, relPath, remoteBody); err != nil {
			return err
		}

		r.res.Pulled++

		return nil
	default:
		r.res.Skipped++
		return nil
	}
}
