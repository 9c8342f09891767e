// Package tree implements the local tree contract: enumerating,
// reading, writing, and renaming files and folders inside the sync
// root, with path traversal protection.
package tree

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// treeDirPerm is the permission mode for directories created inside
	// the sync root. Group and other get read+execute so editors can
	// browse the tree.
	treeDirPerm = fs.FileMode(0o755)

	// treeFilePerm is the permission mode for files written inside the
	// sync root.
	treeFilePerm = fs.FileMode(0o644)

	// headerReadLimit bounds metadata-only reads. Metadata blocks are a
	// handful of short lines; 8KB leaves generous room.
	headerReadLimit = 8 * 1024
)

// mtimeMin and mtimeMax clamp server-provided modification times to a
// reasonable range so a misbehaving server cannot set far-future or
// far-past timestamps that would confuse change detection.
var (
	mtimeMin = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	mtimeMax = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Tree provides thread-safe filesystem operations on the sync root.
// All writes are serialized by an exclusive lock; reads take a shared
// lock to avoid observing partial writes.
type Tree struct {
	dir string
	mu  sync.RWMutex
}

// New creates a Tree rooted at the given directory, creating it if it
// does not exist. The directory must be an absolute path (resolved at
// config load time).
func New(dir string) (*Tree, error) {
	if dir == "" {
		return nil, fmt.Errorf("sync directory must not be empty")
	}

	if err := os.MkdirAll(dir, treeDirPerm); err != nil {
		return nil, fmt.Errorf("creating sync directory %s: %w", dir, err)
	}

	return &Tree{dir: dir}, nil
}

// Dir returns the root directory of the tree.
func (t *Tree) Dir() string {
	return t.dir
}

// ListDir returns the immediate children of a relative path. Listing
// the root is requested with "." or "".
func (t *Tree) ListDir(relPath string) ([]fs.DirEntry, error) {
	absPath, err := t.resolve(relPath)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return os.ReadDir(absPath)
}

// ReadFile reads a file by relative path.
func (t *Tree) ReadFile(relPath string) ([]byte, error) {
	absPath, err := t.resolve(relPath)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return os.ReadFile(absPath) //nolint:gosec // G304: absPath validated by Tree.resolve
}

// ReadHeader reads at most the first few kilobytes of a file, enough to
// cover an embedded metadata block without pulling the full body.
func (t *Tree) ReadHeader(relPath string) ([]byte, error) {
	absPath, err := t.resolve(relPath)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	f, err := os.Open(absPath) //nolint:gosec // G304: absPath validated by Tree.resolve
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := io.ReadAll(io.LimitReader(f, headerReadLimit))
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", relPath, err)
	}

	return header, nil
}

// WriteFile writes content to a file by relative path, creating parent
// directories as needed. If mtime is non-zero, the file's modification
// time is set to that value after writing.
func (t *Tree) WriteFile(relPath string, data []byte, mtime time.Time) error {
	absPath, err := t.resolve(relPath)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, treeDirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", relPath, err)
	}

	if err := os.WriteFile(absPath, data, treeFilePerm); err != nil {
		return err
	}

	if !mtime.IsZero() {
		mtime = clampMtime(mtime)
		if err := os.Chtimes(absPath, mtime, mtime); err != nil {
			return fmt.Errorf("setting mtime for %s: %w", relPath, err)
		}
	}

	return nil
}

// MkdirAll creates a directory (and parents) by relative path.
func (t *Tree) MkdirAll(relPath string) error {
	absPath, err := t.resolve(relPath)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return os.MkdirAll(absPath, treeDirPerm)
}

// Rename moves a file or directory from one relative path to another
// within the tree, preserving its contents. Works for non-empty
// directories.
func (t *Tree) Rename(oldRel, newRel string) error {
	oldAbs, err := t.resolve(oldRel)
	if err != nil {
		return err
	}

	newAbs, err := t.resolve(newRel)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(newAbs), treeDirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", newRel, err)
	}

	return os.Rename(oldAbs, newAbs)
}

// Stat returns file info for a relative path.
func (t *Tree) Stat(relPath string) (os.FileInfo, error) {
	absPath, err := t.resolve(relPath)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return os.Stat(absPath)
}

// resolve converts a relative path to an absolute path within the sync
// root, rejecting path traversal attempts: null bytes, ".." segments,
// and symlinks that escape the root.
func (t *Tree) resolve(relPath string) (string, error) {
	if relPath == "" || relPath == "." {
		return t.dir, nil
	}

	if strings.ContainsRune(relPath, 0) {
		return "", fmt.Errorf("path contains null byte: %q", relPath)
	}

	// Normalize backslashes so the ".." segment check below catches
	// Windows-style traversal like "foo\..\..\etc".
	relPath = strings.ReplaceAll(relPath, "\\", "/")

	for _, seg := range strings.Split(relPath, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path contains ..: %q", relPath)
		}
	}

	absPath := filepath.Join(t.dir, relPath)
	if !strings.HasPrefix(absPath, t.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path traversal blocked: %q resolves outside sync dir", relPath)
	}

	// Resolve symlinks and verify the real path stays within the root.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			// New file or folder: check the parent instead. A parent
			// symlink pointing outside is still a traversal.
			parentReal, pErr := filepath.EvalSymlinks(filepath.Dir(absPath))
			if pErr != nil {
				// Parent doesn't exist either; MkdirAll will create it
				// and the prefix check above already passed.
				return absPath, nil //nolint:nilerr // intentional: parent created later by MkdirAll
			}

			rootPrefix := t.dir + string(os.PathSeparator)
			if !strings.HasPrefix(parentReal+string(os.PathSeparator), rootPrefix) && parentReal != t.dir {
				return "", fmt.Errorf("symlink traversal blocked: parent of %q resolves to %q outside sync dir", relPath, parentReal)
			}

			return absPath, nil
		}

		return "", fmt.Errorf("resolving symlinks for %q: %w", relPath, err)
	}

	if !strings.HasPrefix(realPath, t.dir+string(os.PathSeparator)) && realPath != t.dir {
		return "", fmt.Errorf("symlink traversal blocked: %q resolves to %q outside sync dir", relPath, realPath)
	}

	return absPath, nil
}

// clampMtime restricts a timestamp to the range [2000, 2100).
func clampMtime(t time.Time) time.Time {
	if t.Before(mtimeMin) {
		return mtimeMin
	}

	if t.After(mtimeMax) {
		return mtimeMax
	}

	return t
}

// invalidNameChars are characters that cannot appear in file or folder
// names across the filesystems the tree may live on.
const invalidNameChars = `/\:*?"<>|`

// SanitizeName converts a remote entity name into a filesystem-safe
// file or folder name: Unicode NFC normalization, invalid characters
// replaced with "-", whitespace collapsed, and leading/trailing dots
// and spaces trimmed. An empty result falls back to "Untitled".
func SanitizeName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "\u00A0", " ")
	name = strings.ReplaceAll(name, "\u202F", " ")

	var b strings.Builder

	for _, r := range name {
		switch {
		case strings.ContainsRune(invalidNameChars, r):
			b.WriteRune('-')
		case r < 0x20:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = strings.Trim(cleaned, ". ")

	if cleaned == "" {
		return "Untitled"
	}

	return cleaned
}
