package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	lockFile      = ".pooldex.lock"
	bleveMetaFile = "index_meta.json"
)

// Create makes a new index under root. An empty name selects the unnamed
// default index, which lives in root itself; a named index lives in
// root/<name>.
//
// The directory-state preconditions are checked in order before anything is
// written:
//  1. root exists and is not a directory
//  2. root is a non-empty directory with no index under name
//  3. an index exists under name and clear is false
//
// The first one that holds fails with *DirectoryExistsError. With clear set,
// an existing index under name is removed and recreated.
func Create(root, name string, schema Schema, clear bool) (*Index, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	root = filepath.Clean(root)

	st, err := os.Stat(root)
	switch {
	case err == nil && !st.IsDir():
		return nil, &DirectoryExistsError{Dir: root, Reason: ReasonNotADirectory}
	case err != nil && !os.IsNotExist(err):
		return nil, err
	}
	rootIsDir := err == nil

	if rootIsDir {
		hasIdx, err := existsIn(root, name)
		if err != nil {
			return nil, err
		}
		nonEmpty, err := dirNonEmpty(root)
		if err != nil {
			return nil, err
		}
		if !hasIdx && nonEmpty {
			return nil, &DirectoryExistsError{Dir: root, Reason: ReasonUnrelatedContent}
		}
		if hasIdx && !clear {
			return nil, &DirectoryExistsError{Dir: root, Reason: ReasonIndexExists}
		}
	}

	// Either root is absent, or it is an empty directory, or it holds an
	// index under name and clear allows replacing it.
	if !rootIsDir {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
	}

	lk := flock.New(filepath.Join(root, lockFile))
	locked, err := lk.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("index root %q is locked by another process", root)
	}

	path := indexPath(root, name)
	if path != root {
		if err := os.RemoveAll(path); err != nil {
			_ = lk.Unlock()
			return nil, err
		}
	} else {
		// The default index shares the root directory; clear just its files.
		if err := clearIndexFiles(root); err != nil {
			_ = lk.Unlock()
			return nil, err
		}
	}

	m, err := schema.buildMapping()
	if err != nil {
		_ = lk.Unlock()
		return nil, err
	}
	b, err := bleve.New(path, m)
	if err != nil {
		_ = lk.Unlock()
		return nil, err
	}

	meta, err := openManifest(filepath.Join(root, manifestFile))
	if err != nil {
		_ = b.Close()
		_ = lk.Unlock()
		return nil, err
	}
	entry := manifestEntry{
		UUID:      uuid.NewString(),
		Name:      name,
		Schema:    schema,
		CreatedAt: nowUnix(),
	}
	if err := putManifestEntry(meta, entry); err != nil {
		_ = meta.Close()
		_ = b.Close()
		_ = lk.Unlock()
		return nil, err
	}

	return newIndex(b, root, name, entry.UUID, schema, meta, lk)
}

// Open opens an existing index under root. Errors from the underlying index
// are propagated unchanged.
func Open(root, name string) (*Index, error) {
	root = filepath.Clean(root)

	lk := flock.New(filepath.Join(root, lockFile))
	locked, err := lk.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("index root %q is locked by another process", root)
	}

	b, err := bleve.Open(indexPath(root, name))
	if err != nil {
		_ = lk.Unlock()
		return nil, err
	}

	meta, err := openManifest(filepath.Join(root, manifestFile))
	if err != nil {
		_ = b.Close()
		_ = lk.Unlock()
		return nil, err
	}
	entry, ok, err := getManifestEntry(meta, name)
	if err != nil {
		_ = meta.Close()
		_ = b.Close()
		_ = lk.Unlock()
		return nil, err
	}
	if !ok {
		// Index predates the manifest; register it now.
		entry = manifestEntry{UUID: uuid.NewString(), Name: name, CreatedAt: nowUnix()}
		if err := putManifestEntry(meta, entry); err != nil {
			_ = meta.Close()
			_ = b.Close()
			_ = lk.Unlock()
			return nil, err
		}
	}

	return newIndex(b, root, name, entry.UUID, entry.Schema, meta, lk)
}

// ExistsIn reports whether root holds a valid index under name.
func ExistsIn(root, name string) (bool, error) {
	return existsIn(filepath.Clean(root), name)
}

func existsIn(root, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(indexPath(root, name), bleveMetaFile))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func indexPath(root, name string) string {
	if name == "" {
		return root
	}
	return filepath.Join(root, name)
}

// dirNonEmpty ignores this package's own control files; a root holding only
// the lock or manifest left by an earlier handle is still "empty".
func dirNonEmpty(root string) (bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Name() == lockFile || e.Name() == manifestFile {
			continue
		}
		return true, nil
	}
	return false, nil
}

// clearIndexFiles removes everything under root except the lock file, so a
// cleared default index does not drag stale segments into the new one.
func clearIndexFiles(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == lockFile {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
