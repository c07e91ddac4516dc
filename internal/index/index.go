package index

import (
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	bindex "github.com/blevesearch/bleve_index_api"
	"github.com/gofrs/flock"
	"go.etcd.io/bbolt"
)

// Index is the shared handle to one on-disk index. It is opened once per
// process and is safe for concurrent readers; mutation goes through Apply,
// which the engine's committer calls from a single goroutine.
type Index struct {
	root   string
	name   string
	uuid   string
	schema Schema

	b    bleve.Index
	adv  bindex.Index
	meta *bbolt.DB
	lk   *flock.Flock

	// gen counts applied batches. Searchers compare against it to decide
	// whether a refresh needs a new snapshot.
	gen atomic.Uint64
}

func newIndex(b bleve.Index, root, name, id string, schema Schema, meta *bbolt.DB, lk *flock.Flock) (*Index, error) {
	adv, err := b.Advanced()
	if err != nil {
		_ = meta.Close()
		_ = b.Close()
		_ = lk.Unlock()
		return nil, err
	}
	return &Index{
		root:   root,
		name:   name,
		uuid:   id,
		schema: schema,
		b:      b,
		adv:    adv,
		meta:   meta,
		lk:     lk,
	}, nil
}

func (ix *Index) Root() string   { return ix.root }
func (ix *Index) Name() string   { return ix.name }
func (ix *Index) UUID() string   { return ix.uuid }
func (ix *Index) Schema() Schema { return ix.schema }

// Generation returns the number of batches committed so far.
func (ix *Index) Generation() uint64 {
	return ix.gen.Load()
}

// NewBatch returns an empty batch bound to this index.
func (ix *Index) NewBatch() *bleve.Batch {
	return ix.b.NewBatch()
}

// Apply executes a batch against the index and, on success, advances the
// commit generation. Callers must serialize Apply; the engine's committer is
// the only production caller.
func (ix *Index) Apply(batch *bleve.Batch) error {
	if err := ix.b.Batch(batch); err != nil {
		return err
	}
	ix.gen.Add(1)
	return nil
}

// Close releases the index, the manifest store, and the root lock.
func (ix *Index) Close() error {
	err := ix.b.Close()
	if merr := ix.meta.Close(); err == nil {
		err = merr
	}
	if lerr := ix.lk.Unlock(); err == nil {
		err = lerr
	}
	return err
}
