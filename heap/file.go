// Package heap implements the heap-file storage engine of spec.md §4:
// File is a block-addressed sequence of slotted.Page blocks backed by a
// pagestore.Manager; Table marshals typed rows into those blocks and
// exposes the handle-oriented relational API (insert/update/del/select/
// project) that the DDL layer and the catalog are built on.
package heap

import (
	"fmt"

	"github.com/luigitni/heapdb/pagestore"
	"github.com/luigitni/heapdb/slotted"
	"github.com/luigitni/heapdb/storage"
)

// File is one relation's worth of fixed-size blocks, each holding a
// slotted.Page. It mirrors the original's HeapFile: one pagestore file
// per relation, addressed by a dense 1-based BlockID that doubles as the
// pagestore record key.
type File struct {
	name  string
	store *pagestore.Manager
	last  storage.BlockID
}

// NewFile constructs a File for relation name rooted at homeDir. The
// backing store is not touched until Create or Open is called.
func NewFile(homeDir, name string) *File {
	path := homeDir + "/" + name + ".db"
	return &File{name: name, store: pagestore.New(path, storage.BlockSize)}
}

// Create creates the backing store (failing if it already exists) and
// allocates the file's first block, matching the original's
// HeapFile::create which always starts a relation with one empty block.
func (f *File) Create() error {
	if err := f.store.Open(pagestore.OpenCreateExclusive); err != nil {
		return fmt.Errorf("heap: create %s: %w", f.name, err)
	}

	if _, err := f.GetNew(); err != nil {
		return fmt.Errorf("heap: create %s: allocate first block: %w", f.name, err)
	}

	return nil
}

// Open opens an existing backing store, recovering the last block id
// from the store's record count.
func (f *File) Open() error {
	if err := f.store.Open(pagestore.OpenExisting); err != nil {
		return fmt.Errorf("heap: open %s: %w", f.name, err)
	}

	f.last = storage.BlockID(f.store.Stat())

	return nil
}

// Close releases the backing store's file handle.
func (f *File) Close() error {
	return f.store.Close()
}

// Drop closes and permanently deletes the backing store.
func (f *File) Drop() error {
	return f.store.Remove()
}

// GetNew allocates a fresh, empty block, persists it, and returns it.
func (f *File) GetNew() (*slotted.Page, error) {
	f.last++

	buf := make([]byte, storage.BlockSize)
	page, err := slotted.New(buf, f.last, true)
	if err != nil {
		return nil, err
	}

	if err := f.store.Put(int64(f.last), page.Bytes()); err != nil {
		return nil, fmt.Errorf("heap: allocate block %d: %w", f.last, err)
	}

	return page, nil
}

// Get loads the block numbered id.
func (f *File) Get(id storage.BlockID) (*slotted.Page, error) {
	buf, err := f.store.Get(int64(id))
	if err != nil {
		return nil, fmt.Errorf("heap: get block %d: %w", id, err)
	}

	return slotted.New(buf, id, false)
}

// Put persists page back to its block.
func (f *File) Put(page *slotted.Page) error {
	if err := f.store.Put(int64(page.BlockID()), page.Bytes()); err != nil {
		return fmt.Errorf("heap: put block %d: %w", page.BlockID(), err)
	}

	return nil
}

// Last returns the highest block id ever allocated for this file.
func (f *File) Last() storage.BlockID {
	return f.last
}

// BlockIDs returns every block id in the file, in ascending order.
func (f *File) BlockIDs() []storage.BlockID {
	ids := make([]storage.BlockID, 0, f.last)
	for i := storage.BlockID(1); i <= f.last; i++ {
		ids = append(ids, i)
	}

	return ids
}
