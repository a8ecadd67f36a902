package storage

import "fmt"

// BlockSize is the fixed size, in bytes, of every block a HeapFile
// allocates and every slotted.Page is constructed over (spec.md §3's
// BLOCK_SZ). Chosen at build time, as the spec prescribes; a
// config.Config's BlockSize field is advisory metadata recorded
// alongside a database's home directory, not a runtime override of this
// constant — the on-block format is fixed for a given build.
const BlockSize = 4096

// BlockID is the 1-based, dense, monotonically assigned identifier of a
// block within one relation's heap file.
type BlockID int64

func (b BlockID) String() string {
	return fmt.Sprintf("%d", int64(b))
}

// RecordID is a slot index local to one block, 1-based and never reused
// once tombstoned (spec.md §3).
type RecordID uint16

func (r RecordID) String() string {
	return fmt.Sprintf("%d", uint16(r))
}

// Handle is the stable identity of a logical row within one table: the
// pair (BlockID, RecordID). A Handle is a plain value — it does not pin
// or reference the row it names, and it stays valid only until that
// row is deleted.
type Handle struct {
	Block  BlockID
	Record RecordID
}

func (h Handle) String() string {
	return fmt.Sprintf("(%d,%d)", int64(h.Block), uint16(h.Record))
}
