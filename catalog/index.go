package catalog

// Index is the external collaborator spec.md §4.4 leaves unspecified:
// the catalog only maintains _indices rows, while the actual index
// structure's lifecycle is delegated to an implementation behind this
// interface. Grounded on original_source/heap_storage.h's DbIndex,
// trimmed to the two lifecycle calls the DDL executor drives
// (create_index and drop_index).
type Index interface {
	Create() error
	Drop() error
}

// NullIndex is a no-op Index, used wherever CREATE/DROP INDEX need an
// Index to call without this module implementing an actual index
// structure (spec.md's Non-goals explicitly exclude index
// implementations beyond catalog metadata).
type NullIndex struct{}

func (NullIndex) Create() error { return nil }
func (NullIndex) Drop() error   { return nil }
