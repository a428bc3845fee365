package vaultsync

import "github.com/starford/parasync/internal/storage"

// overlay tracks the moves decided during a run. In a live run it mirrors
// the disk; in a dry run it stands in for the moves that were not made, so
// collision probing and pruning see the same tree either way.
type overlay struct {
	store   storage.Provider
	vacated map[string]struct{}
	claimed map[string]struct{}
}

func newOverlay(store storage.Provider) *overlay {
	return &overlay{
		store:   store,
		vacated: make(map[string]struct{}),
		claimed: make(map[string]struct{}),
	}
}

func (o *overlay) exists(path string) bool {
	if _, ok := o.claimed[path]; ok {
		return true
	}
	if _, ok := o.vacated[path]; ok {
		return false
	}
	return o.store.Exists(path)
}

func (o *overlay) move(from, to string) {
	o.vacated[from] = struct{}{}
	delete(o.claimed, from)
	o.claimed[to] = struct{}{}
	delete(o.vacated, to)
}

func (o *overlay) storage() storage.Overlay {
	return storage.Overlay{Removed: o.vacated, Added: o.claimed}
}
