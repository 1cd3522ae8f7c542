package sheet

import (
	"sync"

	"GridSync/service/collab"
)

type cellCoord struct {
	Row int
	Col int
}

// Reconciler is the client-side adapter that applies inbound cell
// broadcasts to local state without clobbering an in-progress local
// edit. While a cell is being edited, remote writes to it are parked;
// the latest parked write is applied when the edit ends (last write
// wins, same as the server's delivery policy).
type Reconciler struct {
	mu      sync.Mutex
	editing map[cellCoord]bool
	parked  map[cellCoord]collab.CellChange
	apply   func(collab.CellChange)
}

func NewReconciler(apply func(collab.CellChange)) *Reconciler {
	return &Reconciler{
		editing: make(map[cellCoord]bool),
		parked:  make(map[cellCoord]collab.CellChange),
		apply:   apply,
	}
}

// BeginEdit marks a cell as locally edited.
func (r *Reconciler) BeginEdit(row, col int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editing[cellCoord{row, col}] = true
}

// EndEdit releases the cell and applies the newest parked remote
// write, if any arrived during the edit.
func (r *Reconciler) EndEdit(row, col int) {
	k := cellCoord{row, col}
	r.mu.Lock()
	delete(r.editing, k)
	parked, ok := r.parked[k]
	if ok {
		delete(r.parked, k)
	}
	r.mu.Unlock()
	if ok {
		r.apply(parked)
	}
}

// Apply routes an inbound broadcast: applied immediately unless the
// target cell is mid-edit. Returns whether it was applied now.
func (r *Reconciler) Apply(change collab.CellChange) bool {
	k := cellCoord{change.Row, change.Col}
	r.mu.Lock()
	if r.editing[k] {
		r.parked[k] = change
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()
	r.apply(change)
	return true
}
