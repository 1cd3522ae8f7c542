package collab

import (
	"context"
	"time"

	"GridSync/logger"
	"GridSync/tools/errs"
)

// CellChange is the transient mutation event: forwarded once, never
// retained.
type CellChange struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Value   string `json:"value"`
	Formula string `json:"formula,omitempty"`
	UserID  string `json:"userId"`
	Ts      int64  `json:"ts"`
}

// CellWriter is the persistence collaborator boundary for cell values.
type CellWriter interface {
	WriteCell(ctx context.Context, docID string, change CellChange) error
}

// FormulaEngine is the evaluation collaborator. It never produces
// broadcasts itself; the mutator only reports its result back to the
// origin caller.
type FormulaEngine interface {
	Evaluate(ctx context.Context, formula string, docID string) (string, error)
}

// Mutator relays cell changes. Conflict policy is last-write-wins at
// delivery time: recipients apply whatever arrives last, no merge.
type Mutator struct {
	bc     *Broadcaster
	cells  CellWriter
	engine FormulaEngine
}

func NewMutator(bc *Broadcaster, cells CellWriter, engine FormulaEngine) *Mutator {
	return &Mutator{bc: bc, cells: cells, engine: engine}
}

// PublishCellChange persists best-effort and forwards the change to
// every room member except the origin. A failed persistence write does
// not stop the broadcast; the error is surfaced to the origin caller.
func (m *Mutator) PublishCellChange(ctx context.Context, docID string, change CellChange, origin *Client) error {
	change.UserID = origin.UserID
	change.Ts = time.Now().UnixMilli()

	var evalErr error
	if change.Formula != "" && m.engine != nil {
		val, err := m.engine.Evaluate(ctx, change.Formula, docID)
		if err != nil {
			// Surfaced to the origin only; the raw value still fans out.
			evalErr = errs.ErrValidation.WithDetail("formula: " + err.Error())
		} else {
			change.Value = val
		}
	}

	var writeErr error
	if m.cells != nil {
		if err := m.cells.WriteCell(ctx, docID, change); err != nil {
			logger.Warnf("[mutator] cell write failed doc=%s r=%d c=%d err=%v", docID, change.Row, change.Col, err)
			writeErr = errs.Upstream(err, "cell write")
		}
	}

	m.bc.RoomExcept(SheetRoom(docID), origin.ConnID, EvCellUpdate, change)

	if evalErr != nil {
		return evalErr
	}
	return writeErr
}
