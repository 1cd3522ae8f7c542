package sheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GridSync/service/collab"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCells persists cell values through the storage collaborator.
// One document per (doc, row, col); writes are last-write-wins upserts.
type MongoCells struct {
	coll *mongo.Collection
}

func NewMongoCells(db *mongo.Database) *MongoCells {
	return &MongoCells{coll: db.Collection("cells")}
}

func (s *MongoCells) WriteCell(ctx context.Context, docID string, change collab.CellChange) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"doc_id": docID, "row": change.Row, "col": change.Col},
		bson.M{"$set": bson.M{
			"value":      change.Value,
			"formula":    change.Formula,
			"updated_by": change.UserID,
			"updated_at": time.Now().UnixMilli(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// MemCells is the in-memory fallback used in tests and single-node
// runs without mongo.
type MemCells struct {
	mu    sync.RWMutex
	cells map[string]collab.CellChange // "<doc>/<row>/<col>" -> last write
}

func NewMemCells() *MemCells {
	return &MemCells{cells: make(map[string]collab.CellChange)}
}

func cellKey(docID string, row, col int) string {
	return fmt.Sprintf("%s/%d/%d", docID, row, col)
}

func (s *MemCells) WriteCell(_ context.Context, docID string, change collab.CellChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[cellKey(docID, change.Row, change.Col)] = change
	return nil
}

func (s *MemCells) Read(docID string, row, col int) (collab.CellChange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cells[cellKey(docID, row, col)]
	return c, ok
}
