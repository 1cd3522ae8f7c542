package sheet

import (
	"context"
	"strconv"
)

// EngineFunc adapts a function to the formula collaborator boundary.
// The real evaluator lives outside this core; it only ever returns a
// computed value or an error, never a broadcast.
type EngineFunc func(ctx context.Context, formula string, docID string) (string, error)

func (f EngineFunc) Evaluate(ctx context.Context, formula string, docID string) (string, error) {
	return f(ctx, formula, docID)
}

// A1 renders a (row, col) pair as a spreadsheet cell reference, e.g.
// (0,0) -> "A1", (1,27) -> "AB2". Used by notification messages.
func A1(row, col int) string {
	letters := ""
	n := col
	for {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return letters + strconv.Itoa(row+1)
}
