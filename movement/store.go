package movement

import (
	"context"
	"time"

	"github.com/xraph/larder/id"
)

// Store persists the stock ledger.
type Store interface {
	// RecordMovement is the ledger's atomic unit: it reads the ingredient's
	// stock, adds m.Delta(), writes the new stock and inserts m with
	// PreviousStock and NewStock filled in. Either both writes happen or
	// neither does. Concurrent calls for the same ingredient never
	// interleave their read-modify-write.
	RecordMovement(ctx context.Context, m *Movement) error
	// ListMovements returns matching movements, newest first.
	ListMovements(ctx context.Context, opts ListOpts) ([]*Movement, error)
}

// ListOpts filters ledger listings. Zero fields do not filter. Start and
// End are inclusive.
type ListOpts struct {
	IngredientID id.IngredientID
	RecipeID     id.RecipeID
	Kind         Kind
	Start        time.Time
	End          time.Time
	Limit        int
	Offset       int
}

// Matches reports whether m satisfies the filter. Backends that filter in
// process use it.
func (o ListOpts) Matches(m *Movement) bool {
	if !o.IngredientID.IsNil() && m.IngredientID.String() != o.IngredientID.String() {
		return false
	}
	if !o.RecipeID.IsNil() && m.RecipeID.String() != o.RecipeID.String() {
		return false
	}
	if o.Kind != "" && m.Kind != o.Kind {
		return false
	}
	if !o.Start.IsZero() && m.CreatedAt.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && m.CreatedAt.After(o.End) {
		return false
	}
	return true
}
