// Package movement defines the immutable entries of the stock ledger.
package movement

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
)

// Kind classifies a stock movement. The set is closed.
type Kind string

const (
	KindPurchase    Kind = "PURCHASE"
	KindConsumption Kind = "CONSUMPTION"
	KindAdjustment  Kind = "ADJUSTMENT"
	KindWaste       Kind = "WASTE"
	KindReturn      Kind = "RETURN"
)

var kinds = []Kind{KindPurchase, KindConsumption, KindAdjustment, KindWaste, KindReturn}

// Kinds returns every movement kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// KindError reports a movement kind string that matches no known kind.
type KindError struct {
	Value string
}

func (e *KindError) Error() string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("invalid movement type: '%s'. Valid types are: %s", e.Value, strings.Join(names, ", "))
}

// ParseKind converts external input into a Kind, ignoring case and
// surrounding whitespace.
func ParseKind(s string) (Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, k := range kinds {
		if string(k) == upper {
			return k, nil
		}
	}
	return "", &KindError{Value: s}
}

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Increases reports whether the kind adds to stock. ADJUSTMENT is always
// additive.
func (k Kind) Increases() bool {
	return k == KindPurchase || k == KindAdjustment
}

// Delta returns the signed stock change for a positive quantity.
func (k Kind) Delta(quantity decimal.Decimal) decimal.Decimal {
	if k.Increases() {
		return quantity
	}
	return quantity.Neg()
}

// Movement is one immutable ledger entry. NewStock always equals
// PreviousStock plus Delta().
type Movement struct {
	ID            id.MovementID   `json:"id"`
	IngredientID  id.IngredientID `json:"ingredient_id"`
	Kind          Kind            `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reason        string          `json:"reason"`
	Notes         string          `json:"notes,omitempty"`
	PerformedBy   string          `json:"performed_by"`
	RecipeID      id.RecipeID     `json:"related_recipe_id,omitzero"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Delta returns the signed change this movement applies to stock.
func (m *Movement) Delta() decimal.Decimal {
	return m.Kind.Delta(m.Quantity)
}
