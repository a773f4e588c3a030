package audithook

// Action constants for audit events.
const (
	// Ingredient actions
	ActionIngredientCreated = "ingredient.created"
	ActionIngredientUpdated = "ingredient.updated"
	ActionIngredientDeleted = "ingredient.deleted"
	ActionLowStock          = "ingredient.low_stock"

	// Ledger actions
	ActionStockRecorded = "stock.recorded"

	// Recipe actions
	ActionRecipeCreated = "recipe.created"
	ActionRecipeUpdated = "recipe.updated"
	ActionRecipeDeleted = "recipe.deleted"

	// Production actions
	ActionProductionCompleted = "production.completed"
	ActionProductionFailed    = "production.failed"
)

// Resource constants for audit events.
const (
	ResourceIngredient = "ingredient"
	ResourceMovement   = "stock_movement"
	ResourceRecipe     = "recipe"
)

// Category constants for audit events.
const (
	CategoryInventory  = "inventory"
	CategoryRecipe     = "recipe"
	CategoryProduction = "production"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
