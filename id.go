package larder

import "github.com/xraph/larder/id"

// ID is the identifier type for every larder entity.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
