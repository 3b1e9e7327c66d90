package hookfreight

import "github.com/hookfreight/hookfreight/internal/entity"

// Entity is the base type embedded by HookFreight domain objects that track
// a creation timestamp.
type Entity = entity.Entity

// NewEntity returns an Entity stamped with the current UTC time.
func NewEntity() Entity {
	return entity.New()
}
