// Package target implements create, get and list for the Target entity
// (spec.md §3, supplemented by SPEC_FULL §4.12), following nightowl's
// pkg/incident layout as a Store/Handler split with no service layer.
package target

import (
	"time"

	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/pkg/scope"
)

// Target is a single in-scope reconnaissance subject.
type Target struct {
	ID          uuid.UUID
	Name        string
	Scope       scope.Config
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
