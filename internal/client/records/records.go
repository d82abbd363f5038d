// Package records talks to the remote record store holding one profile row
// per user. Lookups and updates are point operations keyed by user id.
package records

import (
	"context"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
)

// Store is the record store contract.
//
// Get returns common.ErrorNotFound when no row exists and an error wrapping
// common.ErrorTransient on connectivity failures. Update writes exactly the
// columns present in patch; common.ErrorPermission means the store refused
// the write.
type Store interface {
	Get(ctx context.Context, id string) (*models.ProfileRecord, error)
	Update(ctx context.Context, id string, patch models.ProfilePatch) error
}
