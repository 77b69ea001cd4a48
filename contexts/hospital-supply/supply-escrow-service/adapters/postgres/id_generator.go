package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator creates ids for events and outbox rows. Workflow request ids
// come from the database sequence, not from here.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
