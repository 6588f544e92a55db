package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator creates stable UUIDv4 identifiers for campaign entities.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
