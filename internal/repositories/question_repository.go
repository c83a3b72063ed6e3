package repositories

import (
	"context"

	"github.com/openprep/sat-import-service/internal/models"
)

// QuestionRepository is the persistence sink for canonical question records.
type QuestionRepository interface {
	// Upsert inserts the record keyed by its populated identity column with
	// ignore-on-conflict semantics. created is false when an existing row
	// already claimed the identity.
	Upsert(ctx context.Context, question *models.Question) (created bool, err error)

	// Existence pre-checks by vendor identity, used to classify duplicates
	// before attempting the upsert.
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	ExistsByIBN(ctx context.Context, ibn string) (bool, error)
}
