package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openprep/sat-import-service/internal/cache"
	"github.com/openprep/sat-import-service/internal/models"
	"github.com/openprep/sat-import-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db    *gorm.DB
	cache *cache.ExistenceCache
}

// NewQuestionPostgreSQL creates the Postgres-backed question sink. The
// existence cache may be nil, in which case every pre-check hits the
// database.
func NewQuestionPostgreSQL(db *gorm.DB, existenceCache *cache.ExistenceCache) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:    db,
		cache: existenceCache,
	}
}

// Upsert inserts the record, ignoring conflicts on its identity column. The
// backend cannot distinguish "already exists" from other zero-row outcomes,
// so callers should run the existence pre-check first and treat created ==
// false as a duplicate.
func (r *QuestionPostgreSQL) Upsert(ctx context.Context, question *models.Question) (bool, error) {
	column := question.IdentityColumn()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: column}},
			DoNothing: true,
		}).
		Create(question)

	if result.Error != nil {
		return false, fmt.Errorf("failed to upsert question %s: %w", question.IdentityValue(), result.Error)
	}

	r.cache.MarkSeen(ctx, column, question.IdentityValue())
	return result.RowsAffected > 0, nil
}

func (r *QuestionPostgreSQL) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	return r.exists(ctx, "sat_external_id", externalID)
}

func (r *QuestionPostgreSQL) ExistsByIBN(ctx context.Context, ibn string) (bool, error) {
	return r.exists(ctx, "sat_ibn", ibn)
}

func (r *QuestionPostgreSQL) exists(ctx context.Context, column, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	if r.cache.Seen(ctx, column, id) {
		return true, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where(column+" = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check question existence by %s: %w", column, err)
	}

	if count > 0 {
		r.cache.MarkSeen(ctx, column, id)
	}
	return count > 0, nil
}
