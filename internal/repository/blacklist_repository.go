package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/observability"
)

type BlacklistRepository interface {
	Create(ctx context.Context, entry *domain.BlacklistedToken) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	Count(ctx context.Context) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormBlacklistRepository struct{ db *gorm.DB }

func NewBlacklistRepository(db *gorm.DB) BlacklistRepository { return &GormBlacklistRepository{db: db} }

// Create inserts entry; inserting a hash that is already present is a no-op.
func (r *GormBlacklistRepository) Create(ctx context.Context, entry *domain.BlacklistedToken) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "blacklist", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "blacklist", "create", "success")
	return nil
}

func (r *GormBlacklistRepository) Exists(ctx context.Context, tokenHash string) (bool, error) {
	var entry domain.BlacklistedToken
	err := r.db.WithContext(ctx).Select("token_hash").Where("token_hash = ?", tokenHash).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "blacklist", "exists", "not_found")
			return false, nil
		}
		observability.RecordRepositoryOperation(ctx, "blacklist", "exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "blacklist", "exists", "success")
	return true, nil
}

func (r *GormBlacklistRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.BlacklistedToken{}).Count(&n).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "blacklist", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "blacklist", "count", "success")
	return n, nil
}

// DeleteExpired removes only entries whose token has already expired at now.
func (r *GormBlacklistRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.BlacklistedToken{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "blacklist", "delete_expired", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "blacklist", "delete_expired", "success")
	return res.RowsAffected, nil
}
