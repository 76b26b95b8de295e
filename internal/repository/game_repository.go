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

var ErrGameNotFound = errors.New("game not found")

// GamePatch holds the columns of a partial game update. Nil fields are left
// untouched; ClearImage drops the stored image path.
type GamePatch struct {
	Title       *string
	Description *string
	Price       *float64
	Platform    *string
	Genre       *string
	ReleaseDate *string
	Image       *string
	ClearImage  bool
}

func (p GamePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Platform == nil &&
		p.Genre == nil && p.ReleaseDate == nil && p.Image == nil && !p.ClearImage
}

type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	FindByID(ctx context.Context, id uint) (*domain.Game, error)
	List(ctx context.Context) ([]domain.Game, error)
	Update(ctx context.Context, id uint, patch GamePatch) (*domain.Game, error)
	Delete(ctx context.Context, id uint) (*domain.Game, error)
	ReferencedImages(ctx context.Context) (map[string]struct{}, error)
}

type GormGameRepository struct{ db *gorm.DB }

func NewGameRepository(db *gorm.DB) GameRepository { return &GormGameRepository{db: db} }

func (r *GormGameRepository) Create(ctx context.Context, game *domain.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "game", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "game", "create", "success")
	return nil
}

func (r *GormGameRepository) FindByID(ctx context.Context, id uint) (*domain.Game, error) {
	var g domain.Game
	err := r.db.WithContext(ctx).First(&g, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "game", "find_by_id", "not_found")
			return nil, ErrGameNotFound
		}
		observability.RecordRepositoryOperation(ctx, "game", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "game", "find_by_id", "success")
	return &g, nil
}

func (r *GormGameRepository) List(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	if err := r.db.WithContext(ctx).Order("game_id ASC").Find(&games).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "game", "list", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "game", "list", "success")
	return games, nil
}

// Update locks the row, applies patch and returns the row as it was before the
// update, all in one transaction.
func (r *GormGameRepository) Update(ctx context.Context, id uint, patch GamePatch) (*domain.Game, error) {
	var before domain.Game
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGame(tx, id, &before); err != nil {
			return err
		}
		updates := map[string]any{"updated_at": time.Now().UTC()}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Price != nil {
			updates["price"] = *patch.Price
		}
		if patch.Platform != nil {
			updates["platform"] = *patch.Platform
		}
		if patch.Genre != nil {
			updates["genre"] = *patch.Genre
		}
		if patch.ReleaseDate != nil {
			updates["release_date"] = *patch.ReleaseDate
		}
		switch {
		case patch.Image != nil:
			updates["image"] = *patch.Image
		case patch.ClearImage:
			updates["image"] = nil
		}
		return tx.Model(&domain.Game{}).Where("game_id = ?", id).Updates(updates).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "game", "update", outcomeOf(err, ErrGameNotFound))
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "game", "update", "success")
	return &before, nil
}

// Delete removes the row and returns it as deleted.
func (r *GormGameRepository) Delete(ctx context.Context, id uint) (*domain.Game, error) {
	var before domain.Game
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGame(tx, id, &before); err != nil {
			return err
		}
		return tx.Delete(&domain.Game{}, id).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "game", "delete", outcomeOf(err, ErrGameNotFound))
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "game", "delete", "success")
	return &before, nil
}

// ReferencedImages returns the set of image paths still stored on a game row.
func (r *GormGameRepository) ReferencedImages(ctx context.Context) (map[string]struct{}, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&domain.Game{}).Where("image IS NOT NULL AND image <> ''").Pluck("image", &paths).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "game", "referenced_images", "error")
		return nil, err
	}
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		out[p] = struct{}{}
	}
	observability.RecordRepositoryOperation(ctx, "game", "referenced_images", "success")
	return out, nil
}

func lockGame(tx *gorm.DB, id uint, dst *domain.Game) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("game_id = ?", id).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrGameNotFound
	}
	return err
}

func outcomeOf(err, notFound error) string {
	if errors.Is(err, notFound) {
		return "not_found"
	}
	return "error"
}
