package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/repository"
)

type GameInput struct {
	Title       string
	Description string
	Price       float64
	Platform    string
	Genre       string
	ReleaseDate string
	Image       *string
}

type GameUpdate struct {
	Title       *string
	Description *string
	Price       *float64
	Platform    *string
	Genre       *string
	ReleaseDate *string
	Image       *string
	RemoveImage bool
}

// GameService never unlinks image files; ImageReconciler removes files no
// row references any more.
type GameService struct {
	games repository.GameRepository
}

func NewGameService(games repository.GameRepository) *GameService {
	return &GameService{games: games}
}

func (s *GameService) Create(ctx context.Context, in GameInput) (*domain.Game, error) {
	image, err := cleanImagePath(in.Image)
	if err != nil {
		return nil, err
	}
	g := &domain.Game{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Platform:    domain.JoinSet(in.Platform),
		Genre:       domain.JoinSet(in.Genre),
		ReleaseDate: in.ReleaseDate,
		Image:       image,
	}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return g, nil
}

func (s *GameService) List(ctx context.Context) ([]domain.Game, error) {
	return s.games.List(ctx)
}

func (s *GameService) Get(ctx context.Context, id uint) (*domain.Game, error) {
	g, err := s.games.FindByID(ctx, id)
	if err != nil {
		return nil, mapGameErr(err)
	}
	return g, nil
}

// Update applies a partial update and returns the stored row afterwards.
func (s *GameService) Update(ctx context.Context, id uint, in GameUpdate) (*domain.Game, error) {
	image, err := cleanImagePath(in.Image)
	if err != nil {
		return nil, err
	}
	patch := repository.GamePatch{
		Title:       trimmed(in.Title),
		Description: trimmed(in.Description),
		Price:       in.Price,
		ReleaseDate: in.ReleaseDate,
		Image:       image,
		ClearImage:  in.RemoveImage,
	}
	if in.Platform != nil {
		v := domain.JoinSet(*in.Platform)
		patch.Platform = &v
	}
	if in.Genre != nil {
		v := domain.JoinSet(*in.Genre)
		patch.Genre = &v
	}
	if patch.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	if _, err := s.games.Update(ctx, id, patch); err != nil {
		return nil, mapGameErr(err)
	}
	return s.Get(ctx, id)
}

func (s *GameService) Delete(ctx context.Context, id uint) error {
	_, err := s.games.Delete(ctx, id)
	return mapGameErr(err)
}

func cleanImagePath(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil, nil
	}
	v = filepath.ToSlash(filepath.Clean(v))
	if !filepath.IsLocal(v) {
		return nil, ErrInvalidImagePath
	}
	return &v, nil
}

func mapGameErr(err error) error {
	if errors.Is(err, repository.ErrGameNotFound) {
		return ErrGameNotFound
	}
	return err
}
