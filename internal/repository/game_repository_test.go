package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/gamexhub/gamex-panel/internal/domain"
)

func seedGame(t *testing.T, repo GameRepository, title string, image *string) *domain.Game {
	t.Helper()
	g := &domain.Game{
		Title:       title,
		Description: "desc",
		Price:       9.99,
		Platform:    "Console",
		Genre:       "Shooter",
		ReleaseDate: "2024-01-02",
		Image:       image,
	}
	if err := repo.Create(context.Background(), g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func TestGameRepositoryUpdateReturnsPreviousRow(t *testing.T) {
	ctx := context.Background()
	repo := NewGameRepository(newDBForTest(t))
	g := seedGame(t, repo, "Doom", strPtr("old.png"))

	price := 19.5
	before, err := repo.Update(ctx, g.GameID, GamePatch{Price: &price, Image: strPtr("new.png")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if before.Image == nil || *before.Image != "old.png" {
		t.Fatalf("expected previous image, got %+v", before.Image)
	}
	after, err := repo.FindByID(ctx, g.GameID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if after.Price != 19.5 || after.Title != "Doom" || after.Image == nil || *after.Image != "new.png" {
		t.Fatalf("unexpected row after update: %+v", after)
	}

	if _, err := repo.Update(ctx, g.GameID, GamePatch{ClearImage: true}); err != nil {
		t.Fatalf("clear image: %v", err)
	}
	after, _ = repo.FindByID(ctx, g.GameID)
	if after.Image != nil {
		t.Fatalf("expected image cleared, got %q", *after.Image)
	}

	if _, err := repo.Update(ctx, 9999, GamePatch{Price: &price}); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGameRepositoryDeleteAndReferencedImages(t *testing.T) {
	ctx := context.Background()
	repo := NewGameRepository(newDBForTest(t))
	a := seedGame(t, repo, "A", strPtr("a.png"))
	seedGame(t, repo, "B", strPtr("b.png"))
	seedGame(t, repo, "C", nil)

	deleted, err := repo.Delete(ctx, a.GameID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Title != "A" {
		t.Fatalf("unexpected deleted row: %+v", deleted)
	}
	if _, err := repo.Delete(ctx, a.GameID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	refs, err := repo.ReferencedImages(ctx)
	if err != nil {
		t.Fatalf("referenced images: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 referenced image, got %v", refs)
	}
	if _, ok := refs["b.png"]; !ok {
		t.Fatalf("expected b.png referenced, got %v", refs)
	}

	games, err := repo.List(ctx)
	if err != nil || len(games) != 2 {
		t.Fatalf("expected 2 games, got %d err=%v", len(games), err)
	}
}
