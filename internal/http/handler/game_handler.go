package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/http/response"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/service"
	"github.com/gamexhub/gamex-panel/internal/validation"
)

type gameCreateRequest struct {
	Title       string  `json:"title" validate:"notblank"`
	Description string  `json:"description" validate:"notblank"`
	Price       float64 `json:"price" validate:"gt=0"`
	Platform    string  `json:"platform" validate:"platforms"`
	Genre       string  `json:"genre" validate:"genres"`
	ReleaseDate string  `json:"release_date" validate:"isodate"`
	Image       *string `json:"image"`
}

type gameUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,notblank"`
	Description *string  `json:"description" validate:"omitempty,notblank"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Platform    *string  `json:"platform" validate:"omitempty,platforms"`
	Genre       *string  `json:"genre" validate:"omitempty,genres"`
	ReleaseDate *string  `json:"release_date" validate:"omitempty,isodate"`
	Image       *string  `json:"image"`
	RemoveImage bool     `json:"remove_image"`
}

type gameResponse struct {
	Message string       `json:"message"`
	Game    *domain.Game `json:"game"`
}

type GameHandler struct {
	games     service.GameServiceInterface
	validator *validation.Validator
}

func NewGameHandler(games service.GameServiceInterface, v *validation.Validator) *GameHandler {
	return &GameHandler{games: games, validator: v}
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req gameCreateRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	game, err := h.games.Create(r.Context(), service.GameInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Platform:    req.Platform,
		Genre:       req.Genre,
		ReleaseDate: req.ReleaseDate,
		Image:       req.Image,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "game.create", "success", "game_id", game.GameID)
	response.JSON(w, r, http.StatusCreated, gameResponse{Message: "game created", Game: game})
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if games == nil {
		games = []domain.Game{}
	}
	response.JSON(w, r, http.StatusOK, games)
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	game, err := h.games.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, game)
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var req gameUpdateRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	game, err := h.games.Update(r.Context(), id, service.GameUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Platform:    req.Platform,
		Genre:       req.Genre,
		ReleaseDate: req.ReleaseDate,
		Image:       req.Image,
		RemoveImage: req.RemoveImage,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "game.update", "success", "game_id", id)
	response.JSON(w, r, http.StatusOK, gameResponse{Message: "game updated", Game: game})
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	if err := h.games.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "game.delete", "success", "game_id", id)
	response.Message(w, r, http.StatusOK, "game deleted")
}

func gameID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "gameId"), 10, 0)
	if err != nil || n == 0 {
		response.ValidationErrors(w, r, validation.Errors{{Field: "gameId", Message: "gameId must be a positive integer"}})
		return 0, false
	}
	return uint(n), true
}
