package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retrodrome/backend/internal/catalog"
	"retrodrome/backend/internal/hub"
	"retrodrome/backend/internal/models"
	"retrodrome/backend/internal/platform"
	"retrodrome/backend/internal/repository"
)

// region --- DTOs ---

// GameResponse is one catalog title with its rating summary.
type GameResponse struct {
	ID            uint     `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Year          int      `json:"year"`
	Platform      string   `json:"platform"`
	PlatformLabel string   `json:"platform_label"`
	Tags          []string `json:"tags"`
	Featured      bool     `json:"featured"`
	RomURL        string   `json:"rom_url"`
	ScreenshotURL string   `json:"screenshot_url"`
	Screenshots   []string `json:"screenshots"`
	AverageRating float64  `json:"average_rating"`
	RatingCount   int      `json:"rating_count"`
	UserRating    int      `json:"user_rating"`
}

func newGameResponse(game models.Game, userID string) GameResponse {
	return GameResponse{
		ID:            game.ID,
		Slug:          game.Slug,
		Title:         game.Title,
		Description:   game.Description,
		Year:          game.Year,
		Platform:      game.Platform,
		PlatformLabel: platform.LabelFor(game.Platform),
		Tags:          game.GetTags(),
		Featured:      game.Featured,
		RomURL:        game.RomURL,
		ScreenshotURL: game.ScreenshotURL,
		Screenshots:   game.GetScreenshots(),
		AverageRating: models.AverageRating(&game),
		RatingCount:   models.RatingCount(&game),
		UserRating:    models.UserRating(&game, userID),
	}
}

// CatalogMeta reports the cache store's state alongside the game list.
type CatalogMeta struct {
	Fetched bool   `json:"fetched"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// CatalogResponse is the full catalog plus cache metadata.
type CatalogResponse struct {
	Data []GameResponse `json:"data"`
	Meta CatalogMeta    `json:"meta"`
}

// PlayResponse is the pair the embedded emulator needs to launch a game.
type PlayResponse struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Core          string `json:"core,omitempty"`
	PlatformLabel string `json:"platform_label"`
	RomURL        string `json:"rom_url"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// endregion

// GameHandler serves the public catalog routes from the cache store and
// the repository.
type GameHandler struct {
	store *catalog.Store
	repo  *repository.GameRepository
	hub   *hub.Hub
	log   *zap.Logger
}

func NewGameHandler(store *catalog.Store, repo *repository.GameRepository, h *hub.Hub, log *zap.Logger) *GameHandler {
	return &GameHandler{store: store, repo: repo, hub: h, log: log}
}

// contextVoter returns the votes-map key for the authenticated caller,
// or "" when the request is anonymous.
func contextVoter(c *gin.Context) string {
	if userID, exists := c.Get("userID"); exists {
		return strconv.FormatUint(uint64(userID.(uint)), 10)
	}
	return ""
}

// ListGames godoc
// @Summary      List the game catalog
// @Description  Returns every game from the in-memory catalog cache. The cache is filled on first request and reused afterwards; pass refresh=true to force a refetch.
// @Tags         games
// @Produce      json
// @Param        refresh query bool false "Force a refetch from the store"
// @Success      200 {object} CatalogResponse
// @Failure      502 {object} ErrorResponse "Catalog could not be loaded"
// @Router       /games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("refresh"))

	if err := h.store.Fetch(c.Request.Context(), force); err != nil {
		h.log.Warn("catalog fetch failed", zap.Error(err))
	}

	snap := h.store.Snapshot()
	if !snap.Fetched {
		c.JSON(http.StatusBadGateway, gin.H{"error": snap.Error})
		return
	}

	c.JSON(http.StatusOK, h.catalogResponse(snap, contextVoter(c)))
}

// GetFeaturedGames godoc
// @Summary      List featured games
// @Description  Returns the featured subset of the cached catalog.
// @Tags         games
// @Produce      json
// @Success      200 {object} CatalogResponse
// @Failure      502 {object} ErrorResponse "Catalog could not be loaded"
// @Router       /games/featured [get]
func (h *GameHandler) GetFeaturedGames(c *gin.Context) {
	if err := h.store.Fetch(c.Request.Context(), false); err != nil {
		h.log.Warn("catalog fetch failed", zap.Error(err))
	}

	snap := h.store.Snapshot()
	if !snap.Fetched {
		c.JSON(http.StatusBadGateway, gin.H{"error": snap.Error})
		return
	}

	voter := contextVoter(c)
	response := CatalogResponse{
		Data: []GameResponse{},
		Meta: CatalogMeta{Fetched: snap.Fetched, Loading: snap.Loading, Error: snap.Error},
	}
	for _, game := range h.store.Featured() {
		response.Data = append(response.Data, newGameResponse(game, voter))
	}

	c.JSON(http.StatusOK, response)
}

// GetGameBySlug godoc
// @Summary      Get a single game by slug
// @Description  Always queries the store directly; detail views bypass the list cache.
// @Tags         games
// @Produce      json
// @Param        slug path string true "Game slug"
// @Success      200 {object} GameResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      500 {object} ErrorResponse
// @Router       /games/{slug} [get]
func (h *GameHandler) GetGameBySlug(c *gin.Context) {
	game, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		h.log.Error("game lookup failed", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve game"})
		return
	}

	c.JSON(http.StatusOK, newGameResponse(*game, contextVoter(c)))
}

// GetPlayConfig godoc
// @Summary      Get emulator launch config for a game
// @Description  Returns the (core, rom_url) pair the embedded emulator consumes. An unknown platform yields an empty core rather than an error.
// @Tags         games
// @Produce      json
// @Param        slug path string true "Game slug"
// @Success      200 {object} PlayResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{slug}/play [get]
func (h *GameHandler) GetPlayConfig(c *gin.Context) {
	game, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve game"})
		return
	}

	core, _ := platform.CoreFor(game.Platform)
	c.JSON(http.StatusOK, PlayResponse{
		Slug:          game.Slug,
		Title:         game.Title,
		Core:          core,
		PlatformLabel: platform.LabelFor(game.Platform),
		RomURL:        game.RomURL,
	})
}

// ListPlatforms godoc
// @Summary      List supported platforms
// @Description  Returns all platforms sorted by display label.
// @Tags         games
// @Produce      json
// @Success      200 {array} platform.Entry
// @Router       /platforms [get]
func (h *GameHandler) ListPlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, platform.Entries())
}

// RateInput is the rating submission body.
type RateInput struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// RateGame godoc
// @Summary      Rate a game
// @Description  Sets the caller's vote on a game (one vote per user, a later vote replaces the earlier one) and returns the updated rating summary.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path string    true "Game slug"
// @Param        input body RateInput true "Rating (1-5)"
// @Success      200 {object} GameResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      502 {object} ErrorResponse "Vote could not be stored"
// @Router       /games/{slug}/rate [post]
func (h *GameHandler) RateGame(c *gin.Context) {
	userID, _ := c.Get("userID")
	voter := strconv.FormatUint(uint64(userID.(uint)), 10)

	var input RateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve game"})
		return
	}

	if err := h.repo.RateGame(c.Request.Context(), game.ID, voter, input.Rating); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		h.log.Error("rating write failed", zap.String("slug", game.Slug), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store rating"})
		return
	}

	// The write touched only the votes column; re-read for the updated
	// aggregates rather than patching the stale copy.
	updated, err := h.repo.GetBySlug(c.Request.Context(), game.Slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve game"})
		return
	}

	h.hub.Broadcast(hub.Event{Type: "game.rated", Payload: gin.H{
		"slug":           updated.Slug,
		"average_rating": models.AverageRating(updated),
		"rating_count":   models.RatingCount(updated),
	}})

	c.JSON(http.StatusOK, newGameResponse(*updated, voter))
}

func (h *GameHandler) catalogResponse(snap catalog.Snapshot, voter string) CatalogResponse {
	response := CatalogResponse{
		Data: []GameResponse{},
		Meta: CatalogMeta{Fetched: snap.Fetched, Loading: snap.Loading, Error: snap.Error},
	}
	for _, game := range snap.Games {
		response.Data = append(response.Data, newGameResponse(game, voter))
	}
	return response
}
