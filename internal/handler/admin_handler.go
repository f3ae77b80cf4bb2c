package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retrodrome/backend/internal/admin"
	"retrodrome/backend/internal/catalog"
	"retrodrome/backend/internal/hub"
	"retrodrome/backend/internal/models"
	"retrodrome/backend/internal/repository"
)

// AdminHandler serves the CMS-style CRUD routes. Payloads are raw
// documents validated against the declarative collection schema before
// they touch the store, mirroring how the admin console edits documents
// field by field.
type AdminHandler struct {
	repo  *repository.GameRepository
	store *catalog.Store
	hub   *hub.Hub
	log   *zap.Logger
}

func NewAdminHandler(repo *repository.GameRepository, store *catalog.Store, h *hub.Hub, log *zap.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, store: store, hub: h, log: log}
}

// CreateGame godoc
// @Summary      Create a game
// @Description  Validates the document against the games collection schema and inserts it.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body map[string]interface{} true "Game document"
// @Success      201 {object} GameResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      502 {object} ErrorResponse
// @Router       /admin/games [post]
func (h *AdminHandler) CreateGame(c *gin.Context) {
	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	var game models.Game
	applyDocument(&game, doc)

	if err := h.repo.Create(c.Request.Context(), &game); err != nil {
		h.log.Error("game create failed", zap.String("slug", game.Slug), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create game"})
		return
	}

	h.afterMutation(c, "game.created", game.Slug)
	c.JSON(http.StatusCreated, newGameResponse(game, ""))
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Validates the document against the games collection schema and replaces the editable fields. Votes are untouched; only the rating flow writes those.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                    true "Game ID"
// @Param        input body map[string]interface{} true "Game document"
// @Success      200 {object} GameResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      502 {object} ErrorResponse
// @Router       /admin/games/{id} [put]
func (h *AdminHandler) UpdateGame(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game id"})
		return
	}

	game, err := h.repo.GetByID(c.Request.Context(), uint(id))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve game"})
		return
	}

	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	applyDocument(game, doc)
	if err := h.repo.Update(c.Request.Context(), game); err != nil {
		h.log.Error("game update failed", zap.Uint("id", game.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update game"})
		return
	}

	h.afterMutation(c, "game.updated", game.Slug)
	c.JSON(http.StatusOK, newGameResponse(*game, ""))
}

// DeleteGame godoc
// @Summary      Delete a game
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} map[string]string "{"message": "Game deleted"}"
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      502 {object} ErrorResponse
// @Router       /admin/games/{id} [delete]
func (h *AdminHandler) DeleteGame(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game id"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete game"})
		return
	}

	h.afterMutation(c, "game.deleted", "")
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

func (h *AdminHandler) bindDocument(c *gin.Context) (map[string]interface{}, bool) {
	var doc map[string]interface{}
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := admin.Games.Validate(doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return doc, true
}

// afterMutation force-refreshes the catalog cache and announces the
// change, so the public list reflects admin edits immediately.
func (h *AdminHandler) afterMutation(c *gin.Context, eventType, slug string) {
	if err := h.store.Fetch(c.Request.Context(), true); err != nil {
		h.log.Warn("catalog refresh after admin edit failed", zap.Error(err))
	}
	h.hub.Broadcast(hub.Event{Type: eventType, Payload: gin.H{"slug": slug}})
}

// applyDocument copies validated document fields onto the model.
func applyDocument(game *models.Game, doc map[string]interface{}) {
	if v, ok := doc["title"].(string); ok {
		game.Title = v
	}
	if v, ok := doc["description"].(string); ok {
		game.Description = v
	}
	if v, ok := doc["slug"].(string); ok {
		game.Slug = v
	}
	if v, ok := doc["year"].(float64); ok {
		game.Year = int(v)
	}
	if v, ok := doc["featured"].(bool); ok {
		game.Featured = v
	}
	if v, ok := doc["platform"].(string); ok {
		game.Platform = v
	}
	if v, ok := doc["romUrl"].(string); ok {
		game.RomURL = v
	}
	if v, ok := doc["screenshotUrl"].(string); ok {
		game.ScreenshotURL = v
	}
	if v, ok := doc["screenshots"]; ok {
		game.SetScreenshots(toStrings(v))
	}
	if v, ok := doc["tags"]; ok {
		game.SetTags(toStrings(v))
	}
}

func toStrings(value interface{}) []string {
	arr, ok := value.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
