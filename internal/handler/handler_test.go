package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"retrodrome/backend/internal/auth"
	"retrodrome/backend/internal/catalog"
	"retrodrome/backend/internal/config"
	"retrodrome/backend/internal/database"
	"retrodrome/backend/internal/hub"
	"retrodrome/backend/internal/models"
	"retrodrome/backend/internal/repository"
	"retrodrome/backend/pkg/jwt"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	repo   *repository.GameRepository
	store  *catalog.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Game{}))

	// The admin middleware reads the package-level handle.
	database.DB = db

	log := zap.NewNop()
	repo := repository.NewGameRepository(db)
	store := catalog.NewStore(repo)
	eventHub := hub.NewHub()

	service := auth.NewService(db, log, "test-client")
	session := auth.NewSessionStore(service)
	t.Cleanup(session.Close)

	gameHandler := NewGameHandler(store, repo, eventHub, log)
	adminHandler := NewAdminHandler(repo, store, eventHub, log)
	authHandler := NewAuthHandler(service, session, db, log)

	router := gin.New()
	apiV1 := router.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.GET("/session", authHandler.GetSession)
	protected := authRoutes.Group("")
	protected.Use(auth.AuthMiddleware())
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.GetMe)

	gameRoutes := apiV1.Group("/games")
	gameRoutes.Use(auth.OptionalAuthMiddleware())
	gameRoutes.GET("", gameHandler.ListGames)
	gameRoutes.GET("/featured", gameHandler.GetFeaturedGames)
	gameRoutes.GET("/:slug", gameHandler.GetGameBySlug)
	gameRoutes.GET("/:slug/play", gameHandler.GetPlayConfig)

	rateRoutes := apiV1.Group("/games")
	rateRoutes.Use(auth.AuthMiddleware())
	rateRoutes.POST("/:slug/rate", gameHandler.RateGame)

	apiV1.GET("/platforms", gameHandler.ListPlatforms)

	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
	adminRoutes.POST("/games", adminHandler.CreateGame)
	adminRoutes.PUT("/games/:id", adminHandler.UpdateGame)
	adminRoutes.DELETE("/games/:id", adminHandler.DeleteGame)

	return &testServer{router: router, db: db, repo: repo, store: store}
}

func (s *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createUser(t *testing.T, role string) (models.User, string) {
	t.Helper()
	user := models.User{
		Nickname: "tester-" + role,
		Email:    role + "@example.com",
		Role:     role,
	}
	require.NoError(t, s.db.Create(&user).Error)

	token, err := jwt.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) createGame(t *testing.T, slug string, featured bool) models.Game {
	t.Helper()
	game := models.Game{
		Slug:     slug,
		Title:    slug,
		Year:     1990,
		Platform: "nes",
		Featured: featured,
		RomURL:   "games/roms/" + slug + ".nes",
	}
	require.NoError(t, s.db.Create(&game).Error)
	return game
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListGames(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)
	s.createGame(t, "sonic-the-hedgehog", false)

	rec := s.request(t, http.MethodGet, "/api/v1/games", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[CatalogResponse](t, rec)
	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.Meta.Fetched)
	assert.Empty(t, resp.Meta.Error)
}

func TestListGames_ServedFromCacheUntilRefreshed(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)

	rec := s.request(t, http.MethodGet, "/api/v1/games", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[CatalogResponse](t, rec).Data, 1)

	// A game added behind the cache's back stays invisible...
	s.createGame(t, "pokemon-red", false)
	rec = s.request(t, http.MethodGet, "/api/v1/games", "", nil)
	assert.Len(t, decodeBody[CatalogResponse](t, rec).Data, 1)

	// ...until a forced refresh.
	rec = s.request(t, http.MethodGet, "/api/v1/games?refresh=true", "", nil)
	assert.Len(t, decodeBody[CatalogResponse](t, rec).Data, 2)
}

func TestGetFeaturedGames(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)
	s.createGame(t, "sonic-the-hedgehog", false)

	rec := s.request(t, http.MethodGet, "/api/v1/games/featured", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[CatalogResponse](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "super-mario-bros", resp.Data[0].Slug)
}

func TestGetGameBySlug_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodGet, "/api/v1/games/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPlayConfig(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)

	rec := s.request(t, http.MethodGet, "/api/v1/games/super-mario-bros/play", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[PlayResponse](t, rec)
	assert.Equal(t, "nes", resp.Core)
	assert.Equal(t, "NES", resp.PlatformLabel)
	assert.Equal(t, "games/roms/super-mario-bros.nes", resp.RomURL)
}

func TestGetPlayConfig_UnknownPlatformDegrades(t *testing.T) {
	s := newTestServer(t)
	game := s.createGame(t, "oddball", false)
	require.NoError(t, s.db.Model(&game).Update("platform", "dreamcast").Error)

	rec := s.request(t, http.MethodGet, "/api/v1/games/oddball/play", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[PlayResponse](t, rec)
	assert.Empty(t, resp.Core)
	assert.Equal(t, "dreamcast", resp.PlatformLabel)
}

func TestListPlatforms(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodGet, "/api/v1/platforms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Genesis / Mega Drive")
}

func TestRateGame_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)

	rec := s.request(t, http.MethodPost, "/api/v1/games/super-mario-bros/rate", "", RateInput{Rating: 5})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateGame_StoresAndOverwritesVote(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)
	_, token := s.createUser(t, "user")

	rec := s.request(t, http.MethodPost, "/api/v1/games/super-mario-bros/rate", token, RateInput{Rating: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[GameResponse](t, rec)
	assert.Equal(t, float64(5), resp.AverageRating)
	assert.Equal(t, 1, resp.RatingCount)
	assert.Equal(t, 5, resp.UserRating)

	rec = s.request(t, http.MethodPost, "/api/v1/games/super-mario-bros/rate", token, RateInput{Rating: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	resp = decodeBody[GameResponse](t, rec)
	assert.Equal(t, float64(2), resp.AverageRating)
	assert.Equal(t, 1, resp.RatingCount, "a second vote replaces the first")
	assert.Equal(t, 2, resp.UserRating)
}

func TestRateGame_RejectsOutOfRangeRating(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)
	_, token := s.createUser(t, "user")

	rec := s.request(t, http.MethodPost, "/api/v1/games/super-mario-bros/rate", token, RateInput{Rating: 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGameBySlug_IncludesCallersRating(t *testing.T) {
	s := newTestServer(t)
	s.createGame(t, "super-mario-bros", true)
	_, token := s.createUser(t, "user")

	rec := s.request(t, http.MethodPost, "/api/v1/games/super-mario-bros/rate", token, RateInput{Rating: 4})
	require.Equal(t, http.StatusOK, rec.Code)

	// Authenticated detail view sees the caller's own vote.
	rec = s.request(t, http.MethodGet, "/api/v1/games/super-mario-bros", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decodeBody[GameResponse](t, rec).UserRating)

	// Anonymous view does not.
	rec = s.request(t, http.MethodGet, "/api/v1/games/super-mario-bros", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[GameResponse](t, rec).UserRating)
}

func adminDoc(slug string) map[string]interface{} {
	return map[string]interface{}{
		"title":       "Street Fighter II",
		"description": "<p>The legendary fighting game.</p>",
		"slug":        slug,
		"year":        1992,
		"featured":    true,
		"platform":    "snes",
		"tags":        []string{"fighting", "arcade"},
	}
}

func TestAdminCreateGame_RequiresAdminRole(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "user")

	rec := s.request(t, http.MethodPost, "/api/v1/admin/games", token, adminDoc("street-fighter-ii"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminCreateGame(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "admin")

	rec := s.request(t, http.MethodPost, "/api/v1/admin/games", token, adminDoc("street-fighter-ii"))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[GameResponse](t, rec)
	assert.Equal(t, "street-fighter-ii", resp.Slug)
	assert.Equal(t, []string{"fighting", "arcade"}, resp.Tags)

	// The mutation force-refreshed the public cache.
	rec = s.request(t, http.MethodGet, "/api/v1/games", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[CatalogResponse](t, rec).Data, 1)
}

func TestAdminCreateGame_SchemaRejectsBadDocument(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "admin")

	doc := adminDoc("street-fighter-ii")
	doc["platform"] = "dreamcast"
	rec := s.request(t, http.MethodPost, "/api/v1/admin/games", token, doc)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	doc = adminDoc("street-fighter-ii")
	delete(doc, "title")
	rec = s.request(t, http.MethodPost, "/api/v1/admin/games", token, doc)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	doc = adminDoc("street-fighter-ii")
	doc["votes"] = map[string]int{"u1": 5}
	rec = s.request(t, http.MethodPost, "/api/v1/admin/games", token, doc)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "votes are not admin-editable")
}

func TestAdminUpdateGame(t *testing.T) {
	s := newTestServer(t)
	game := s.createGame(t, "street-fighter-ii", false)
	_, token := s.createUser(t, "admin")

	doc := adminDoc("street-fighter-ii")
	doc["featured"] = true
	rec := s.request(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/games/%d", game.ID), token, doc)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[GameResponse](t, rec).Featured)
}

func TestAdminUpdateGame_NotFound(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "admin")

	rec := s.request(t, http.MethodPut, "/api/v1/admin/games/99", token, adminDoc("x"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDeleteGame(t *testing.T) {
	s := newTestServer(t)
	game := s.createGame(t, "street-fighter-ii", false)
	_, token := s.createUser(t, "admin")

	rec := s.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/games/%d", game.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/games/%d", game.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterLoginAndSession(t *testing.T) {
	s := newTestServer(t)

	// Before anyone signs in, the session is empty but settled.
	rec := s.request(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeBody[SessionResponse](t, rec)
	assert.Nil(t, session.User)
	assert.False(t, session.Loading)

	rec = s.request(t, http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Nickname: "retrofan",
		Email:    "fan@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[TokenResponse](t, rec)
	require.NotEmpty(t, created.Token)

	// The provider event reached the session store.
	rec = s.request(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	session = decodeBody[SessionResponse](t, rec)
	require.NotNil(t, session.User)
	assert.Equal(t, "fan@example.com", session.User.Email)

	rec = s.request(t, http.MethodPost, "/api/v1/auth/login", "", LoginInput{
		Email:    "fan@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/auth/me", created.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "retrofan")
}

func TestLogin_BadCredentialsLeaveSessionUntouched(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Nickname: "retrofan",
		Email:    "fan@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/auth/login", "", LoginInput{
		Email:    "fan@example.com",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The failed sign-in emitted no event; the prior session stands.
	rec = s.request(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	session := decodeBody[SessionResponse](t, rec)
	require.NotNil(t, session.User)
	assert.Equal(t, "fan@example.com", session.User.Email)
}

func TestLogout_ClearsSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Nickname: "retrofan",
		Email:    "fan@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[TokenResponse](t, rec).Token

	rec = s.request(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	session := decodeBody[SessionResponse](t, rec)
	assert.Nil(t, session.User)
	assert.False(t, session.Loading)
}
