package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/learnlocal/backend/internal/auth"
	"github.com/learnlocal/backend/internal/catalog"
	"github.com/learnlocal/backend/internal/deadline"
	"github.com/learnlocal/backend/internal/ingest"
	"github.com/learnlocal/backend/internal/models"
	"github.com/learnlocal/backend/internal/rank"
	"github.com/learnlocal/backend/internal/store"
)

type Server struct {
	Store       *store.Store
	AuthService *auth.Service
	Enricher    *deadline.Enricher
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow app origins from env or default to the local dev client
	allowedOrigins := []string{"http://localhost:19006"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	st := store.NewStore(pool)
	s := &Server{
		DB:          pool,
		Store:       st,
		AuthService: auth.NewService(pool),
		Enricher:    deadline.NewEnricher(st),
		Echo:        e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	api.GET("/opportunities", s.handleListOpportunities, auth.OptionalMiddleware)
	api.GET("/opportunities/nearby", s.handleNearby)
	api.GET("/opportunities/:partition/:id", s.handleGetOpportunity)
	api.GET("/categories", s.handleGetCategories)
	api.GET("/stats", s.handleGetStats)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Bookmark routes (signed-in students and organizations alike)
	saved := api.Group("/bookmarks")
	saved.Use(auth.Middleware)
	saved.GET("", s.handleGetBookmarks)
	saved.POST("/:partition/:id", s.handleAddBookmark)
	saved.DELETE("/:partition/:id", s.handleRemoveBookmark)

	// Listing submission (organization accounts only)
	submit := api.Group("/opportunities")
	submit.Use(auth.Middleware, auth.RequireRole(models.RoleOrganization))
	submit.POST("", s.handleSubmitOpportunity)

	// Admin routes (organization verification)
	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.GET("/organizations", s.handleListOrganizations)
	admin.POST("/organizations/:id/verify", s.handleVerifyOrganization)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and a password of at least 8 characters are required"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

type listResponse struct {
	Opportunities []opportunityView `json:"opportunities"`
	Total         int               `json:"total"`
	Limit         int               `json:"limit"`
	Offset        int               `json:"offset"`
}

// opportunityView is a preview record plus its resolved deadline, so list
// clients never recompute resolution.
type opportunityView struct {
	models.Opportunity
	ResolvedDeadline time.Time `json:"resolved_deadline"`
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.QueryParam("category")
	if category == "" {
		category = rank.SelectionAll
	}
	sortKey := c.QueryParam("sort")
	if sortKey == "" {
		sortKey = rank.SortNewest
	}

	limit := 20
	offset := 0
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	saved := rank.BookmarkSet{}
	if strings.EqualFold(category, rank.SelectionSaved) {
		userID, err := auth.GetUserIDFromContext(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Sign in to view saved opportunities"})
		}
		refs, err := s.Store.ListBookmarkRefs(ctx, userID)
		if err != nil {
			c.Logger().Errorf("Failed to load bookmarks: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		}
		for _, ref := range refs {
			saved[rank.BookmarkKey{ID: ref.ID, Partition: ref.Partition}] = struct{}{}
		}
	}

	records, err := s.Store.ListActiveOpportunities(ctx)
	if err != nil {
		c.Logger().Errorf("Failed to list opportunities: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	now := time.Now().UTC()
	filtered := rank.Filter(records, category, saved)

	// One cache per request; warmed in batches before deadline-based sorts so
	// each record is resolved (and possibly fetched) at most once.
	cache := deadline.Cache{}
	s.Enricher.WarmCache(ctx, filtered, cache, now)
	resolve := func(o models.Opportunity) time.Time {
		return s.Enricher.FromCache(cache, o, now)
	}

	sorted := rank.Sort(filtered, sortKey, resolve)

	total := len(sorted)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := sorted[offset:end]

	views := make([]opportunityView, 0, len(page))
	for _, o := range page {
		views = append(views, opportunityView{Opportunity: o, ResolvedDeadline: resolve(o)})
	}

	return c.JSON(http.StatusOK, listResponse{
		Opportunities: views,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	})
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	partition := c.Param("partition")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	opp, err := s.Store.GetOpportunityDetails(c.Request().Context(), id, partition)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
		}
		c.Logger().Errorf("Failed to fetch opportunity: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	now := time.Now().UTC()
	return c.JSON(http.StatusOK, opportunityView{
		Opportunity:      *opp,
		ResolvedDeadline: deadline.ResolveEarliest(*opp, now),
	})
}

func (s *Server) handleNearby(c echo.Context) error {
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if latErr != nil || lngErr != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "lat and lng params required"})
	}

	radiusKm := 10.0
	if r, err := strconv.ParseFloat(c.QueryParam("radius_km"), 64); err == nil && r > 0 && r <= 500 {
		radiusKm = r
	}
	limit := 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	records, err := s.Store.ListNearby(c.Request().Context(), lat, lng, radiusKm, limit)
	if err != nil {
		c.Logger().Errorf("Failed to list nearby: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	// Map pins follow feed rules: verified, non-resource records only.
	visible := rank.Filter(records, rank.SelectionAll, nil)
	return c.JSON(http.StatusOK, map[string]interface{}{"opportunities": visible})
}

func (s *Server) handleGetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories":        catalog.Labels(),
		"partitions":        catalog.Table(),
		"generic_partition": catalog.GenericPartition(),
	})
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

// Bookmark handlers

func (s *Server) handleGetBookmarks(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	opps, err := s.Store.GetBookmarkedOpportunities(ctx, userID)
	if err != nil {
		c.Logger().Errorf("Failed to fetch bookmarks: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch bookmarks"})
	}

	sortKey := c.QueryParam("sort")
	if sortKey != "" {
		now := time.Now().UTC()
		cache := deadline.Cache{}
		s.Enricher.WarmCache(ctx, opps, cache, now)
		opps = rank.Sort(opps, sortKey, func(o models.Opportunity) time.Time {
			return s.Enricher.FromCache(cache, o, now)
		})
	}

	return c.JSON(http.StatusOK, opps)
}

func (s *Server) handleAddBookmark(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	partition := c.Param("partition")
	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	if err := s.Store.AddBookmark(c.Request().Context(), userID, oppID, partition); err != nil {
		c.Logger().Errorf("Failed to add bookmark: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save bookmark"})
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleRemoveBookmark(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	partition := c.Param("partition")
	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	if err := s.Store.RemoveBookmark(c.Request().Context(), userID, oppID, partition); err != nil {
		c.Logger().Errorf("Failed to remove bookmark: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to remove bookmark"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

// Listing submission

func (s *Server) handleSubmitOpportunity(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	org, err := s.Store.GetOrganizationByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "No organization profile for this account"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	var raw models.RawRecord
	if err := c.Bind(&raw); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	opp := models.Normalize(raw)
	if opp.Title == "" || opp.Category == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and category are required"})
	}

	ingest.SanitizeListing(&opp)
	opp.OrganizationID = &org.ID
	opp.Partition = catalog.PartitionFor(opp.Category)

	id, err := s.Store.SaveOpportunity(ctx, opp)
	if err != nil {
		c.Logger().Errorf("Failed to save listing: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save listing"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":        id,
		"partition": opp.Partition,
		"visible":   org.VerificationStatus == models.VerificationVerified,
	})
}

// Admin handlers

func (s *Server) handleListOrganizations(c echo.Context) error {
	orgs, err := s.Store.ListOrganizations(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, orgs)
}

func (s *Server) handleVerifyOrganization(c echo.Context) error {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid organization ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Status == "" {
		req.Status = models.VerificationVerified
	}

	if err := s.Store.SetVerificationStatus(c.Request().Context(), orgID, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Organization not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
