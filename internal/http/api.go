package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"loan-portal/internal/auth"
	"loan-portal/internal/domain"
	"loan-portal/internal/observability"
	"loan-portal/internal/service"
	"loan-portal/internal/storage"
)

// Dependencies collects everything the HTTP layer needs.
type Dependencies struct {
	Users     service.UserService
	Sessions  service.SessionService
	Loans     service.LoanService
	Documents service.DocumentService
	Storage   storage.Service
	Tokens    TokenVerifier
	Denylist  auth.Denylist
	Health    *observability.HealthChecker
	Metrics   *observability.Metrics
	Logger    *logrus.Logger

	Bucket         string
	MaxUploadBytes int64
	PresignTTL     time.Duration
	RateLimit      RateLimitConfig
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	sessions  service.SessionService
	loans     service.LoanService
	documents service.DocumentService
	storage   storage.Service
	tokens    TokenVerifier
	denylist  auth.Denylist
	health    *observability.HealthChecker
	metrics   *observability.Metrics
	logger    *logrus.Logger

	bucket         string
	maxUploadBytes int64
	presignTTL     time.Duration
	rateLimit      RateLimitConfig
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:          deps.Users,
		sessions:       deps.Sessions,
		loans:          deps.Loans,
		documents:      deps.Documents,
		storage:        deps.Storage,
		tokens:         deps.Tokens,
		denylist:       deps.Denylist,
		health:         deps.Health,
		metrics:        deps.Metrics,
		logger:         logger,
		bucket:         deps.Bucket,
		maxUploadBytes: deps.MaxUploadBytes,
		presignTTL:     deps.PresignTTL,
		rateLimit:      deps.RateLimit,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())
	if h.metrics != nil {
		router.Use(h.metrics.Middleware())
		router.GET("/metrics", h.metrics.Handler())
	}

	authenticated := Authenticate(h.tokens, h.denylist, h.users, h.logger, h.metrics)
	userOnly := RequireRoles(h.metrics, domain.RoleUser)
	adminOnly := RequireRoles(h.metrics, domain.RoleAdmin)
	anyRole := RequireRoles(h.metrics, domain.RoleUser, domain.RoleAdmin)

	api := router.Group("/api")
	{
		api.GET("/health", h.healthCheck)

		limited := api.Group("/auth", RateLimit(h.rateLimit, h.logger))
		limited.POST("/register", h.register)
		limited.POST("/login", h.login)
		api.POST("/auth/logout", authenticated, h.logout)

		api.GET("/users/me", authenticated, h.me)

		roles := api.Group("/roles", authenticated)
		roles.GET("/profile", userOnly, h.userProfile)
		roles.GET("/admin/dashboard", adminOnly, h.adminDashboard)
		roles.GET("/shared", anyRole, h.sharedArea)

		loans := api.Group("/loans", authenticated, anyRole)
		loans.POST("/apply", h.applyLoan)
		loans.GET("/my", h.myLoans)

		documents := api.Group("/documents", authenticated, anyRole)
		documents.POST("/upload", h.uploadDocument)
		documents.GET("/my-documents", h.myDocuments)
		documents.GET("/:id/url", h.documentURL)

		admin := api.Group("/admin", authenticated, adminOnly)
		admin.GET("/stats", h.adminStats)
		admin.GET("/users", h.adminUsers)
		admin.GET("/loans", h.adminLoans)
		admin.PUT("/loans/:id/status", h.adminUpdateLoanStatus)
		admin.GET("/documents", h.adminDocuments)
		admin.PUT("/documents/:id/status", h.adminUpdateDocumentStatus)
		admin.GET("/storage/objects", h.listObjects)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": observability.StatusHealthy})
		return
	}
	h.health.Handler()(c)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// mustIdentity is used behind Authenticate, which guarantees an identity.
func (h *Handler) mustIdentity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := identityFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, msgMissingAuthorization)
	}
	return identity, ok
}
