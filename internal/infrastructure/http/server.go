package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
	"gorm.io/gorm"

	handlers "github.com/plateprep/plateprep/internal/adapter/handler/http"
	wshandlers "github.com/plateprep/plateprep/internal/adapter/handler/ws"
	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/config"
	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/domain/provider"
	"github.com/plateprep/plateprep/internal/infrastructure/database"
	"github.com/plateprep/plateprep/internal/middleware/auth"
	"github.com/plateprep/plateprep/internal/realtime"
	"github.com/plateprep/plateprep/internal/usecase"
)

// CustomValidator adapts go-playground validator to echo.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	db      *gorm.DB
	repos   *database.Repositories
	bus     realtime.Bus
	otp     repository.OTPStore
	mailer  usecase.Mailer
	billing provider.BillingProvider
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	repos *database.Repositories,
	bus realtime.Bus,
	otp repository.OTPStore,
	mailer usecase.Mailer,
	billing provider.BillingProvider,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize Stripe
	stripe.Key = cfg.Service.StripeSecretKey

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
	}))

	return &Server{
		config:  cfg,
		logger:  logger,
		echo:    e,
		db:      db,
		repos:   repos,
		bus:     bus,
		otp:     otp,
		mailer:  mailer,
		billing: billing,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Usecases
	accounts := usecase.NewAccountService(s.repos.Users, s.otp, s.mailer, s.config.JWT, s.logger)
	packages := usecase.NewPackageService(s.repos.Packages, s.billing, s.logger)
	checkout := usecase.NewCheckoutService(s.repos.Subscriptions, s.billing, s.config.Service.ClientURL, s.logger)
	reconciler := usecase.NewBillingReconciler(s.db, s.repos.Events, s.repos.Subscriptions, s.repos.Users, s.billing, s.logger)
	notifier := usecase.NewTaskNotifier(s.bus, s.logger)
	tasks := usecase.NewTaskService(s.repos.Tasks, s.repos.Users, notifier, s.logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(accounts, s.logger)
	packageHandler := handlers.NewPackageHandler(packages, s.logger)
	checkoutHandler := handlers.NewCheckoutHandler(checkout, s.logger)
	webhookHandler := handlers.NewWebhookHandler(reconciler, s.config.Service.StripeWebhookSecret, s.logger)
	taskHandler := handlers.NewTaskHandler(tasks, s.logger)

	authenticator := realtime.NewConnectionAuthenticator(s.config.JWT.Secret)
	wsHandler := wshandlers.NewTaskHandler(s.bus, authenticator, s.logger)

	jwtMiddleware := auth.JWTMiddleware(auth.Config{
		Secret: s.config.JWT.Secret,
		Users:  s.repos.Users,
		Logger: s.logger,
	})

	// Stripe calls back here; signature verification is the only gate.
	s.echo.POST("/webhook/stripe", webhookHandler.HandleWebhook)

	// Websocket endpoint authenticates via the subprotocol header itself.
	s.echo.GET("/ws/tasks", wsHandler.Serve)

	v1 := s.echo.Group("/api/v1")

	// Public routes
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/verify-otp", authHandler.VerifyOTP)
	authGroup.POST("/resend-otp", authHandler.ResendOTP)

	v1.GET("/packages", packageHandler.List)
	v1.GET("/packages/:id", packageHandler.Get)

	// Protected routes
	protected := v1.Group("", jwtMiddleware)

	adminOnly := auth.RequireRole(model.RoleAdmin)
	protected.POST("/packages", packageHandler.Create, adminOnly)
	protected.PUT("/packages/:id", packageHandler.Update, adminOnly)
	protected.DELETE("/packages/:id", packageHandler.Delete, adminOnly)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("/checkout", checkoutHandler.CreateCheckout, auth.RequireRole(model.RoleMember))
	subscriptions.POST("/cancel", checkoutHandler.CancelSubscription)
	subscriptions.GET("/status", checkoutHandler.GetSubscriptionStatus)

	taskGroup := protected.Group("/tasks")
	taskGroup.POST("", taskHandler.Create, auth.RequireRole(model.RoleAdmin, model.RoleChef))
	taskGroup.GET("", taskHandler.List)
	taskGroup.GET("/assigned-to-me", taskHandler.ListAssignedToMe)
	taskGroup.GET("/assigned-by-me", taskHandler.ListAssignedByMe)
	taskGroup.GET("/:id", taskHandler.Get)
	taskGroup.PATCH("/:id/update-status", taskHandler.UpdateStatus)
}
