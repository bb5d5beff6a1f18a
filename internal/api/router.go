package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartmeter/billing-system/internal/api/handler"
	"github.com/smartmeter/billing-system/internal/api/middleware"
	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
	"github.com/smartmeter/billing-system/internal/core/service"
)

// Dependencies carries everything the router needs: core services, the token
// issuer for the auth middleware, and infrastructure handles for the health
// probes.
type Dependencies struct {
	Auth      ports.AuthService
	Consumers ports.ConsumerService
	OrgUnits  ports.OrgUnitService
	Meters    ports.MeterService
	Readings  ports.ReadingService
	Tariffs   ports.TariffService
	Billing   ports.BillingService
	Addresses ports.AddressService

	Tokens     *service.TokenIssuer
	Dispatcher handler.ReadingDispatcher

	Mongo *mongo.Database
	Redis *redis.Client

	UploadDir string
	BaseURL   string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("billing"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	consumerHandler := handler.NewConsumerHandler(deps.Consumers, deps.UploadDir, deps.BaseURL)
	orgUnitHandler := handler.NewOrgUnitHandler(deps.OrgUnits)
	meterHandler := handler.NewMeterHandler(deps.Meters)
	readingHandler := handler.NewReadingHandler(deps.Readings, deps.Dispatcher)
	tariffHandler := handler.NewTariffHandler(deps.Tariffs)
	billingHandler := handler.NewBillingHandler(deps.Billing)
	addressHandler := handler.NewAddressHandler(deps.Addresses)

	authn := middleware.Auth(deps.Tokens)
	userOnly := middleware.RBAC(domain.RoleUser)
	anyPrincipal := middleware.RBAC(domain.RoleUser, domain.RoleConsumer)
	consumerOnly := middleware.RBAC(domain.RoleConsumer)

	// --- Unauthenticated surface ---
	healthHandler := handler.NewHealthHandler()
	readyHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readyHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/uploads", deps.UploadDir)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/consumer/login", authHandler.ConsumerLogin)
	auth.POST("/change-password", authHandler.ChangePassword, authn, userOnly)

	// --- Consumers ---
	consumers := e.Group("/api/consumers", authn)
	consumers.GET("", consumerHandler.List, userOnly)
	consumers.GET("/profile", consumerHandler.Profile, consumerOnly)
	consumers.PUT("/profile", consumerHandler.UpdateProfile, consumerOnly)
	consumers.GET("/:id", consumerHandler.Get, anyPrincipal)
	consumers.POST("", consumerHandler.Create, userOnly)
	consumers.PUT("/:id", consumerHandler.Update, userOnly)
	consumers.DELETE("/:id", consumerHandler.Delete, userOnly)
	consumers.POST("/:id/photo", consumerHandler.UploadPhoto, anyPrincipal)

	// --- Org units ---
	orgUnits := e.Group("/api/org-units", authn, userOnly)
	orgUnits.GET("", orgUnitHandler.List)
	orgUnits.GET("/:id", orgUnitHandler.Get)
	orgUnits.POST("", orgUnitHandler.Create)
	orgUnits.PUT("/:id", orgUnitHandler.Update)
	orgUnits.DELETE("/:id", orgUnitHandler.Delete)

	// --- Meters, keyed by serial number ---
	meters := e.Group("/api/meters", authn, userOnly)
	meters.GET("", meterHandler.List)
	meters.GET("/:serial_no", meterHandler.Get)
	meters.POST("", meterHandler.Create)
	meters.PUT("/:serial_no", meterHandler.Update)
	meters.DELETE("/:serial_no", meterHandler.Delete)

	// --- Meter readings ---
	readings := e.Group("/api/readings", authn, userOnly)
	readings.POST("/ingest", readingHandler.Ingest)
	readings.POST("/ingest/batch", readingHandler.IngestBatch)
	readings.GET("", readingHandler.List)
	readings.GET("/:id", readingHandler.Get)
	readings.POST("", readingHandler.Create)
	readings.PUT("/:id", readingHandler.Update)
	readings.DELETE("/:id", readingHandler.Delete)

	// --- Tariffs and rate components: reads are reference data for both
	// principal kinds, writes are operator-only ---
	tariffs := e.Group("/api/tariffs", authn)
	tariffs.GET("", tariffHandler.List, anyPrincipal)
	tariffs.GET("/:id", tariffHandler.Get, anyPrincipal)
	tariffs.POST("", tariffHandler.Create, userOnly)
	tariffs.PUT("/:id", tariffHandler.Update, userOnly)
	tariffs.DELETE("/:id", tariffHandler.Delete, userOnly)

	todRules := e.Group("/api/tod-rules", authn)
	todRules.GET("", tariffHandler.ListTodRules, anyPrincipal)
	todRules.GET("/:id", tariffHandler.GetTodRule, anyPrincipal)
	todRules.POST("", tariffHandler.CreateTodRule, userOnly)
	todRules.PUT("/:id", tariffHandler.UpdateTodRule, userOnly)
	todRules.DELETE("/:id", tariffHandler.DeleteTodRule, userOnly)

	slabs := e.Group("/api/slabs", authn)
	slabs.GET("", tariffHandler.ListSlabs, anyPrincipal)
	slabs.GET("/:id", tariffHandler.GetSlab, anyPrincipal)
	slabs.POST("", tariffHandler.CreateSlab, userOnly)
	slabs.PUT("/:id", tariffHandler.UpdateSlab, userOnly)
	slabs.DELETE("/:id", tariffHandler.DeleteSlab, userOnly)

	// --- Bills and arrears ---
	bills := e.Group("/api/bills", authn, userOnly)
	bills.GET("", billingHandler.ListBills)
	bills.GET("/:id", billingHandler.GetBill)
	bills.POST("", billingHandler.CreateBill)
	bills.PUT("/:id", billingHandler.UpdateBill)
	bills.DELETE("/:id", billingHandler.DeleteBill)

	arrears := e.Group("/api/arrears", authn, userOnly)
	arrears.GET("", billingHandler.ListArrears)
	arrears.GET("/:id", billingHandler.GetArrear)
	arrears.POST("", billingHandler.CreateArrear)
	arrears.PUT("/:id", billingHandler.UpdateArrear)
	arrears.DELETE("/:id", billingHandler.DeleteArrear)

	// --- Addresses ---
	addresses := e.Group("/api/addresses", authn, userOnly)
	addresses.GET("", addressHandler.List)
	addresses.GET("/:id", addressHandler.Get)
	addresses.POST("", addressHandler.Create)
	addresses.PUT("/:id", addressHandler.Update)
	addresses.DELETE("/:id", addressHandler.Delete)

	return e
}
