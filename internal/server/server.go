package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/liftlog/internal/config"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/handler"
	"github.com/mansoorceksport/liftlog/internal/middleware"
	"github.com/mansoorceksport/liftlog/internal/repository"
	"github.com/mansoorceksport/liftlog/internal/service"
	"github.com/mansoorceksport/liftlog/internal/telemetry"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Repositories
	planRepo := repository.NewMongoWorkoutPlanRepository(deps.MongoDB)
	historyRepo := repository.NewMongoWorkoutHistoryRepository(deps.MongoDB)
	analyticsCache := repository.NewRedisCacheRepository(deps.RedisClient)
	executionStore := repository.NewRedisExecutionStore(deps.RedisClient, deps.Config.Analytics.ExecutionStateTTL)

	// Services
	historyService := service.NewHistoryService(historyRepo, analyticsCache, deps.Config.Analytics.CacheTTL)
	executionService := service.NewExecutionService(planRepo, executionStore, historyService)
	planService := service.NewPlanService(planRepo)
	coachService := service.NewCoachService(historyService, planRepo)

	// Handlers
	planHandler := handler.NewPlanHandler(planService)
	executionHandler := handler.NewExecutionHandler(executionService)
	historyHandler := handler.NewHistoryHandler(historyService, coachService)

	app := fiber.New(fiber.Config{
		AppName:      "Liftlog API",
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "liftlog-api",
		})
	})

	idempotent := middleware.IdempotencyMiddleware(deps.RedisClient, deps.Config.Server.IdempotencyTTL)

	v1 := app.Group("/v1")

	// ===========================================
	// MEMBER
	// ===========================================
	me := v1.Group("/me")
	me.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	me.Use(middleware.TenantScope())
	me.Use(middleware.AuthorizeRole(domain.RoleMember))

	me.Get("/plans", planHandler.ListMine)
	me.Get("/plans/:id", planHandler.GetMine)

	executions := me.Group("/executions")
	executions.Post("/", executionHandler.Start)
	executions.Get("/active", executionHandler.Active)
	executions.Delete("/active", executionHandler.Abandon)
	executions.Put("/active/exercises/:index/sets", executionHandler.LogSet)
	executions.Put("/active/exercises/:index/notes", executionHandler.SetNotes)
	executions.Post("/active/finish", idempotent, executionHandler.Finish)

	me.Post("/histories", idempotent, historyHandler.Record)
	me.Get("/histories", historyHandler.ListMine)
	me.Get("/histories/:id", historyHandler.GetMine)
	me.Get("/analytics", historyHandler.MyAnalytics)

	// ===========================================
	// COACH
	// ===========================================
	pro := v1.Group("/pro")
	pro.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	pro.Use(middleware.TenantScope())
	pro.Use(middleware.AuthorizeRole(domain.RoleCoach))

	plans := pro.Group("/plans")
	plans.Post("/", planHandler.Create)
	plans.Get("/", planHandler.List)
	plans.Get("/:id", planHandler.Get)
	plans.Put("/:id", planHandler.Update)
	plans.Delete("/:id", planHandler.Delete)

	pro.Get("/workouts/:id/histories", historyHandler.WorkoutHistories)
	pro.Get("/clients/overview", historyHandler.ClientOverview)
	pro.Get("/clients/:id/analytics", historyHandler.ClientAnalytics)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
