package main

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/repository/memory"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// stores groups the repositories of one backend.
type stores struct {
	requests         repository.RequestRepository
	assignments      repository.AssignmentRepository
	users            repository.UserRepository
	machines         repository.MachineRepository
	history          repository.HistoryRepository
	notifications    repository.NotificationRepository
	deletionRequests repository.DeletionRequestRepository
}

// openStores uses Postgres when a pool is open and the memory store
// otherwise.
func openStores(pg *persistence.Postgres) stores {
	if pool := pg.PoolHandle(); pool != nil {
		return stores{
			requests:         repository.NewRequestRepository(pool),
			assignments:      repository.NewAssignmentRepository(pool),
			users:            repository.NewUserRepository(pool),
			machines:         repository.NewMachineRepository(pool),
			history:          repository.NewHistoryRepository(pool),
			notifications:    repository.NewNotificationRepository(pool),
			deletionRequests: repository.NewDeletionRequestRepository(pool),
		}
	}
	mem := memory.NewStore()
	return stores{
		requests:         mem.Requests(),
		assignments:      mem.Assignments(),
		users:            mem.Users(),
		machines:         mem.Machines(),
		history:          mem.History(),
		notifications:    mem.Notifications(),
		deletionRequests: mem.DeletionRequests(),
	}
}

type server struct {
	app   *fiber.App
	users *service.UserService
}

func buildServer(cfg *config.Config, logger *zap.Logger, gate *access.Gate, pg *persistence.Postgres, redis *persistence.Redis) *server {
	repos := openStores(pg)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	engine := service.EngineDependencies{
		Gate:       gate,
		Requests:   repos.requests,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	requestService := service.NewRequestService(service.RequestDependencies{
		EngineDependencies:  engine,
		MachineRepo:         repos.machines,
		HistoryRepo:         repos.history,
		DeletionRequestRepo: repos.deletionRequests,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		EngineDependencies: engine,
		AssignmentRepo:     repos.assignments,
		UserRepo:           repos.users,
	})
	resolutionService := service.NewResolutionService(engine)

	var fanout service.NotificationFanout
	if stream := persistence.NewNotificationStream(redis, cfg.Notification); stream != nil {
		fanout = stream
	}
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Gate:             gate,
		Dispatcher:       dispatcher,
		Logger:           logger,
		NotificationRepo: repos.notifications,
		HistoryRepo:      repos.history,
		UserRepo:         repos.users,
		Fanout:           fanout,
	})
	notificationService.RegisterHandlers()

	userService := service.NewUserService(service.UserDependencies{
		Gate:       gate,
		Logger:     logger,
		UserRepo:   repos.users,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	machineService := service.NewMachineService(service.MachineDependencies{
		Gate:        gate,
		Logger:      logger,
		MachineRepo: repos.machines,
		RequestRepo: repos.requests,
	})
	authService := service.NewAuthService(cfg.Auth, repos.users)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Gate:           gate,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Requests:       handlers.NewRequestsHandler(requestService, resolutionService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Machines:       handlers.NewMachinesHandler(machineService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	return &server{app: app, users: userService}
}
