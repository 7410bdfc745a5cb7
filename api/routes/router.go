package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarsegovia/pipelinecrm-backend/api/controllers"
	"github.com/omarsegovia/pipelinecrm-backend/api/middleware"
	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/internal/auth"
	"github.com/omarsegovia/pipelinecrm-backend/internal/companies"
	"github.com/omarsegovia/pipelinecrm-backend/internal/contacts"
	"github.com/omarsegovia/pipelinecrm-backend/internal/deals"
	"github.com/omarsegovia/pipelinecrm-backend/internal/lifecycle"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/config"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/logger"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsGatherer prometheus.Gatherer,
	authService auth.Service,
	usersService users.Service,
	lifecycleService lifecycle.Service,
	auditService audit.Service,
	companiesService companies.Service,
	contactsService contacts.Service,
	dealsService deals.Service,
) http.Handler {
	var idemStore redis.IdempotencyStore
	var redisP redis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisP = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/complete-setup", controllers.AuthCompleteSetup(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.UserList(usersService, logg))

			// Lifecycle management is an admin surface.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
				r.Post("/invite", controllers.UserInvite(usersService, logg))
				r.Get("/trash", controllers.UserTrash(usersService, logg))
				r.Get("/{userId}", controllers.UserGet(usersService, logg))
				r.Get("/{userId}/owned-count", controllers.UserOwnedCount(lifecycleService, logg))
				r.Post("/{userId}/deactivate", controllers.UserDeactivate(lifecycleService, logg))
				r.Post("/{userId}/activate", controllers.UserActivate(lifecycleService, logg))
				r.Post("/{userId}/restore", controllers.UserRestore(lifecycleService, logg))
				r.Post("/{userId}/reassign", controllers.UserReassign(lifecycleService, logg))
				r.Delete("/{userId}", controllers.UserDelete(lifecycleService, logg))
			})
		})

		r.Route("/v1/audit", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
			r.Get("/", controllers.AuditQuery(auditService, logg))
		})

		r.Route("/v1/companies", func(r chi.Router) {
			r.Get("/", controllers.CompanyList(companiesService, logg))
			r.Post("/", controllers.CompanyCreate(companiesService, logg))
			r.Get("/{companyId}", controllers.CompanyGet(companiesService, logg))
		})

		r.Route("/v1/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactList(contactsService, logg))
			r.Post("/", controllers.ContactCreate(contactsService, logg))
			r.Get("/{contactId}", controllers.ContactGet(contactsService, logg))
		})

		r.Route("/v1/deals", func(r chi.Router) {
			r.Get("/", controllers.DealList(dealsService, logg))
			r.Post("/", controllers.DealCreate(dealsService, logg))
			r.Get("/{dealId}", controllers.DealGet(dealsService, logg))
		})
	})

	return r
}
