package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduops/internal/account"
	"eduops/internal/api"
	"eduops/internal/application"
	"eduops/internal/auth"
	"eduops/internal/instructor"
	"eduops/internal/portal"
	"eduops/internal/program"
	"eduops/internal/schedule"
	"eduops/internal/settlement"
	"eduops/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	accountsRepo := account.NewRepository(deps.DB)
	authHandlers := auth.Handlers{
		Cfg:      deps.Cfg,
		Accounts: accountsRepo,
	}
	instructorRepo := instructor.NewRepository(deps.DB)
	instructorHandlers := instructor.Handlers{Repo: instructorRepo}
	programRepo := program.NewRepository(deps.DB)
	programHandlers := program.Handlers{Repo: programRepo}
	scheduleRepo := schedule.NewRepository(deps.DB)
	scheduleHandlers := schedule.Handlers{Repo: scheduleRepo}
	applicationRepo := application.NewRepository(deps.DB)
	applicationHandlers := application.Handlers{
		DB:   deps.DB,
		Repo: applicationRepo,
	}
	settlementRepo := settlement.NewRepository(deps.DB)
	settlementHandlers := settlement.Handlers{
		DB:       deps.DB,
		Repo:     settlementRepo,
		Programs: programRepo,
	}
	portalRepo := portal.NewRepository(deps.DB)
	portalHandlers := portal.Handlers{
		DB:   deps.DB,
		Repo: portalRepo,
		Apps: applicationRepo,
		Cfg:  deps.Cfg,
	}

	// v1
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandlers.Login)

		// Operator admin APIs
		r.Group(func(r chi.Router) {
			// Production: bearer session token auth.
			// Dev: falls back to X-Admin-Email if Authorization is missing.
			r.Use(api.SessionAuth(deps.Cfg, accountsRepo))

			r.Get("/instructors", instructorHandlers.List)
			r.Post("/instructors", instructorHandlers.Create)
			r.Get("/instructors/{id}", instructorHandlers.Get)
			r.Put("/instructors/{id}", instructorHandlers.Update)

			r.Get("/programs", programHandlers.List)
			r.Post("/programs", programHandlers.Create)
			r.Get("/programs/{id}", programHandlers.Get)
			r.Put("/programs/{id}/settlement-rule", programHandlers.PutSettlementRule)

			r.Get("/schedules", scheduleHandlers.List)
			r.Post("/schedules", scheduleHandlers.Create)
			r.Get("/schedules/conflicts", scheduleHandlers.Conflicts)
			r.Post("/schedules/check-conflicts", scheduleHandlers.CheckConflicts)
			r.Get("/schedules/{id}", scheduleHandlers.Get)
			r.Put("/schedules/{id}", scheduleHandlers.Update)
			r.Delete("/schedules/{id}", scheduleHandlers.Delete)

			r.Get("/applications", applicationHandlers.List)
			r.Post("/applications", applicationHandlers.Create)
			r.Get("/applications/{id}", applicationHandlers.Get)
			r.Get("/applications/{id}/transitions", applicationHandlers.Transitions)
			r.Patch("/applications/{id}/status", applicationHandlers.PatchStatus)
			r.Post("/applications/{id}/override", applicationHandlers.Override)
			r.Get("/applications/{id}/history", applicationHandlers.History)
			r.Post("/applications/{id}/portal-link", portalHandlers.IssueLink)

			r.Get("/settlements", settlementHandlers.List)
			r.Post("/settlements", settlementHandlers.Create)
			r.Post("/settlements/preview", settlementHandlers.Preview)
			r.Get("/settlements/{id}", settlementHandlers.Get)
			r.Get("/settlements/{id}/transitions", settlementHandlers.Transitions)
			r.Post("/settlements/{id}/calculate", settlementHandlers.Calculate)
			r.Patch("/settlements/{id}/status", settlementHandlers.PatchStatus)
			r.Post("/settlements/{id}/override", settlementHandlers.Override)
			r.Get("/settlements/{id}/history", settlementHandlers.History)
		})

		// Applicant portal
		r.Route("/portal", func(r chi.Router) {
			// Public, token-based endpoints used by a separate frontend domain.
			// Only allow CORS for explicitly configured origins.
			r.Use(api.CORSMiddleware(api.CORSOptions{
				AllowedOrigins: deps.Cfg.PortalAllowedOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAgeSeconds:  600,
			}))

			r.Get("/{token}", portalHandlers.View)
			r.Post("/{token}/withdraw", portalHandlers.Withdraw)
		})
	})

	return r
}
