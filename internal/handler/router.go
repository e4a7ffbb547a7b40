package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codefyre/backend/internal/auth"
	chathandler "github.com/codefyre/backend/internal/handler/chat"
	contacthandler "github.com/codefyre/backend/internal/handler/contact"
	inboxhandler "github.com/codefyre/backend/internal/handler/inbox"
	projecthandler "github.com/codefyre/backend/internal/handler/project"
	middlewarePkg "github.com/codefyre/backend/internal/middleware"
	chatservice "github.com/codefyre/backend/internal/service/chat"
	contactservice "github.com/codefyre/backend/internal/service/contact"
	inboxservice "github.com/codefyre/backend/internal/service/inbox"
	projectservice "github.com/codefyre/backend/internal/service/project"
	"github.com/codefyre/backend/pkg/utils"
)

// Deps carries the wired services. Inbox and Projects are nil when no
// relational backend is configured; their routes are simply not mounted.
type Deps struct {
	Verifier  auth.Verifier
	Roles     auth.RoleChecker
	Directory *chatservice.Directory
	Ledger    *chatservice.Ledger
	Contact   *contactservice.Service
	Inbox     *inboxservice.Service
	Projects  *projectservice.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(middlewarePkg.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", middlewarePkg.MetricsHandler())

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.Middleware(deps.Verifier, deps.Roles))

		api.Route("/chat", func(rt chi.Router) {
			chathandler.New(deps.Directory, deps.Ledger).RegisterRoutes(rt)
		})
		api.Route("/contact", func(rt chi.Router) {
			contacthandler.New(deps.Contact).RegisterRoutes(rt)
		})

		if deps.Inbox != nil {
			inboxhandler.New(deps.Inbox).RegisterRoutes(api)
		}
		if deps.Projects != nil {
			projecthandler.New(deps.Projects).RegisterRoutes(api)
		}
	})

	return r
}
