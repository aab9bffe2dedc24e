package api

import (
	"net/http"

	"github.com/schemahub/schemahub/internal/export"
	"github.com/schemahub/schemahub/internal/notifications"
	"github.com/schemahub/schemahub/internal/registry"
	"github.com/schemahub/schemahub/internal/repository"
)

// NewRouter assembles the full REST surface.
func NewRouter(
	registrySvc *registry.Service,
	notificationSvc *notifications.Service,
	exportSvc *export.Service,
	users repository.UserRepository,
) *http.ServeMux {
	mux := http.NewServeMux()

	NewRegistryHandler(registrySvc).Register(mux)
	NewNotificationsHandler(notificationSvc).Register(mux)
	NewUsersHandler(users).Register(mux)

	mux.Handle("GET /api/changes/export", export.NewHTTPHandler(exportSvc))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}
