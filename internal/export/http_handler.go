package export

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/schemahub/schemahub/internal/auth"
	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service, now: timeutil.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := auth.RequireUserID(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	entityTypes, err := parseEntityTypes(r.URL.Query()["entityType"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", FileName(h.now())))

	if err := h.service.WriteChangesCSV(r.Context(), w, userID, entityTypes); err != nil {
		// Headers are already written, so the truncated stream is the signal.
		log.Printf("change export for user %s aborted: %v", userID, err)
	}
}

func parseEntityTypes(values []string) ([]model.EntityType, error) {
	var result []model.EntityType
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			entityType, err := model.ParseEntityType(trimmed)
			if err != nil {
				return nil, err
			}
			result = append(result, entityType)
		}
	}
	return result, nil
}
