package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/notifications"
)

// NotificationsHandler serves the change feed, subscriptions and preferences.
type NotificationsHandler struct {
	notifications *notifications.Service
}

func NewNotificationsHandler(service *notifications.Service) *NotificationsHandler {
	return &NotificationsHandler{notifications: service}
}

// Register attaches the notification routes to the mux.
func (h *NotificationsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/changes/summary", h.changesSummary)
	mux.HandleFunc("GET /api/changes/{entityType}", h.detailedChanges)
	mux.HandleFunc("POST /api/changes/seen", h.markSeen)

	mux.HandleFunc("GET /api/subscriptions", h.listSubscriptions)
	mux.HandleFunc("POST /api/subscriptions", h.subscribe)
	mux.HandleFunc("GET /api/subscriptions/{type}/{typeId}", h.subscriptionStatus)
	mux.HandleFunc("DELETE /api/subscriptions/{type}/{typeId}", h.unsubscribe)

	mux.HandleFunc("GET /api/preferences", h.getPreferences)
	mux.HandleFunc("PUT /api/preferences", h.updatePreferences)
}

func (h *NotificationsHandler) changesSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.notifications.GetChangesSummary(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *NotificationsHandler) detailedChanges(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entityType, err := model.ParseEntityType(r.PathValue("entityType"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	changes, err := h.notifications.GetDetailedChanges(r.Context(), userID, entityType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

type markSeenPayload struct {
	ChangeIDs []string `json:"changeIds"`
}

func (h *NotificationsHandler) markSeen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload markSeenPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	changeIDs := make([]uuid.UUID, 0, len(payload.ChangeIDs))
	for _, raw := range payload.ChangeIDs {
		id, err := parseID(raw, "changeId")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		changeIDs = append(changeIDs, id)
	}

	if err := h.notifications.MarkSeen(r.Context(), userID, changeIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": len(changeIDs)})
}

type subscribePayload struct {
	TypeID string `json:"typeId"`
	Type   string `json:"type"`
}

func (h *NotificationsHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload subscribePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	typeID, err := parseID(payload.TypeID, "typeId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	subType, err := model.ParseSubscriptionType(payload.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.notifications.Subscribe(r.Context(), userID, typeID, subType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Subscription{ID: id, TypeID: typeID, Type: subType})
}

func (h *NotificationsHandler) subscriptionTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, model.SubscriptionType, bool) {
	subType, err := model.ParseSubscriptionType(r.PathValue("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return uuid.Nil, "", false
	}
	typeID, err := uuid.Parse(r.PathValue("typeId"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid typeId: %v", err), http.StatusBadRequest)
		return uuid.Nil, "", false
	}
	return typeID, subType, true
}

func (h *NotificationsHandler) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	typeID, subType, ok := h.subscriptionTarget(w, r)
	if !ok {
		return
	}
	subscribed, err := h.notifications.IsSubscribed(r.Context(), userID, typeID, subType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"subscribed": subscribed})
}

func (h *NotificationsHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	typeID, subType, ok := h.subscriptionTarget(w, r)
	if !ok {
		return
	}
	if err := h.notifications.Unsubscribe(r.Context(), userID, typeID, subType); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationsHandler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	subs, err := h.notifications.ListSubscriptions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *NotificationsHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	prefs, err := h.notifications.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

type preferencesPayload struct {
	RetentionDays           int    `json:"retentionDays"`
	ShowBreakingChangesOnly bool   `json:"showBreakingChangesOnly"`
	EmailDigestFrequency    string `json:"emailDigestFrequency"`
	RealTimeNotifications   bool   `json:"realTimeNotifications"`
}

func (h *NotificationsHandler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload preferencesPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	prefs := model.UserNotificationPreferences{
		UserID:                  userID,
		RetentionDays:           payload.RetentionDays,
		ShowBreakingChangesOnly: payload.ShowBreakingChangesOnly,
		EmailDigestFrequency:    model.EmailDigestFrequency(payload.EmailDigestFrequency),
		RealTimeNotifications:   payload.RealTimeNotifications,
	}
	if err := h.notifications.UpdatePreferences(r.Context(), prefs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
