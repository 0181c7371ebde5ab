package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ShivaSirikonda/smart-subscription/notification"
	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
)

// NotificationHandler exposes the user's notification inbox.
type NotificationHandler struct {
	store notification.Store
	log   *slog.Logger
}

// NewNotificationHandler creates an inbox handler. Panics on a nil store.
func NewNotificationHandler(store notification.Store, log *slog.Logger) *NotificationHandler {
	if store == nil {
		panic("api: notification.Store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &NotificationHandler{store: store, log: log}
}

// Routes mounts the inbox endpoints on the router.
func (h *NotificationHandler) Routes(r chi.Router) {
	r.Get("/notifications", h.list)
	r.Get("/notifications/unread", h.listUnread)
	r.Get("/notifications/unread/count", h.countUnread)
	r.Post("/notifications/{notificationID}/read", h.markRead)
	r.Post("/notifications/read-all", h.markAllRead)
}

type notificationView struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

func notificationViewsOf(items []*notification.Notification) []notificationView {
	views := make([]notificationView, len(items))
	for i, n := range items {
		views[i] = notificationView{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		}
	}
	return views
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	items, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, notificationViewsOf(items))
}

func (h *NotificationHandler) listUnread(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	items, err := h.store.ListUnread(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, notificationViewsOf(items))
}

func (h *NotificationHandler) countUnread(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	count, err := h.store.CountUnread(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	if err := h.store.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), userID); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	if err := h.store.MarkAllRead(r.Context(), userID); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
