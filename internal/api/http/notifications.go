package http

import (
	"net/http"

	"threewloc-backend/internal/domain"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.Notifications.GetNotifications(r.Context(), caller(r), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[domain.Notification]{Items: items, TotalCount: total, Page: page, PageSize: pageSize})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Notifications.MarkAsRead(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
