package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/service"
	"threewloc-backend/internal/utils"
)

const (
	dateLayout       = "2006-01-02"
	streamHeartbeat  = 25 * time.Second
	streamBufferSize = 16
)

// GetAvailability answers ?date= with a single day state and always lists the
// booked ranges and the next free day from ?from= (default today).
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	from := utils.TruncateDay(time.Now().UTC())
	if raw := q.Get("from"); raw != "" {
		if from, err = utils.ParseDate(raw); err != nil {
			writeError(w, r, errors.Join(domain.ErrInvalidInput, err))
			return
		}
	}

	resp := availabilityResponse{Booked: []bookedRange{}}
	if raw := q.Get("date"); raw != "" {
		date, err := utils.ParseDate(raw)
		if err != nil {
			writeError(w, r, errors.Join(domain.ErrInvalidInput, err))
			return
		}
		state, err := h.Availability.CheckDate(ctx, equipmentID, date)
		if err != nil {
			unavailable(w, raw)
			return
		}
		resp.Date, resp.State = raw, string(state)
	}

	next, err := h.Availability.NextAvailableDate(ctx, equipmentID, from)
	if err != nil {
		unavailable(w, resp.Date)
		return
	}
	if next != nil {
		resp.NextAvailable = next.Format(dateLayout)
	}

	ranges, err := h.Availability.BookedRanges(ctx, equipmentID, from)
	if err != nil {
		unavailable(w, resp.Date)
		return
	}
	for _, rg := range ranges {
		resp.Booked = append(resp.Booked, bookedRange{
			StartDate: rg.StartDate.Format(dateLayout),
			EndDate:   rg.EndDate.Format(dateLayout),
			Status:    string(rg.Status),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// unavailable reports an unreadable calendar. The day must not be offered.
func unavailable(w http.ResponseWriter, date string) {
	writeJSON(w, http.StatusServiceUnavailable, availabilityResponse{
		Date:   date,
		State:  string(service.DateUnknown),
		Booked: []bookedRange{},
	})
}

// AvailabilityStream relays booking change hints as server-sent events.
// Clients re-query availability on each event.
func (h *Handler) AvailabilityStream(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	events := make(chan domain.BookingChanged, streamBufferSize)
	unsubscribe, err := h.Availability.Subscribe(ctx, equipmentID, func(e domain.BookingChanged) {
		select {
		case events <- e:
		default:
			// The client re-queries anyway, a dropped hint is harmless.
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": subscribed\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				logger.Warn("Failed to encode availability event", "equipmentID", equipmentID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: booking_changed\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
