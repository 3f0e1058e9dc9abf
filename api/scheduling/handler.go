// Package scheduling exposes the reservation ledger and the batch scheduler
// over HTTP under /api/scheduling.
package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sambhavthakkar/PulseDrive/core/journal"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/logger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/core/scheduler"
)

// DefaultMaxResults caps find-slots responses when no limit is configured.
const DefaultMaxResults = 20

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Ledger is the reservation API served by the handler.
type Ledger interface {
	FindAvailableSlots(ctx context.Context, q ledger.Query) ([]model.Slot, error)
	ConfirmBooking(ctx context.Context, req ledger.BookingRequest) (model.Reservation, error)
	CancelBooking(ctx context.Context, bookingID string) (model.CancelAck, error)
	BookingsForVehicle(ctx context.Context, vehicleID string) []model.Reservation
}

// Optimizer runs request batches.
type Optimizer interface {
	Schedule(ctx context.Context, reqs []model.MaintenanceRequest) (scheduler.Result, error)
}

// Options tune the handler. Token protects mutating and journal routes
// with "Authorization: Bearer <token>" when non-empty.
type Options struct {
	Token      string
	MaxResults int
	Optimizer  Optimizer
	Journal    journal.Store
	Logger     logger.Logger
}

// SlotView is the wire form of an available slot.
type SlotView struct {
	SlotID     string `json:"slot_id"`
	SlotTime   string `json:"slot_time"`
	CenterID   string `json:"center_id"`
	CenterName string `json:"center_name"`
	Available  bool   `json:"available"`
}

type handler struct {
	ledger     Ledger
	optimizer  Optimizer
	journal    journal.Store
	token      string
	maxResults int
	log        logger.Logger
}

// NewHandler returns the HTTP handler serving every /api/scheduling route.
func NewHandler(l Ledger, o Options) http.Handler {
	h := &handler{
		ledger:     l,
		optimizer:  o.Optimizer,
		journal:    o.Journal,
		token:      o.Token,
		maxResults: o.MaxResults,
		log:        o.Logger,
	}
	if h.maxResults <= 0 {
		h.maxResults = DefaultMaxResults
	}
	if h.log == nil {
		h.log = logger.NopLogger{}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scheduling/ping", h.ping)
	mux.HandleFunc("GET /api/scheduling/find-slots", h.findSlots)
	mux.HandleFunc("POST /api/scheduling/confirm", h.authorized(h.confirm))
	mux.HandleFunc("GET /api/scheduling/bookings/{vehicle_id}", h.bookings)
	mux.HandleFunc("DELETE /api/scheduling/cancel/{booking_id}", h.authorized(h.cancel))
	mux.HandleFunc("POST /api/scheduling/optimize", h.authorized(h.optimize))
	mux.HandleFunc("GET /api/scheduling/journal", h.authorized(h.journalEntries))
	return mux
}

func (h *handler) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		next(w, r)
	}
}

func (h *handler) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) findSlots(w http.ResponseWriter, r *http.Request) {
	q := ledger.Query{
		CenterID: r.URL.Query().Get("center_id"),
		Date:     r.URL.Query().Get("date"),
		Limit:    h.maxResults,
	}
	if s := r.URL.Query().Get("within_hours"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "within_hours must be a positive integer", ledger.Outcome(ledger.ErrInvalidRequest))
			return
		}
		q.WithinHours = n
	}
	slots, err := h.ledger.FindAvailableSlots(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotView{
			SlotID:     s.ID,
			SlotTime:   s.Time.Format(model.DateLayout),
			CenterID:   s.CenterID,
			CenterName: s.CenterName,
			Available:  true,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req ledger.BookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.ledger.ConfirmBooking(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeBody reads a JSON body of at most MaxBodyBytes into v and writes the
// error response when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", ledger.Outcome(ledger.ErrInvalidRequest))
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), ledger.Outcome(ledger.ErrInvalidRequest))
	return false
}

func (h *handler) bookings(w http.ResponseWriter, r *http.Request) {
	rs := h.ledger.BookingsForVehicle(r.Context(), r.PathValue("vehicle_id"))
	if rs == nil {
		rs = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	ack, err := h.ledger.CancelBooking(r.Context(), r.PathValue("booking_id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (h *handler) optimize(w http.ResponseWriter, r *http.Request) {
	if h.optimizer == nil {
		writeError(w, http.StatusNotImplemented, "batch scheduling disabled", "")
		return
	}
	var batch scheduler.Batch
	if !decodeBody(w, r, &batch) {
		return
	}
	for _, req := range batch.Requests {
		if req.VehicleID == "" {
			writeError(w, http.StatusBadRequest, "vehicle_id is required for every request", ledger.Outcome(ledger.ErrInvalidRequest))
			return
		}
	}
	res, err := h.optimizer.Schedule(r.Context(), batch.Requests)
	if err != nil {
		h.log.Warnf("batch interrupted after %d assignments: %v", len(res.Assignments), err)
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) journalEntries(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusOK, []journal.Entry{})
		return
	}
	q := journal.Query{
		VehicleID: r.URL.Query().Get("vehicle_id"),
		Kind:      r.URL.Query().Get("kind"),
	}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	entries, err := h.journal.Query(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "error")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("scheduling request failed: %v", err)
	}
	writeError(w, status, err.Error(), ledger.Outcome(err))
}

// StatusFor maps ledger errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ledger.ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidSlot), errors.Is(err, ledger.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Outcome string `json:"outcome,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, outcome string) {
	writeJSON(w, status, errorBody{Error: msg, Outcome: outcome})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
