package httpapi

import (
	"bounty-lab/domain"
	"bounty-lab/errors"
	"bounty-lab/infrastructure/wire"
	"bounty-lab/observability"
	"bounty-lab/services"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type RegisterRoomBody struct {
	TimeLimitMinutes int `json:"timeLimitMinutes"`
}

type ActivityBody struct {
	Timestamp time.Time `json:"timestamp"`
}

type ActivityResponse struct {
	Applied bool `json:"applied"`
}

type DepositBody struct {
	DepositorID   string        `json:"depositorId"`
	DisplayName   string        `json:"displayName,omitempty"`
	Amount        domain.Amount `json:"amount"`
	WalletAddress string        `json:"walletAddress"`
	Timestamp     time.Time     `json:"timestamp"`
}

type DepositResponse struct {
	NewCumulative domain.Amount `json:"newCumulative"`
	NewPoolTotal  domain.Amount `json:"newPoolTotal"`
}

// Handler serves the collaborator API and the public room reads.
type Handler struct {
	log        *slog.Logger
	service    services.IRoomService
	monitoring *observability.MonitoringManager
}

func NewHandler(log *slog.Logger, service services.IRoomService, monitoring *observability.MonitoringManager) *Handler {
	return &Handler{log: log, service: service, monitoring: monitoring}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain failures to a status code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case stdErrors.Is(err, errors.ErrInvalidAmount),
		stdErrors.Is(err, errors.ErrInvalidRequest),
		stdErrors.Is(err, errors.ErrInvalidTimeLimit):
		writeJSON(w, http.StatusBadRequest, wire.ErrorView{Error: err.Error()})
	default:
		h.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, wire.ErrorView{Error: "internal error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// a malformed amount fails here, before reaching the ledger
		if stdErrors.Is(err, errors.ErrInvalidAmount) {
			writeJSON(w, http.StatusBadRequest, wire.ErrorView{Error: err.Error()})
			return false
		}
		writeJSON(w, http.StatusBadRequest, wire.ErrorView{Error: "invalid json"})
		return false
	}
	return true
}

// PUT /rooms/{id}
func (h *Handler) RegisterRoom(w http.ResponseWriter, r *http.Request) {
	var body RegisterRoomBody
	if !h.decode(w, r, &body) {
		return
	}
	roomID := chi.URLParam(r, "id")
	err := h.service.RegisterRoom(services.RegisterRoomRequest{RoomID: roomID, TimeLimitMinutes: body.TimeLimitMinutes})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewSnapshotView(h.service.Snapshot(domain.RoomID(roomID))))
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, wire.NewSnapshotView(h.service.Snapshot(roomID)))
}

// GET /rooms/{id}/depositors
func (h *Handler) GetDepositors(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, wire.NewDepositorViews(h.service.Depositors(roomID)))
}

// POST /rooms/{id}/activity
func (h *Handler) ReportActivity(w http.ResponseWriter, r *http.Request) {
	var body ActivityBody
	if !h.decode(w, r, &body) {
		return
	}
	applied, err := h.service.ReportActivity(services.ActivityRequest{
		RoomID: chi.URLParam(r, "id"),
		At:     body.Timestamp,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ActivityResponse{Applied: applied})
}

// POST /rooms/{id}/deposits
func (h *Handler) ReportDeposit(w http.ResponseWriter, r *http.Request) {
	var body DepositBody
	if !h.decode(w, r, &body) {
		return
	}
	receipt, err := h.service.ReportDeposit(services.DepositRequest{
		RoomID:        chi.URLParam(r, "id"),
		DepositorID:   body.DepositorID,
		DisplayName:   body.DisplayName,
		Amount:        body.Amount,
		WalletAddress: body.WalletAddress,
		At:            body.Timestamp,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DepositResponse{
		NewCumulative: receipt.NewCumulative,
		NewPoolTotal:  receipt.NewPoolTotal,
	})
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.monitoring.GetLatest())
}
