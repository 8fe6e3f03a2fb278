package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/logger"
	"creatorbot/internal/store"
)

var startTime = time.Now()

// AdminAPI exposes the reporting endpoints the admin uses to inspect the
// treasury, earnings, ledger and pending orders.
type AdminAPI struct {
	store *store.Store
}

func NewAdminAPI(s *store.Store) *AdminAPI {
	return &AdminAPI{store: s}
}

// checkSecret validates the admin secret from the X-Admin-Secret header or
// the admin_secret query parameter. An empty configured secret means open
// access (dev mode).
func checkSecret(r *http.Request) bool {
	secret := config.Cfg.AdminSecret
	if secret == "" {
		return true
	}
	if r.Header.Get("X-Admin-Secret") == secret {
		return true
	}
	return r.URL.Query().Get("admin_secret") == secret
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("web: response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// guard wraps a handler with method and admin-secret checks.
func guard(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !checkSecret(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h(w, r)
	}
}

func limitParam(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Health serves GET /admin/health. Unauthenticated liveness probe.
func (a *AdminAPI) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(startTime).Round(time.Second).String(),
	})
}

// Treasury serves GET /admin/treasury.
func (a *AdminAPI) Treasury(w http.ResponseWriter, r *http.Request) {
	guard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		rows, err := a.store.Treasuries(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "treasury query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"treasury": rows})
	})(w, r)
}

// Earnings serves GET /admin/earnings?limit=N.
func (a *AdminAPI) Earnings(w http.ResponseWriter, r *http.Request) {
	guard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		rows, err := a.store.RecentEarnings(r.Context(), limitParam(r, 500))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "earnings query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"earnings": rows})
	})(w, r)
}

// Ledger serves GET /admin/ledger?limit=N.
func (a *AdminAPI) Ledger(w http.ResponseWriter, r *http.Request) {
	guard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		rows, err := a.store.RecentLedger(r.Context(), limitParam(r, 1000))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "ledger query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ledger": rows})
	})(w, r)
}

// Orders serves GET /admin/orders (pending payment orders).
func (a *AdminAPI) Orders(w http.ResponseWriter, r *http.Request) {
	guard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		rows, err := a.store.PendingOrders(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "orders query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"orders": rows})
	})(w, r)
}

type transferRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Transfer serves POST /admin/transfer with {"from","to","amount"}.
func (a *AdminAPI) Transfer(w http.ResponseWriter, r *http.Request) {
	guard(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.From == "" {
			req.From = "primary"
		}
		if req.To == "" || req.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "to and positive amount required")
			return
		}
		err := a.store.TransferTreasury(r.Context(), req.From, req.To, req.Amount,
			map[string]interface{}{"by": "admin_api"})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrInsufficientFunds) || errors.Is(err, store.ErrTreasuryNotFound) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})(w, r)
}

// NotFound serves JSON 404s for unknown admin paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "endpoint not found")
}

// Index serves GET / as a plain liveness line.
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(config.Cfg.BusinessName + " — running\n"))
}
