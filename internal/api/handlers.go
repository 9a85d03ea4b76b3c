package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/kivoro-ledger/internal/format"
	"github.com/sheikh-saqib/kivoro-ledger/internal/ledger"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type formattedBalance struct {
	Total     string `json:"total"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type balanceResponse struct {
	models.Balance
	Formatted formattedBalance `json:"formatted"`
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type dividendRequest struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

func toBalanceResponse(b models.Balance) balanceResponse {
	cur := string(b.Currency)
	return balanceResponse{
		Balance: b,
		Formatted: formattedBalance{
			Total:     format.Currency(b.TotalBalance, cur),
			Available: format.Currency(b.AvailableBalance, cur),
			Locked:    format.Currency(b.LockedBalance, cur),
		},
	}
}

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// accountPattern is the shape of an account id accepted in request paths.
var accountPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

func account(r *http.Request) string {
	return mux.Vars(r)["account"]
}

// validateAccount rejects malformed account ids before they reach the ledger.
func validateAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !accountPattern.MatchString(account(r)) {
			writeError(w, http.StatusBadRequest, "account must be 1-64 letters, digits, '.', '_' or '-'")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeBody decodes a size-limited JSON body into v and writes the error
// response itself when that fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return false
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	b := s.ledger.GetBalance(r.Context(), account(r))
	writeJSON(w, http.StatusOK, toBalanceResponse(b))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.ledger.Transactions(r.Context(), account(r), limit))
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request) {
	var order models.BuyOrder
	if !decodeBody(w, r, &order) {
		return
	}
	if order.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is a mandatory field")
		return
	}
	writeResult(w, s.ledger.ProcessBuyOrder(r.Context(), account(r), order))
}

func (s *Server) sell(w http.ResponseWriter, r *http.Request) {
	var order models.SellOrder
	if !decodeBody(w, r, &order) {
		return
	}
	if order.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is a mandatory field")
		return
	}
	writeResult(w, s.ledger.ProcessSellOrder(r.Context(), account(r), order))
}

func (s *Server) topUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.ledger.TopUpBalance(r.Context(), account(r), req.Amount))
}

func (s *Server) dividend(w http.ResponseWriter, r *http.Request) {
	var req dividendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is a mandatory field")
		return
	}

	if err := s.ledger.AddDividendPayment(r.Context(), account(r), req.Symbol, req.Amount); err != nil {
		kind := ledger.KindOf(err)
		writeJSON(w, statusFor(kind), models.Failed(kind, "Failed to record dividend payment."))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ResetBalance(r.Context(), account(r)); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to reset balance. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, toBalanceResponse(s.ledger.GetBalance(r.Context(), account(r))))
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNone:
		return http.StatusOK
	case models.KindInsufficientFunds, models.KindInvalidAmount:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeResult(w http.ResponseWriter, res models.Result) {
	writeJSON(w, statusFor(res.Kind), res)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
