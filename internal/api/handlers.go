package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"walienPool/internal/custody"
	"walienPool/internal/errs"
)

type buyRequest struct {
	Buyer         string `json:"buyer"`
	Amount        uint64 `json:"amount"`
	MinimumOutput uint64 `json:"minimum_output"`
}

type signerRequest struct {
	Signer string `json:"signer"`
}

type errorResponse struct {
	Codespace string `json:"codespace"`
	Code      uint32 `json:"code"`
	Error     string `json:"error"`
}

func (s *Server) GetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.svc.Pool(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	q, err := s.svc.QuoteDetail(r.Context(), amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) GetAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Audit(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) PostBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	buyer, err := solana.PublicKeyFromBase58(req.Buyer)
	if err != nil {
		http.Error(w, "invalid buyer", http.StatusBadRequest)
		return
	}
	ev, err := s.svc.Buy(r.Context(), buyer, req.Amount, req.MinimumOutput)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) GetPosition(w http.ResponseWriter, r *http.Request) {
	index, ok := positionIndex(w, r)
	if !ok {
		return
	}
	pos, err := s.svc.Position(r.Context(), index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) PostClaim(w http.ResponseWriter, r *http.Request) {
	index, signer, ok := positionAction(w, r)
	if !ok {
		return
	}
	ev, err := s.svc.Claim(r.Context(), signer, index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) PostWithdraw(w http.ResponseWriter, r *http.Request) {
	index, signer, ok := positionAction(w, r)
	if !ok {
		return
	}
	refund, err := s.svc.Withdraw(r.Context(), signer, index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refund)
}

func (s *Server) PostRollback(w http.ResponseWriter, r *http.Request) {
	index, signer, ok := positionAction(w, r)
	if !ok {
		return
	}
	refund, err := s.svc.Rollback(r.Context(), signer, index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refund)
}

func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	owner, err := solana.PublicKeyFromBase58(chi.URLParam(r, "owner"))
	if err != nil {
		http.Error(w, "invalid owner", http.StatusBadRequest)
		return
	}
	sum, err := s.svc.Summary(r.Context(), owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func positionIndex(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		http.Error(w, "invalid position index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func positionAction(w http.ResponseWriter, r *http.Request) (uint64, solana.PublicKey, bool) {
	index, ok := positionIndex(w, r)
	if !ok {
		return 0, solana.PublicKey{}, false
	}
	var req signerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return 0, solana.PublicKey{}, false
	}
	signer, err := solana.PublicKeyFromBase58(req.Signer)
	if err != nil {
		http.Error(w, "invalid signer", http.StatusBadRequest)
		return 0, solana.PublicKey{}, false
	}
	return index, signer, true
}

// statusFor maps ledger errors onto HTTP statuses. Rule violations are 422 so
// clients can tell them apart from malformed requests.
func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrAccountNotInitialized, custody.ErrAccountNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrConstraintRaw, errs.ErrConstraintSeeds):
		return http.StatusForbidden
	}
	switch codespace, _ := errs.Code(err); codespace {
	case errs.Codespace, errs.AnchorCodespace, custody.Codespace:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	codespace, code := errs.Code(err)
	resp := errorResponse{Codespace: codespace, Code: code, Error: err.Error()}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
