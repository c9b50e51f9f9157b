// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/engine"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
)

type initializeRequest struct {
	Asset     string `json:"asset"`
	Creator   string `json:"creator"`
	BasePrice uint64 `json:"base_price"`
	MaxSupply uint64 `json:"max_supply"`
}

type tradeRequest struct {
	Party     string `json:"party"`
	AmountIn  uint64 `json:"amount_in"`
	MinAmount uint64 `json:"min_amount_out"`
}

type curveView struct {
	Asset       string `json:"asset"`
	Creator     string `json:"creator"`
	Vault       string `json:"vault"`
	BasePrice   uint64 `json:"base_price"`
	TokenSupply uint64 `json:"token_supply"`
	MaxSupply   uint64 `json:"max_supply"`
	SolReserves uint64 `json:"sol_reserves"`
	ReservesSol string `json:"reserves_sol"`
	Graduated   bool   `json:"graduated"`
}

type priceView struct {
	Asset         string `json:"asset"`
	PriceLamports uint64 `json:"price_lamports"`
	PriceSol      string `json:"price_sol"`
}

type tradeView struct {
	CounterAmount uint64 `json:"counter_amount"`
	Fee           uint64 `json:"fee"`
}

type progressView struct {
	Asset        string  `json:"asset"`
	ReservesSol  uint64  `json:"reserves_sol"`
	ThresholdSol uint64  `json:"threshold_sol"`
	Percent      float64 `json:"percent"`
	Graduated    bool    `json:"graduated"`
}

type tradeHistoryView struct {
	TradeID       string    `json:"trade_id"`
	Party         string    `json:"party"`
	Direction     string    `json:"direction"`
	GrossAmount   uint64    `json:"gross_amount"`
	CounterAmount uint64    `json:"counter_amount"`
	Fee           uint64    `json:"fee"`
	ExecutedAt    time.Time `json:"executed_at"`
}

type errorView struct {
	Error string `json:"error"`
}

// lamportsToSol renders a lamport amount as a nine-decimal SOL string.
func lamportsToSol(lamports uint64) string {
	return decimal.NewFromUint64(lamports).Shift(-9).String()
}

func (s *Server) feeCollector() solana.PublicKey {
	return s.feeCollectorKey
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	asset, err := solana.PublicKeyFromBase58(req.Asset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	creator, err := solana.PublicKeyFromBase58(req.Creator)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := s.engine.InitializeCurve(r.Context(), asset, creator, s.feeCollector(), req.BasePrice, req.MaxSupply)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, stateView(*state))
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	assets := s.engine.ListAssets()
	views := make([]curveView, 0, len(assets))
	for _, asset := range assets {
		state, err := s.engine.GetCurve(asset)
		if err != nil {
			continue
		}
		views = append(views, stateView(state))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetCurve(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	state, err := s.engine.GetCurve(asset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stateView(state))
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	price, err := s.engine.GetPrice(asset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, priceView{
		Asset:         asset.String(),
		PriceLamports: price,
		PriceSol:      lamportsToSol(price),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	progress, err := s.engine.GraduationProgress(asset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progressView{
		Asset:        asset.String(),
		ReservesSol:  progress.ReservesSol,
		ThresholdSol: progress.ThresholdSol,
		Percent:      progress.Percent,
		Graduated:    progress.Graduated,
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	trades, err := s.engine.TradeHistory(r.Context(), asset, limit, offset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	views := make([]tradeHistoryView, 0, len(trades))
	for _, trade := range trades {
		views = append(views, tradeHistoryView{
			TradeID:       trade.TradeID,
			Party:         trade.Party,
			Direction:     trade.Direction,
			GrossAmount:   trade.GrossAmount,
			CounterAmount: trade.CounterAmount,
			Fee:           trade.Fee,
			ExecutedAt:    trade.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, true)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, false)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, buy bool) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	party, err := solana.PublicKeyFromBase58(req.Party)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var res *engine.TradeResult
	if buy {
		res, err = s.engine.Buy(r.Context(), asset, party, req.AmountIn, req.MinAmount)
	} else {
		res, err = s.engine.Sell(r.Context(), asset, party, req.AmountIn, req.MinAmount)
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tradeView{CounterAmount: res.CounterAmount, Fee: res.Fee})
}

func (s *Server) handleGraduate(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	if err := s.engine.CheckAndGraduate(r.Context(), asset); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	handle, err := s.engine.Migrate(r.Context(), asset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handle)
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.assetParam(w, r)
	if !ok {
		return
	}

	amount, err := s.engine.EmergencyWithdraw(r.Context(), asset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"released": amount})
}

func (s *Server) assetParam(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	asset, err := solana.PublicKeyFromBase58(chi.URLParam(r, "asset"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return solana.PublicKey{}, false
	}
	return asset, true
}

func stateView(state curve.State) curveView {
	return curveView{
		Asset:       state.Asset.String(),
		Creator:     state.Creator.String(),
		Vault:       state.Vault.String(),
		BasePrice:   state.BasePrice,
		TokenSupply: state.TokenSupply,
		MaxSupply:   state.MaxSupply,
		SolReserves: state.SolReserves,
		ReservesSol: lamportsToSol(state.SolReserves),
		Graduated:   state.Graduated,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorView{Error: err.Error()})
}

// writeEngineError maps engine error kinds onto HTTP statuses so
// callers can distinguish resubmittable rejections from final ones.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrCurveNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrCurveExists):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, curve.ErrInvalidBasePrice),
		errors.Is(err, curve.ErrInvalidMaxSupply),
		errors.Is(err, curve.ErrInvalidAmount):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, curve.ErrCurveGraduated),
		errors.Is(err, curve.ErrAlreadyGraduated),
		errors.Is(err, curve.ErrNotGraduated):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, curve.ErrSlippageExceeded),
		errors.Is(err, curve.ErrThresholdNotReached):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, curve.ErrMaxSupplyExceeded),
		errors.Is(err, curve.ErrInsufficientSupply),
		errors.Is(err, curve.ErrInsufficientReserves),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientTokens):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, curve.ErrMathOverflow),
		errors.Is(err, curve.ErrDivisionByZero):
		s.writeError(w, http.StatusInternalServerError, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}
