package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/engine"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
	"github.com/rovshanmuradov/curve-engine/internal/migration"
)

func testKey(b byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = b
	return solana.PublicKeyFromBytes(raw[:])
}

type apiFixture struct {
	mem     *ledger.Memory
	svc     *engine.Service
	handler http.Handler

	asset   solana.PublicKey
	creator solana.PublicKey
	trader  solana.PublicKey
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	nop := zap.NewNop()

	mem := ledger.NewMemory(curve.EngineProgramID, nop)
	svc := engine.NewService(engine.ServiceConfig{
		Ledger:   mem.Session(curve.EngineProgramID),
		Migrator: migration.NewLogMigrator(nop),
		Logger:   nop,
	})
	server := New(":0", svc, nil, testKey(3), nop)

	return &apiFixture{
		mem:     mem,
		svc:     svc,
		handler: server.Handler(),
		asset:   testKey(1),
		creator: testKey(2),
		trader:  testKey(4),
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) initCurve(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/curves", initializeRequest{
		Asset:     f.asset.String(),
		Creator:   f.creator.String(),
		BasePrice: 1_000_000_000,
		MaxSupply: 1_000_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeCurve(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	// Same asset again conflicts.
	rec := f.do(t, http.MethodPost, "/api/curves", initializeRequest{
		Asset:     f.asset.String(),
		Creator:   f.creator.String(),
		BasePrice: 1_000_000_000,
		MaxSupply: 1_000_000_000,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInitializeCurveRejectsBadParameters(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/curves", initializeRequest{
		Asset:     f.asset.String(),
		Creator:   f.creator.String(),
		BasePrice: 0,
		MaxSupply: 1_000_000_000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/curves", initializeRequest{
		Asset:   "not-a-key",
		Creator: f.creator.String(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCurve(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodGet, "/api/curves/"+f.asset.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[curveView](t, rec)
	assert.Equal(t, f.asset.String(), view.Asset)
	assert.Equal(t, uint64(1_000_000_000), view.BasePrice)
	assert.False(t, view.Graduated)
	assert.NotEmpty(t, view.Vault)
}

func TestGetCurveNotFound(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/curves/"+testKey(99).String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPrice(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodGet, "/api/curves/"+f.asset.String()+"/price", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[priceView](t, rec)
	assert.Equal(t, uint64(1_000_000_000), view.PriceLamports)
	assert.Equal(t, "1", view.PriceSol)
}

func TestBuy(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)
	f.mem.Credit(f.trader, 1_000_000)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/buy", f.asset), tradeRequest{
		Party:    f.trader.String(),
		AmountIn: 101_000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decodeBody[tradeView](t, rec)
	assert.Equal(t, uint64(99_990), view.CounterAmount)
	assert.Equal(t, uint64(1_010), view.Fee)
}

func TestBuyRejectsSlippage(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)
	f.mem.Credit(f.trader, 1_000_000)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/buy", f.asset), tradeRequest{
		Party:     f.trader.String(),
		AmountIn:  101_000,
		MinAmount: 100_000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBuyRejectsUnderfundedParty(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/buy", f.asset), tradeRequest{
		Party:    f.trader.String(),
		AmountIn: 101_000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSell(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)
	f.mem.Credit(f.trader, 1_000_000)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/buy", f.asset), tradeRequest{
		Party:    f.trader.String(),
		AmountIn: 101_000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	bought := decodeBody[tradeView](t, rec)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/sell", f.asset), tradeRequest{
		Party:    f.trader.String(),
		AmountIn: bought.CounterAmount,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sold := decodeBody[tradeView](t, rec)
	assert.Positive(t, sold.CounterAmount)
}

func TestGraduateBelowThreshold(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/graduate", f.asset), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMigrateRequiresGraduation(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/migrate", f.asset), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGraduationLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	// Restore a curve sitting at the threshold.
	state, err := curve.NewState(f.asset, f.creator, testKey(3), 1_000_000_000, 1_000_000_000)
	require.NoError(t, err)
	state.SolReserves = engine.GraduationThresholdSol * curve.LamportsPerSol
	state.TokenSupply = 500_000_000
	require.NoError(t, f.svc.Restore(context.Background(), state))
	f.mem.Credit(state.Vault, state.SolReserves)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/graduate", f.asset), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/migrate", f.asset), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	handle := decodeBody[engine.MigrationHandle](t, rec)
	assert.NotEmpty(t, handle.Pool)
	assert.Equal(t, state.SolReserves, handle.SolAmount)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/emergency-withdraw", f.asset), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Trading on the graduated curve conflicts.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/curves/%s/buy", f.asset), tradeRequest{
		Party:    f.trader.String(),
		AmountIn: 1_000,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProgress(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/curves/%s/progress", f.asset), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same snake_case key convention as every other response.
	body := rec.Body.String()
	assert.Contains(t, body, `"threshold_sol"`)
	assert.Contains(t, body, `"reserves_sol"`)
	assert.Contains(t, body, `"percent"`)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/curves/%s/progress", f.asset), nil)
	progress := decodeBody[progressView](t, rec)
	assert.Equal(t, f.asset.String(), progress.Asset)
	assert.Equal(t, uint64(engine.GraduationThresholdSol), progress.ThresholdSol)
	assert.Zero(t, progress.ReservesSol)
	assert.False(t, progress.Graduated)
}

func TestListCurves(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	rec := f.do(t, http.MethodGet, "/api/curves", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	views := decodeBody[[]curveView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, f.asset.String(), views[0].Asset)
}

func TestTradeHistory(t *testing.T) {
	f := newAPIFixture(t)
	f.initCurve(t)

	// Without persistence the history is empty, not an error.
	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/curves/%s/trades", f.asset), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decodeBody[[]tradeHistoryView](t, rec)
	assert.Empty(t, views)

	rec = f.do(t, http.MethodGet, "/api/curves/"+testKey(99).String()+"/trades", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidAssetParam(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/curves/not-a-key/price", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
