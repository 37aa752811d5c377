package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"walienPool/internal/custody"
	"walienPool/internal/events"
	"walienPool/internal/sale"
	"walienPool/internal/storage"
)

const lamports = 10_000_000_000

type fixture struct {
	handler    http.Handler
	svc        *sale.Service
	admin      solana.PublicKey
	buyer      solana.PublicKey
	stableMint solana.PublicKey
	metrics    *events.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemory()
	reg := prometheus.NewRegistry()
	metrics := events.NewMetrics(reg)

	svc, err := sale.New(store, solana.NewWallet().PublicKey(), sale.WithEventSink(metrics))
	require.NoError(t, err)

	f := &fixture{
		svc:        svc,
		admin:      solana.NewWallet().PublicKey(),
		buyer:      solana.NewWallet().PublicKey(),
		stableMint: solana.NewWallet().PublicKey(),
		metrics:    metrics,
	}
	saleMint := solana.NewWallet().PublicKey()

	require.NoError(t, store.Update(ctx, func(tx storage.Tx) error {
		for _, w := range []solana.PublicKey{f.admin, f.buyer} {
			if err := custody.Airdrop(tx, w, lamports); err != nil {
				return err
			}
		}
		if err := custody.CreateMint(tx, f.admin, f.stableMint, f.admin, sale.StableDecimals); err != nil {
			return err
		}
		if err := custody.CreateMint(tx, f.admin, saleMint, f.admin, sale.SaleDecimals); err != nil {
			return err
		}
		if _, err := custody.CreateAssociatedAccount(tx, f.admin, f.admin, f.stableMint); err != nil {
			return err
		}
		buyerATA, err := custody.CreateAssociatedAccount(tx, f.buyer, f.buyer, f.stableMint)
		if err != nil {
			return err
		}
		if err := custody.MintTo(tx, f.stableMint, buyerATA, f.admin, 5_000_000); err != nil {
			return err
		}
		adminSale, err := custody.CreateAssociatedAccount(tx, f.admin, f.admin, saleMint)
		if err != nil {
			return err
		}
		return custody.MintTo(tx, saleMint, adminSale, f.admin, 1_000_000_000_000_000_000)
	}))

	_, err = svc.Initialize(ctx, f.admin, sale.InitParams{
		StableMint:       f.stableMint,
		AvailableForSwap: 10_000_000_000,
		TickUpper:        -61081,
		Liquidity:        *uint256.NewInt(106167919507750),
		SqrtPrice:        *uint256.NewInt(18446744073709552),
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetSaleToken(ctx, f.admin, saleMint))
	require.NoError(t, svc.DepositSaleToken(ctx, f.admin, 1_000_000_000_000_000_000))
	require.NoError(t, svc.SetSaleActive(ctx, f.admin, true))

	f.handler = New(Config{Service: svc, Gatherer: reg}).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestQuoteAndBuy(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/quote?amount=1000000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quote struct {
		AmountIn  uint64 `json:"amount_in"`
		AmountOut uint64 `json:"amount_out"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Equal(t, uint64(1_000_000), quote.AmountIn)
	require.Equal(t, uint64(999_990_581_043), quote.AmountOut)

	rec = f.do(t, http.MethodPost, "/v1/buy", `{"buyer":"`+f.buyer.String()+`","amount":1000000,"minimum_output":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bought struct {
		PositionIndex uint64 `json:"position_index"`
		WalienAmount  uint64 `json:"walien_amount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bought))
	require.Equal(t, uint64(1), bought.PositionIndex)
	require.Equal(t, quote.AmountOut, bought.WalienAmount)

	rec = f.do(t, http.MethodGet, "/v1/positions/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), f.buyer.String())

	rec = f.do(t, http.MethodGet, "/v1/summaries/"+f.buyer.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_stable_locked":1000000`)

	rec = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "walien_sale_events_total")
}

func TestRuleViolationsMapToStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/buy", `{"buyer":"`+f.buyer.String()+`","amount":1000000,"minimum_output":18446744073709551615}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "walien_pool", body.Codespace)
	require.Equal(t, uint32(6025), body.Code)

	rec = f.do(t, http.MethodGet, "/v1/positions/7", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/buy", `{"buyer":"`+f.buyer.String()+`","amount":1000000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	stranger := solana.NewWallet().PublicKey()
	rec = f.do(t, http.MethodPost, "/v1/positions/1/withdraw", `{"signer":"`+stranger.String()+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/positions/1/rollback", `{"signer":"`+stranger.String()+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/positions/1/claim", `{"signer":"`+stranger.String()+`"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWithdrawAndAudit(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/buy", `{"buyer":"`+f.buyer.String()+`","amount":1000000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/positions/1/withdraw", `{"signer":"`+f.buyer.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refund sale.Refund
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refund))
	require.Equal(t, uint64(1_000_000), refund.UsdcAmount)
	require.True(t, refund.SummaryClosed)

	rec = f.do(t, http.MethodPost, "/v1/positions/1/withdraw", `{"signer":"`+f.buyer.String()+`"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report sale.AuditReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.True(t, report.OK())
	require.Equal(t, 0, report.OpenPositions)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/quote?amount=-1", "").Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/buy", `{"buyer":"nope","amount":1}`).Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/buy", `not json`).Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/positions/x", "").Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/summaries/zz", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
}
