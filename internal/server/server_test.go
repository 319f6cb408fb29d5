package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hance08/dtl/internal/auth"
	"github.com/hance08/dtl/internal/config"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/service"
	"github.com/hance08/dtl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mallory = "0xf17f52151ebef6c7334fad080c5704d77216b732"

// the default seed set is also the default sender allow-list
var (
	alice = config.NewDefault().Seed[0].Address
	bob   = config.NewDefault().Seed[1].Address
)

type stubLedger struct {
	mu  sync.Mutex
	n   int
	err error
}

func (l *stubLedger) SubmitTransfer(context.Context, ledger.Credential, string, uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	l.n++
	return fmt.Sprintf("0x%064x", l.n), nil
}

type stubMetadata struct {
	err error
}

func (m *stubMetadata) Put(context.Context, metadata.Document) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "QmStub", nil
}

func (m *stubMetadata) Get(_ context.Context, cid string) (metadata.Document, error) {
	if cid != "QmStub" {
		return metadata.Document{}, metadata.ErrUnavailable
	}
	return metadata.NewDocument(alice, bob, 200, time.Unix(0, 0)), nil
}

type fixture struct {
	repo   *store.Store
	ledger *stubLedger
	meta   *stubMetadata
	server *Server
	issuer *auth.Issuer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	repo, err := store.NewStore(context.Background(),
		store.Options{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "dtl.db")},
		os.DirFS(filepath.Join("..", "..")))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := config.NewDefault()
	creds, err := ledger.ParseCredentials(cfg.Credentials)
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{repo: repo, ledger: &stubLedger{}, meta: &stubMetadata{}, issuer: issuer}
	m := metrics.New()
	svc := service.NewService(service.Deps{
		Repo:        repo,
		Ledger:      f.ledger,
		Metadata:    f.meta,
		Credentials: creds,
		Logger:      zap.NewNop(),
		Metrics:     m,
	}, cfg)

	f.server = New(opts, Deps{Service: svc, Store: repo, Issuer: issuer, Logger: zap.NewNop(), Metrics: m})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, f.repo.Close())
	rec = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSeedAndListAccounts(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/accounts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/seed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seeded := decode[struct {
		Status   string          `json:"status"`
		Accounts []model.Account `json:"accounts"`
	}](t, rec)
	assert.Equal(t, "seeded", seeded.Status)
	require.Len(t, seeded.Accounts, 2)
	assert.Equal(t, "Alice", seeded.Accounts[0].DisplayName)
	assert.Equal(t, int64(1200), seeded.Accounts[0].Balance)

	rec = f.do(t, http.MethodGet, "/accounts", nil)
	accounts := decode[[]model.Account](t, rec)
	assert.Len(t, accounts, 2)
}

func TestSubmitTransfer(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/transfer", map[string]any{"from": alice, "to": bob, "amount": 200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	receipt := decode[service.TransferReceipt](t, rec)
	assert.Equal(t, "submitted", receipt.Status)
	assert.Equal(t, "QmStub", receipt.MetadataReference)

	rec = f.do(t, http.MethodGet, "/transfers/"+receipt.TransferID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[model.Transfer](t, rec)
	assert.Equal(t, model.StatusPending, stored.Status)

	rec = f.do(t, http.MethodGet, "/transfers/"+receipt.TransferID+"/metadata", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"MoneyToken Transfer"`)

	rec = f.do(t, http.MethodGet, "/transfers?account="+bob+"&status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Transfer](t, rec), 1)
}

func TestSubmitTransferErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		ledgerErr  error
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown sender",
			body:       map[string]any{"from": mallory, "to": bob, "amount": 10},
			wantStatus: http.StatusBadRequest,
			wantError:  "Unknown sender address",
		},
		{
			name:       "zero amount",
			body:       map[string]any{"from": alice, "to": bob, "amount": 0},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid transfer",
		},
		{
			name:       "negative amount",
			body:       map[string]any{"from": alice, "to": bob, "amount": -3},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid transfer",
		},
		{
			name:       "ledger down",
			body:       map[string]any{"from": alice, "to": bob, "amount": 10},
			ledgerErr:  errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "ledger submission failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.ledger.err = tt.ledgerErr

			rec := f.do(t, http.MethodPost, "/transfer", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decode[map[string]string](t, rec)
			if tt.name == "unknown sender" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.True(t, strings.HasPrefix(body["error"], tt.wantError), body["error"])
			}

			transfers, err := f.repo.ListTransactions(context.Background(), model.TransferFilter{})
			require.NoError(t, err)
			assert.Empty(t, transfers)
		})
	}
}

func TestTransferLookups(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.repo.UpsertTransaction(context.Background(), &model.Transfer{
		ID: "0xbare", From: alice, To: bob, Amount: 1, Status: model.StatusConfirmed,
	}))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/transfers/0xmissing", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/transfers/0xbare/metadata", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/transfers?status=failed", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/transfers?limit=-1", nil).Code)
}

func TestTransferRateLimit(t *testing.T) {
	f := newFixture(t, Options{TransferRate: 0.001, TransferBurst: 1})
	body := map[string]any{"from": alice, "to": bob, "amount": 1}

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/transfer", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/transfer", body).Code)

	// other routes are not limited
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/accounts", nil).Code)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, Options{AuthRequired: true})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/accounts", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/accounts", nil, "Authorization", "Bearer junk").Code)

	token, err := f.issuer.Issue(alice)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/accounts", nil, "Authorization", "Bearer "+token).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Options{})
	f.do(t, http.MethodPost, "/transfer", map[string]any{"from": alice, "to": bob, "amount": 1})

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dtl_submissions_total{result="submitted"} 1`)
}

func TestOpsServerExposesOnlyProbes(t *testing.T) {
	f := newFixture(t, Options{})
	ops := NewOps(Options{}, Deps{Store: f.repo, Metrics: metrics.New()})

	for path, want := range map[string]int{"/health": 200, "/ready": 200, "/metrics": 200, "/accounts": 404} {
		rec := httptest.NewRecorder()
		ops.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, Options{})
	srv := NewOps(Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, Deps{Store: f.repo})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
