package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	aliceKey = "8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c691be63"
	bobKey   = "c87509a1c067bbde78beb793e6fa76530b6382a4c0241e5e4a9ec0a0f44dc0d3"
	mallory  = "0xf17f52151ebef6c7334fad080c5704d77216b732"
)

var (
	alice = addressOf(aliceKey)
	bob   = addressOf(bobKey)
)

func addressOf(hexKey string) string {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(err)
	}
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

// checksummed returns the mixed-case form of a lowercase address.
func checksummed(address string) string {
	return common.HexToAddress(address).Hex()
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(context.Background(),
		store.Options{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "dtl.db")},
		os.DirFS(filepath.Join("..", "..")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAliceBob(t *testing.T, repo store.Repository) {
	t.Helper()
	require.NoError(t, repo.SeedAccounts(context.Background(), []model.AccountSeed{
		{Address: alice, Name: "Alice", Balance: 1200},
		{Address: bob, Name: "Bob", Balance: 1200},
	}))
}

func testCredentials(t *testing.T) ledger.Credentials {
	t.Helper()
	creds, err := ledger.ParseCredentials(map[string]string{alice: aliceKey, bob: bobKey})
	require.NoError(t, err)
	return creds
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

type ledgerCall struct {
	From   string
	To     string
	Amount uint64
}

type fakeLedger struct {
	mu    sync.Mutex
	err   error
	calls []ledgerCall
}

func (f *fakeLedger) SubmitTransfer(_ context.Context, cred ledger.Credential, to string, amount uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ledgerCall{From: cred.Address.Hex(), To: to, Amount: amount})
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("0x%064x", len(f.calls)), nil
}

func (f *fakeLedger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeMetadata struct {
	mu   sync.Mutex
	err  error
	docs map[string]metadata.Document
	puts int
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{docs: map[string]metadata.Document{}}
}

func (f *fakeMetadata) Put(_ context.Context, doc metadata.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.err != nil {
		return "", f.err
	}
	cid := fmt.Sprintf("QmDoc%d", f.puts)
	f.docs[cid] = doc
	return cid, nil
}

func (f *fakeMetadata) Get(_ context.Context, cid string) (metadata.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[cid]
	if !ok {
		return metadata.Document{}, metadata.ErrUnavailable
	}
	return doc, nil
}

type fakeSubscription struct {
	events chan ledger.TransferEvent
	errs   chan error
	once   sync.Once
	closed chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		events: make(chan ledger.TransferEvent),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (s *fakeSubscription) Events() <-chan ledger.TransferEvent { return s.events }
func (s *fakeSubscription) Err() <-chan error                    { return s.errs }
func (s *fakeSubscription) Unsubscribe()                         { s.once.Do(func() { close(s.closed) }) }

type fakeSource struct {
	mu            sync.Mutex
	history       []ledger.TransferEvent
	head          uint64
	subscribeErrs []error
	subs          chan *fakeSubscription
	sinceCalls    []uint64
}

func newFakeSource() *fakeSource {
	return &fakeSource{subs: make(chan *fakeSubscription, 16)}
}

func (f *fakeSource) SubscribeTransferEvents(context.Context, string) (ledger.Subscription, error) {
	f.mu.Lock()
	if len(f.subscribeErrs) > 0 {
		err := f.subscribeErrs[0]
		f.subscribeErrs = f.subscribeErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	sub := newFakeSubscription()
	f.subs <- sub
	return sub, nil
}

func (f *fakeSource) TransferEventsSince(_ context.Context, _ string, from uint64) ([]ledger.TransferEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinceCalls = append(f.sinceCalls, from)

	var out []ledger.TransferEvent
	for _, ev := range f.history {
		if ev.BlockNumber >= from {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeSource) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeSource) SinceCalls() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.sinceCalls...)
}

// flakyRepo fails selected writes and passes everything else through.
type flakyRepo struct {
	store.Repository
	upsertErr error
	applyErr  error
	// applyFailures fails this many ApplyTransferEvent calls with errBoom
	// before passing through.
	applyFailures atomic.Int32
}

func (r *flakyRepo) UpsertTransaction(ctx context.Context, t *model.Transfer) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	return r.Repository.UpsertTransaction(ctx, t)
}

func (r *flakyRepo) ApplyTransferEvent(ctx context.Context, key model.EventKey, from, to string, amount uint64) (bool, error) {
	if r.applyErr != nil {
		return false, r.applyErr
	}
	for {
		n := r.applyFailures.Load()
		if n <= 0 {
			break
		}
		if r.applyFailures.CompareAndSwap(n, n-1) {
			return false, errBoom
		}
	}
	return r.Repository.ApplyTransferEvent(ctx, key, from, to, amount)
}

var errBoom = errors.New("boom")

func transferEvent(hash string, block uint64, index uint, from, to string, amount uint64) ledger.TransferEvent {
	return ledger.TransferEvent{From: from, To: to, Amount: amount, TxHash: hash, BlockNumber: block, LogIndex: index}
}

func newMetrics() *metrics.Metrics {
	return metrics.New()
}
