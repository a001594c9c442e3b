package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/ethereum"
	"github.com/rmaulana/pocketpay/internal/testutil"
)

type notifyCall struct {
	userIDs []string
	n       Notification
}

// recordingNotifier captures dispatched notifications; safe for use from
// the engine's concurrent goroutines
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (r *recordingNotifier) Notify(ctx context.Context, userIDs []string, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notifyCall{userIDs: userIDs, n: n})
}

func (r *recordingNotifier) Calls() []notifyCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifyCall, len(r.calls))
	copy(out, r.calls)
	return out
}

type reconcilerMocks struct {
	txRepo     *testutil.MockTransactionRepository
	walletRepo *testutil.MockWalletRepository
	userRepo   *testutil.MockUserRepository
	chain      *testutil.MockChainClient
	notifier   *recordingNotifier
}

func setupReconcilerTest() (*ReconciliationEngine, *reconcilerMocks) {
	m := &reconcilerMocks{
		txRepo:     testutil.NewMockTransactionRepository(),
		walletRepo: testutil.NewMockWalletRepository(),
		userRepo:   testutil.NewMockUserRepository(),
		chain:      testutil.NewMockChainClient(),
		notifier:   &recordingNotifier{},
	}
	resolver := NewIdentityResolver(m.walletRepo, m.userRepo, nil, zap.NewNop())
	engine := NewReconciliationEngine(resolver, m.txRepo, m.walletRepo, m.chain, m.notifier, zap.NewNop())
	return engine, m
}

func seedUser(m *reconcilerMocks, id, username, address string) {
	m.userRepo.Seed(testutil.CreateTestUser(id, username))
	m.walletRepo.Seed(testutil.CreateTestWallet(id, address))
}

func parsedTransfer(a entities.ChainActivity, fees decimal.Decimal) entities.ParsedTransfer {
	return entities.ParsedTransfer{MainTransfer: &a, TotalFees: fees}
}

func TestReconcile_NoMainTransfer(t *testing.T) {
	engine, _ := setupReconcilerTest()

	if engine.Reconcile(context.Background(), entities.ParsedTransfer{}) {
		t.Error("expected false for a batch with no main transfer")
	}
}

func TestReconcile_BothPartiesUnknown(t *testing.T) {
	engine, m := setupReconcilerTest()

	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(), decimal.Zero,
	))

	if ok {
		t.Error("expected false for an entirely external transfer")
	}
	if m.txRepo.Len() != 0 {
		t.Errorf("expected no transactions written, got %d", m.txRepo.Len())
	}
	if m.walletRepo.UpdateCount() != 0 {
		t.Errorf("expected no wallet refreshes, got %d", m.walletRepo.UpdateCount())
	}
	if len(m.notifier.Calls()) != 0 {
		t.Errorf("expected no notifications, got %d", len(m.notifier.Calls()))
	}
}

func TestReconcile_ConfirmPath(t *testing.T) {
	engine, m := setupReconcilerTest()
	ctx := context.Background()

	seedUser(m, testutil.AliceID, "alice", testutil.AliceAddress)
	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)
	m.txRepo.Seed(testutil.CreateTestTransaction(
		testutil.WithTxHash("0xabc"),
		testutil.WithStatus(entities.TransactionPending),
	))

	fees := decimal.RequireFromString("0.0002")
	ok := engine.Reconcile(ctx, parsedTransfer(
		testutil.CreateTestActivity(
			testutil.WithHash("0xabc"),
			testutil.WithValue(decimal.NewFromInt(25)),
		),
		fees,
	))

	if !ok {
		t.Fatal("expected confirm path to succeed")
	}

	stored := m.txRepo.Get("0xabc")
	if stored == nil {
		t.Fatal("expected the transaction to still exist")
	}
	if stored.Status != entities.TransactionConfirmed {
		t.Errorf("expected status confirmed, got %s", stored.Status)
	}
	if !stored.Fee.Equal(fees) {
		t.Errorf("expected fee %s, got %s", fees, stored.Fee)
	}

	// Both parties known: both caches refreshed
	if m.walletRepo.UpdateCount() != 2 {
		t.Errorf("expected 2 wallet refreshes, got %d", m.walletRepo.UpdateCount())
	}

	calls := m.notifier.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(calls))
	}
	if calls[0].n.Title != "Payment Received" {
		t.Errorf("expected title Payment Received, got %s", calls[0].n.Title)
	}
	if calls[0].n.Body != "25 USDC" {
		t.Errorf("expected body '25 USDC', got %q", calls[0].n.Body)
	}
	if len(calls[0].userIDs) != 1 || calls[0].userIDs[0] != testutil.BobID {
		t.Errorf("expected notification to the recipient, got %v", calls[0].userIDs)
	}
}

func TestReconcile_ConfirmPath_RequestFulfillment(t *testing.T) {
	engine, m := setupReconcilerTest()

	seedUser(m, testutil.AliceID, "alice", testutil.AliceAddress)
	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)
	m.txRepo.Seed(testutil.CreateTestTransaction(
		testutil.WithTxHash("0xabc"),
		testutil.WithPaymentRequest(7),
	))

	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(testutil.WithHash("0xabc")),
		decimal.Zero,
	))
	if !ok {
		t.Fatal("expected confirm path to succeed")
	}

	calls := m.notifier.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(calls))
	}
	if calls[0].n.Title != "Payment Fulfilled" {
		t.Errorf("expected title Payment Fulfilled, got %s", calls[0].n.Title)
	}
}

func TestReconcile_ConfirmPath_RecipientUnknown(t *testing.T) {
	engine, m := setupReconcilerTest()

	// Sender is ours, recipient is external
	seedUser(m, testutil.AliceID, "alice", testutil.AliceAddress)
	m.txRepo.Seed(testutil.CreateTestTransaction(
		testutil.WithTxHash("0xabc"),
		testutil.WithToUser(nil),
	))

	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(
			testutil.WithHash("0xabc"),
			testutil.WithToAddress(testutil.CharlieAddr),
		),
		decimal.Zero,
	))
	if !ok {
		t.Fatal("expected confirm path to succeed")
	}

	if m.walletRepo.UpdateCount() != 1 {
		t.Errorf("expected only the sender wallet refreshed, got %d", m.walletRepo.UpdateCount())
	}
	if len(m.notifier.Calls()) != 0 {
		t.Errorf("expected no notification for an external recipient, got %d", len(m.notifier.Calls()))
	}
}

func TestReconcile_InboundPath(t *testing.T) {
	engine, m := setupReconcilerTest()

	// Only the recipient is ours; no pre-registered row
	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)
	m.chain.TokenBalances[testutil.BobAddress] = decimal.NewFromInt(125)

	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(
			testutil.WithHash("0xdef"),
			testutil.WithValue(decimal.NewFromInt(25)),
		),
		decimal.Zero,
	))
	if !ok {
		t.Fatal("expected inbound path to succeed")
	}

	stored := m.txRepo.Get("0xdef")
	if stored == nil {
		t.Fatal("expected an inserted transaction")
	}
	if stored.Status != entities.TransactionConfirmed {
		t.Errorf("expected inbound transfer inserted as confirmed, got %s", stored.Status)
	}
	if stored.FromUserID != nil {
		t.Errorf("expected nil FromUserID for an external sender, got %s", *stored.FromUserID)
	}
	if stored.ToUserID == nil || *stored.ToUserID != testutil.BobID {
		t.Error("expected ToUserID set to the recipient")
	}

	if m.walletRepo.UpdateCount() != 1 {
		t.Errorf("expected 1 wallet refresh, got %d", m.walletRepo.UpdateCount())
	}
	refreshed := m.walletRepo.Get(testutil.BobAddress)
	if refreshed == nil || refreshed.UsdcBalance != "125" {
		t.Errorf("expected cached token balance 125, got %+v", refreshed)
	}

	calls := m.notifier.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(calls))
	}
	want := "25 USDC from 0x1111...1111"
	if calls[0].n.Body != want {
		t.Errorf("expected body %q, got %q", want, calls[0].n.Body)
	}
}

func TestReconcile_InboundPath_DuplicateDelivery(t *testing.T) {
	engine, m := setupReconcilerTest()

	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)
	m.txRepo.GetByHashFunc = func(ctx context.Context, hash string) (*entities.Transaction, error) {
		return nil, repositories.ErrNotFound
	}
	m.txRepo.InsertFunc = func(ctx context.Context, tx *entities.Transaction) error {
		return repositories.ErrDuplicateTx
	}

	// A concurrent delivery inserted the row between lookup and insert
	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(testutil.WithHash("0xdef")),
		decimal.Zero,
	))
	if !ok {
		t.Error("expected a duplicate-hash conflict to count as already processed")
	}
	if len(m.notifier.Calls()) != 0 {
		t.Errorf("expected no notification for a duplicate, got %d", len(m.notifier.Calls()))
	}
}

func TestReconcile_BalanceReadFailure(t *testing.T) {
	engine, m := setupReconcilerTest()

	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)
	m.chain.TokenBalanceFunc = func(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("rpc unavailable")
	}

	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(testutil.WithHash("0xdef")),
		decimal.Zero,
	))
	if ok {
		t.Error("expected false when the wallet refresh cannot complete")
	}
}

func TestReconcile_LookupFailure(t *testing.T) {
	engine, m := setupReconcilerTest()

	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)
	m.txRepo.GetByHashFunc = func(ctx context.Context, hash string) (*entities.Transaction, error) {
		return nil, errors.New("connection refused")
	}

	ok := engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(), decimal.Zero,
	))
	if ok {
		t.Error("expected false when the transaction lookup fails")
	}
	if m.txRepo.Len() != 0 {
		t.Errorf("expected no writes after a failed lookup, got %d", m.txRepo.Len())
	}
}

func TestReconcile_RefreshUsesCommittedLevel(t *testing.T) {
	engine, m := setupReconcilerTest()

	seedUser(m, testutil.BobID, "bob", testutil.BobAddress)

	if !engine.Reconcile(context.Background(), parsedTransfer(
		testutil.CreateTestActivity(testutil.WithHash("0xdef")),
		decimal.Zero,
	)) {
		t.Fatal("expected inbound path to succeed")
	}

	for _, call := range m.chain.Calls {
		if call.Method != "NativeBalance" && call.Method != "TokenBalance" {
			continue
		}
		if level, ok := call.Args[1].(ethereum.ConfirmationLevel); !ok || level != ethereum.LevelCommitted {
			t.Errorf("expected %s at committed level, got %v", call.Method, call.Args[1])
		}
	}
}
