package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/ethereum"
	"github.com/rmaulana/pocketpay/internal/infrastructure/push"
)

// MockCall records one invocation of a mock method
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*entities.Transaction
	nextID       int64

	// Function hooks for custom behavior
	GetByHashFunc   func(ctx context.Context, hash string) (*entities.Transaction, error)
	InsertFunc      func(ctx context.Context, tx *entities.Transaction) error
	ConfirmFunc     func(ctx context.Context, hash string, update repositories.ConfirmUpdate) (*entities.Transaction, error)
	GetByFilterFunc func(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error)

	// Call tracking
	Calls []MockCall
}

var _ repositories.TransactionRepository = (*MockTransactionRepository)(nil)

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*entities.Transaction),
		nextID:       1,
	}
}

// Seed inserts a transaction directly, bypassing hooks
func (m *MockTransactionRepository) Seed(tx entities.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == 0 {
		tx.ID = m.nextID
		m.nextID++
	}
	m.transactions[tx.Hash] = &tx
}

// Get returns the stored transaction for a hash, or nil
func (m *MockTransactionRepository) Get(hash string) *entities.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.transactions[hash]; ok {
		copied := *tx
		return &copied
	}
	return nil
}

// Len returns the number of stored transactions
func (m *MockTransactionRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

func (m *MockTransactionRepository) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

func (m *MockTransactionRepository) GetByHash(ctx context.Context, hash string) (*entities.Transaction, error) {
	m.record("GetByHash", hash)

	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, hash)
	}

	tx := m.Get(hash)
	if tx == nil {
		return nil, repositories.ErrNotFound
	}
	return tx, nil
}

func (m *MockTransactionRepository) Insert(ctx context.Context, tx *entities.Transaction) error {
	m.record("Insert", tx.Hash)

	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.transactions[tx.Hash]; exists {
		return repositories.ErrDuplicateTx
	}
	tx.ID = m.nextID
	m.nextID++
	copied := *tx
	m.transactions[tx.Hash] = &copied
	return nil
}

func (m *MockTransactionRepository) Confirm(ctx context.Context, hash string, update repositories.ConfirmUpdate) (*entities.Transaction, error) {
	m.record("Confirm", hash, update)

	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, hash, update)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[hash]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	tx.Amount = update.Amount
	tx.Fee = update.Fee
	tx.Status = update.Status
	copied := *tx
	return &copied, nil
}

func (m *MockTransactionRepository) GetByFilter(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error) {
	m.record("GetByFilter", filter)

	if m.GetByFilterFunc != nil {
		return m.GetByFilterFunc(ctx, filter)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []entities.Transaction
	for _, tx := range m.transactions {
		if filter.UserID != nil {
			involved := (tx.FromUserID != nil && *tx.FromUserID == *filter.UserID) ||
				(tx.ToUserID != nil && *tx.ToUserID == *filter.UserID)
			if !involved {
				continue
			}
		}
		if filter.Status != nil && tx.Status != *filter.Status {
			continue
		}
		result = append(result, *tx)
	}
	return result, nil
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*entities.Wallet

	GetByAddressFunc   func(ctx context.Context, address string) (*entities.Wallet, error)
	GetByUserIDFunc    func(ctx context.Context, userID string) (*entities.Wallet, error)
	UpdateBalancesFunc func(ctx context.Context, address, ethBalance, usdcBalance string) error

	Calls []MockCall
}

var _ repositories.WalletRepository = (*MockWalletRepository)(nil)

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{wallets: make(map[string]*entities.Wallet)}
}

// Seed inserts a wallet keyed by lowercase address
func (m *MockWalletRepository) Seed(w entities.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[strings.ToLower(w.Address)] = &w
}

// Get returns the stored wallet for an address, or nil
func (m *MockWalletRepository) Get(address string) *entities.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[strings.ToLower(address)]; ok {
		copied := *w
		return &copied
	}
	return nil
}

func (m *MockWalletRepository) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

// UpdateCount returns the number of UpdateBalances calls
func (m *MockWalletRepository) UpdateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.Calls {
		if c.Method == "UpdateBalances" {
			n++
		}
	}
	return n
}

func (m *MockWalletRepository) GetByAddress(ctx context.Context, address string) (*entities.Wallet, error) {
	m.record("GetByAddress", address)

	if m.GetByAddressFunc != nil {
		return m.GetByAddressFunc(ctx, address)
	}

	w := m.Get(address)
	if w == nil {
		return nil, repositories.ErrNotFound
	}
	return w, nil
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*entities.Wallet, error) {
	m.record("GetByUserID", userID)

	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.UserID == userID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *MockWalletRepository) UpdateBalances(ctx context.Context, address, ethBalance, usdcBalance string) error {
	m.record("UpdateBalances", address, ethBalance, usdcBalance)

	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, address, ethBalance, usdcBalance)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[strings.ToLower(address)]
	if !ok {
		return repositories.ErrNotFound
	}
	w.EthBalance = ethBalance
	w.UsdcBalance = usdcBalance
	return nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entities.User

	GetByIDFunc func(ctx context.Context, id string) (*entities.User, error)
	SearchFunc  func(ctx context.Context, query string, limit int) ([]entities.User, error)

	Calls []MockCall
}

var _ repositories.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*entities.User)}
}

// Seed inserts a user
func (m *MockUserRepository) Seed(u entities.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetByID", Args: []interface{}{id}})
	m.mu.Unlock()

	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *MockUserRepository) Search(ctx context.Context, query string, limit int) ([]entities.User, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []entities.User
	for _, u := range m.users {
		if strings.HasPrefix(strings.ToLower(u.Username), strings.ToLower(query)) {
			result = append(result, *u)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// MockDeviceTokenRepository is a mock implementation of DeviceTokenRepository
type MockDeviceTokenRepository struct {
	mu     sync.RWMutex
	tokens []entities.DeviceToken
	nextID int64

	ListForUsersFunc func(ctx context.Context, userIDs []string) ([]entities.DeviceToken, error)
	DeleteTokenFunc  func(ctx context.Context, token string) error

	Deleted []string
}

var _ repositories.DeviceTokenRepository = (*MockDeviceTokenRepository)(nil)

func NewMockDeviceTokenRepository() *MockDeviceTokenRepository {
	return &MockDeviceTokenRepository{nextID: 1}
}

// Seed registers a token for a user
func (m *MockDeviceTokenRepository) Seed(userID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, entities.DeviceToken{ID: m.nextID, UserID: userID, Token: token})
	m.nextID++
}

// Tokens returns all currently registered tokens
func (m *MockDeviceTokenRepository) Tokens() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.tokens))
	for _, t := range m.tokens {
		out = append(out, t.Token)
	}
	return out
}

func (m *MockDeviceTokenRepository) ListForUsers(ctx context.Context, userIDs []string) ([]entities.DeviceToken, error) {
	if m.ListForUsersFunc != nil {
		return m.ListForUsersFunc(ctx, userIDs)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var result []entities.DeviceToken
	for _, t := range m.tokens {
		if wanted[t.UserID] {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockDeviceTokenRepository) Insert(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID && t.Token == token {
			return nil
		}
	}
	m.tokens = append(m.tokens, entities.DeviceToken{ID: m.nextID, UserID: userID, Token: token})
	m.nextID++
	return nil
}

func (m *MockDeviceTokenRepository) DeleteToken(ctx context.Context, token string) error {
	if m.DeleteTokenFunc != nil {
		return m.DeleteTokenFunc(ctx, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	m.tokens = kept
	m.Deleted = append(m.Deleted, token)
	return nil
}

// MockPaymentRequestRepository is a mock implementation of PaymentRequestRepository
type MockPaymentRequestRepository struct {
	mu       sync.RWMutex
	requests map[int64]*entities.PaymentRequest
	nextID   int64

	UpdateStatusFunc func(ctx context.Context, id int64, status entities.PaymentRequestStatus, transactionID *int64) error
}

var _ repositories.PaymentRequestRepository = (*MockPaymentRequestRepository)(nil)

func NewMockPaymentRequestRepository() *MockPaymentRequestRepository {
	return &MockPaymentRequestRepository{
		requests: make(map[int64]*entities.PaymentRequest),
		nextID:   1,
	}
}

// Seed inserts a payment request
func (m *MockPaymentRequestRepository) Seed(req entities.PaymentRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == 0 {
		req.ID = m.nextID
		m.nextID++
	}
	m.requests[req.ID] = &req
}

// Get returns the stored request, or nil
func (m *MockPaymentRequestRepository) Get(id int64) *entities.PaymentRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if req, ok := m.requests[id]; ok {
		copied := *req
		return &copied
	}
	return nil
}

func (m *MockPaymentRequestRepository) GetByID(ctx context.Context, id int64) (*entities.PaymentRequest, error) {
	req := m.Get(id)
	if req == nil {
		return nil, repositories.ErrNotFound
	}
	return req, nil
}

func (m *MockPaymentRequestRepository) Insert(ctx context.Context, req *entities.PaymentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.nextID
	m.nextID++
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *MockPaymentRequestRepository) UpdateStatus(ctx context.Context, id int64, status entities.PaymentRequestStatus, transactionID *int64) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, transactionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	req.Status = status
	if transactionID != nil {
		req.TransactionID = transactionID
	}
	return nil
}

func (m *MockPaymentRequestRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]entities.PaymentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []entities.PaymentRequest
	for _, req := range m.requests {
		if req.RequesterID == userID || req.RequesteeID == userID {
			result = append(result, *req)
		}
	}
	return result, nil
}

// MockFriendshipRepository is a mock implementation of FriendshipRepository
type MockFriendshipRepository struct {
	mu          sync.RWMutex
	friendships map[int64]*entities.Friendship
	nextID      int64
}

var _ repositories.FriendshipRepository = (*MockFriendshipRepository)(nil)

func NewMockFriendshipRepository() *MockFriendshipRepository {
	return &MockFriendshipRepository{
		friendships: make(map[int64]*entities.Friendship),
		nextID:      1,
	}
}

// Seed inserts a friendship row
func (m *MockFriendshipRepository) Seed(f entities.Friendship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		f.ID = m.nextID
		m.nextID++
	}
	m.friendships[f.ID] = &f
}

// Get returns the stored row, or nil
func (m *MockFriendshipRepository) Get(id int64) *entities.Friendship {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.friendships[id]; ok {
		copied := *f
		return &copied
	}
	return nil
}

// Len returns the number of stored rows
func (m *MockFriendshipRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.friendships)
}

func (m *MockFriendshipRepository) GetByID(ctx context.Context, id int64) (*entities.Friendship, error) {
	f := m.Get(id)
	if f == nil {
		return nil, repositories.ErrNotFound
	}
	return f, nil
}

func (m *MockFriendshipRepository) GetByPair(ctx context.Context, userA, userB string) (*entities.Friendship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.friendships {
		if (f.RequesterID == userA && f.RequesteeID == userB) ||
			(f.RequesterID == userB && f.RequesteeID == userA) {
			copied := *f
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *MockFriendshipRepository) Insert(ctx context.Context, f *entities.Friendship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = m.nextID
	m.nextID++
	copied := *f
	m.friendships[f.ID] = &copied
	return nil
}

func (m *MockFriendshipRepository) Update(ctx context.Context, f *entities.Friendship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.friendships[f.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *f
	m.friendships[f.ID] = &copied
	return nil
}

func (m *MockFriendshipRepository) ListFriends(ctx context.Context, userID string) ([]entities.Friendship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []entities.Friendship
	for _, f := range m.friendships {
		if f.Involves(userID) && f.Status == entities.FriendshipAccepted {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *MockFriendshipRepository) ListPendingFor(ctx context.Context, userID string) ([]entities.Friendship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []entities.Friendship
	for _, f := range m.friendships {
		if f.RequesteeID == userID && f.Status == entities.FriendshipPending {
			result = append(result, *f)
		}
	}
	return result, nil
}

// MockChainClient is a fake rollup client. Zero values behave like an
// empty chain: all balances zero, nonce zero.
type MockChainClient struct {
	mu sync.Mutex

	NativeBalanceFunc       func(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error)
	TokenBalanceFunc        func(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error)
	PendingNonceFunc        func(ctx context.Context, address string) (uint64, error)
	EstimateTransferFeeFunc func(ctx context.Context) (*ethereum.FeeEstimate, error)
	BuildTokenTransferFunc  func(ctx context.Context, from, to string, amount decimal.Decimal) (*ethereum.UnsignedTransfer, error)
	BroadcastRawFunc        func(ctx context.Context, rawHex string) (string, error)

	// Defaults used when the hooks are nil
	NativeBalances map[string]decimal.Decimal
	TokenBalances  map[string]decimal.Decimal

	Calls []MockCall
}

func NewMockChainClient() *MockChainClient {
	return &MockChainClient{
		NativeBalances: make(map[string]decimal.Decimal),
		TokenBalances:  make(map[string]decimal.Decimal),
	}
}

func (m *MockChainClient) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

func (m *MockChainClient) NativeBalance(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error) {
	m.record("NativeBalance", address, level)
	if m.NativeBalanceFunc != nil {
		return m.NativeBalanceFunc(ctx, address, level)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NativeBalances[strings.ToLower(address)], nil
}

func (m *MockChainClient) TokenBalance(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error) {
	m.record("TokenBalance", address, level)
	if m.TokenBalanceFunc != nil {
		return m.TokenBalanceFunc(ctx, address, level)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TokenBalances[strings.ToLower(address)], nil
}

func (m *MockChainClient) PendingNonce(ctx context.Context, address string) (uint64, error) {
	m.record("PendingNonce", address)
	if m.PendingNonceFunc != nil {
		return m.PendingNonceFunc(ctx, address)
	}
	return 0, nil
}

func (m *MockChainClient) EstimateTransferFee(ctx context.Context) (*ethereum.FeeEstimate, error) {
	m.record("EstimateTransferFee")
	if m.EstimateTransferFeeFunc != nil {
		return m.EstimateTransferFeeFunc(ctx)
	}
	return &ethereum.FeeEstimate{GasLimit: 65000, TotalEth: decimal.Zero}, nil
}

func (m *MockChainClient) BuildTokenTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (*ethereum.UnsignedTransfer, error) {
	m.record("BuildTokenTransfer", from, to, amount)
	if m.BuildTokenTransferFunc != nil {
		return m.BuildTokenTransferFunc(ctx, from, to, amount)
	}
	return &ethereum.UnsignedTransfer{To: to, Value: "0", GasLimit: 65000}, nil
}

func (m *MockChainClient) BroadcastRaw(ctx context.Context, rawHex string) (string, error) {
	m.record("BroadcastRaw", rawHex)
	if m.BroadcastRawFunc != nil {
		return m.BroadcastRawFunc(ctx, rawHex)
	}
	return "0x" + strings.Repeat("ab", 32), nil
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mu sync.RWMutex

	Healthy bool
	Error   error
	Calls   []MockCall
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	var err error
	if !healthy {
		err = errors.New("health check failed")
	}
	return &MockHealthChecker{
		Healthy: healthy,
		Error:   err,
		Calls:   make([]MockCall, 0),
	}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "HealthCheck", Args: nil})
	m.mu.Unlock()

	return m.Error
}

func (m *MockHealthChecker) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Healthy = healthy
	if healthy {
		m.Error = nil
	} else {
		m.Error = errors.New("health check failed")
	}
}

// MockPushSender is a fake push gateway that records every message
type MockPushSender struct {
	mu   sync.Mutex
	Sent []push.Message

	SendFunc func(ctx context.Context, messages []push.Message) ([]push.Ticket, error)
}

var _ push.Sender = (*MockPushSender)(nil)

func NewMockPushSender() *MockPushSender {
	return &MockPushSender{}
}

func (m *MockPushSender) Send(ctx context.Context, messages []push.Message) ([]push.Ticket, error) {
	m.mu.Lock()
	m.Sent = append(m.Sent, messages...)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, messages)
	}

	tickets := make([]push.Ticket, len(messages))
	for i := range tickets {
		tickets[i] = push.Ticket{Status: "ok", ID: "ticket"}
	}
	return tickets, nil
}

// Messages returns a copy of everything sent so far
func (m *MockPushSender) Messages() []push.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]push.Message, len(m.Sent))
	copy(out, m.Sent)
	return out
}
