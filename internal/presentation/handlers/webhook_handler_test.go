package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/config"
	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
	"github.com/rmaulana/pocketpay/internal/testutil"
)

const testSigningSecret = "whsec_test"

// Prometheus collectors register globally; one instance for the whole
// test binary
var testWebhookMetrics = middleware.NewWebhookMetrics()

type webhookMocks struct {
	txRepo     *testutil.MockTransactionRepository
	walletRepo *testutil.MockWalletRepository
	userRepo   *testutil.MockUserRepository
	tokenRepo  *testutil.MockDeviceTokenRepository
	chain      *testutil.MockChainClient
	sender     *testutil.MockPushSender
}

func setupWebhookTest() (*WebhookHandler, *webhookMocks) {
	m := &webhookMocks{
		txRepo:     testutil.NewMockTransactionRepository(),
		walletRepo: testutil.NewMockWalletRepository(),
		userRepo:   testutil.NewMockUserRepository(),
		tokenRepo:  testutil.NewMockDeviceTokenRepository(),
		chain:      testutil.NewMockChainClient(),
		sender:     testutil.NewMockPushSender(),
	}

	logger := zap.NewNop()
	resolver := services.NewIdentityResolver(m.walletRepo, m.userRepo, nil, logger)
	notifier := services.NewNotificationDispatcher(m.tokenRepo, m.sender, logger)
	engine := services.NewReconciliationEngine(resolver, m.txRepo, m.walletRepo, m.chain, notifier, logger)

	cfg := config.WebhookConfig{SigningSecret: testSigningSecret, MaxBodyBytes: 1 << 20}
	handler := NewWebhookHandler(engine, cfg, testWebhookMetrics, logger)
	return handler, m
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	mac.Write([]byte(body))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/chain-activity", strings.NewReader(body))
	req.Header.Set(SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	return req
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleActivity_InboundTransfer(t *testing.T) {
	handler, m := setupWebhookTest()

	// Bob is a known user; the sender is external
	m.userRepo.Seed(testutil.CreateTestUser(testutil.BobID, "bob"))
	m.walletRepo.Seed(testutil.CreateTestWallet(testutil.BobID, testutil.BobAddress))
	m.tokenRepo.Seed(testutil.BobID, "ExponentPushToken[bob-phone]")

	body := `{
		"id": "wh_1",
		"type": "ADDRESS_ACTIVITY",
		"event": {
			"network": "BASE_MAINNET",
			"activity": [
				{
					"category": "token",
					"asset": "USDC",
					"fromAddress": "` + testutil.AliceAddress + `",
					"toAddress": "` + testutil.BobAddress + `",
					"value": 25,
					"hash": "0xabc"
				},
				{
					"category": "token",
					"asset": "ETH",
					"fromAddress": "` + testutil.AliceAddress + `",
					"toAddress": "` + entities.BootloaderAddress + `",
					"value": 0.0001,
					"hash": "0xabc"
				}
			]
		}
	}`

	rec := httptest.NewRecorder()
	handler.HandleActivity(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAck(t, rec)
	if resp["success"] != true {
		t.Errorf("expected success ack, got %v", resp)
	}

	stored := m.txRepo.Get("0xabc")
	if stored == nil {
		t.Fatal("expected a recorded transaction")
	}
	if stored.Status != entities.TransactionConfirmed {
		t.Errorf("expected confirmed, got %s", stored.Status)
	}
	if stored.ToUserID == nil || *stored.ToUserID != testutil.BobID {
		t.Error("expected the transfer attributed to bob")
	}

	if m.walletRepo.UpdateCount() != 1 {
		t.Errorf("expected 1 wallet refresh, got %d", m.walletRepo.UpdateCount())
	}

	messages := m.sender.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 push message, got %d", len(messages))
	}
	if messages[0].Title != "Payment Received" {
		t.Errorf("expected title Payment Received, got %s", messages[0].Title)
	}
	if !strings.Contains(messages[0].Body, "25 USDC from 0x1111...1111") {
		t.Errorf("unexpected push body: %q", messages[0].Body)
	}
}

func TestHandleActivity_BadSignature(t *testing.T) {
	handler, m := setupWebhookTest()

	m.userRepo.Seed(testutil.CreateTestUser(testutil.BobID, "bob"))
	m.walletRepo.Seed(testutil.CreateTestWallet(testutil.BobID, testutil.BobAddress))

	body := `{"id":"wh_1","event":{"activity":[{"category":"token","asset":"USDC","fromAddress":"` +
		testutil.AliceAddress + `","toAddress":"` + testutil.BobAddress + `","value":25,"hash":"0xabc"}]}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/chain-activity", strings.NewReader(body))
	req.Header.Set(SignatureHeader, "deadbeef")

	rec := httptest.NewRecorder()
	handler.HandleActivity(rec, req)

	// Always acknowledged, never processed
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even for a bad signature, got %d", rec.Code)
	}
	resp := decodeAck(t, rec)
	if resp["error"] != true {
		t.Errorf("expected error ack, got %v", resp)
	}
	if m.txRepo.Len() != 0 {
		t.Errorf("expected the payload discarded, got %d transactions", m.txRepo.Len())
	}
}

func TestHandleActivity_MalformedPayload(t *testing.T) {
	handler, m := setupWebhookTest()

	rec := httptest.NewRecorder()
	handler.HandleActivity(rec, signedRequest(t, `{"id": broken`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a malformed payload, got %d", rec.Code)
	}
	if m.txRepo.Len() != 0 {
		t.Error("expected no processing of a malformed payload")
	}
}

func TestHandleActivity_NoQualifyingTransfer(t *testing.T) {
	handler, m := setupWebhookTest()

	body := `{"id":"wh_1","event":{"activity":[{"category":"external","asset":"ETH","fromAddress":"` +
		testutil.AliceAddress + `","toAddress":"` + testutil.BobAddress + `","value":0.5,"hash":"0xabc"}]}}`

	rec := httptest.NewRecorder()
	handler.HandleActivity(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAck(t, rec)
	if resp["success"] != true {
		t.Errorf("expected a fee-only batch acknowledged as success, got %v", resp)
	}
	if m.txRepo.Len() != 0 {
		t.Error("expected no transaction for a batch without a token transfer")
	}
}

func TestHandleActivity_ExternalTransferAcknowledged(t *testing.T) {
	handler, m := setupWebhookTest()

	// Neither party is a known user
	body := `{"id":"wh_1","event":{"activity":[{"category":"token","asset":"USDC","fromAddress":"` +
		testutil.AliceAddress + `","toAddress":"` + testutil.CharlieAddr + `","value":25,"hash":"0xabc"}]}}`

	rec := httptest.NewRecorder()
	handler.HandleActivity(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if m.txRepo.Len() != 0 {
		t.Error("expected no transaction for an entirely external transfer")
	}
}

func TestHandleActivity_DuplicateDeliveryIsIdempotent(t *testing.T) {
	handler, m := setupWebhookTest()

	m.userRepo.Seed(testutil.CreateTestUser(testutil.BobID, "bob"))
	m.walletRepo.Seed(testutil.CreateTestWallet(testutil.BobID, testutil.BobAddress))

	body := `{"id":"wh_1","event":{"activity":[{"category":"token","asset":"USDC","fromAddress":"` +
		testutil.AliceAddress + `","toAddress":"` + testutil.BobAddress + `","value":25,"hash":"0xabc"}]}}`

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.HandleActivity(rec, signedRequest(t, body))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, rec.Code)
		}
	}

	if m.txRepo.Len() != 1 {
		t.Errorf("expected exactly one transaction after redeliveries, got %d", m.txRepo.Len())
	}
}
