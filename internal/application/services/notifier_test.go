package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/infrastructure/push"
	"github.com/rmaulana/pocketpay/internal/testutil"
)

func setupNotifierTest() (*NotificationDispatcher, *testutil.MockDeviceTokenRepository, *testutil.MockPushSender) {
	tokenRepo := testutil.NewMockDeviceTokenRepository()
	sender := testutil.NewMockPushSender()
	dispatcher := NewNotificationDispatcher(tokenRepo, sender, zap.NewNop())
	return dispatcher, tokenRepo, sender
}

func TestNotify_OneMessagePerDevice(t *testing.T) {
	dispatcher, tokenRepo, sender := setupNotifierTest()

	tokenRepo.Seed(testutil.BobID, "ExponentPushToken[aaa]")
	tokenRepo.Seed(testutil.BobID, "ExponentPushToken[bbb]")
	tokenRepo.Seed(testutil.AliceID, "ExponentPushToken[ccc]")

	dispatcher.Notify(context.Background(), []string{testutil.BobID}, Notification{
		Title: "Payment Received",
		Body:  "25 USDC",
	})

	messages := sender.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	for _, msg := range messages {
		if msg.Title != "Payment Received" {
			t.Errorf("expected title Payment Received, got %s", msg.Title)
		}
		if msg.Sound != "default" {
			t.Errorf("expected default sound, got %q", msg.Sound)
		}
	}
}

func TestNotify_SkipsInvalidTokens(t *testing.T) {
	dispatcher, tokenRepo, sender := setupNotifierTest()

	tokenRepo.Seed(testutil.BobID, "not-a-push-token")
	tokenRepo.Seed(testutil.BobID, "ExponentPushToken[aaa]")

	dispatcher.Notify(context.Background(), []string{testutil.BobID}, Notification{Title: "t"})

	messages := sender.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].To != "ExponentPushToken[aaa]" {
		t.Errorf("expected only the valid token, got %s", messages[0].To)
	}
}

func TestNotify_NoDevices(t *testing.T) {
	dispatcher, _, sender := setupNotifierTest()

	dispatcher.Notify(context.Background(), []string{testutil.BobID}, Notification{Title: "t"})

	if len(sender.Messages()) != 0 {
		t.Errorf("expected no send for a user without devices, got %d", len(sender.Messages()))
	}
}

func TestNotify_PrunesDeadTokens(t *testing.T) {
	dispatcher, tokenRepo, sender := setupNotifierTest()

	tokenRepo.Seed(testutil.BobID, "ExponentPushToken[dead]")
	tokenRepo.Seed(testutil.BobID, "ExponentPushToken[live]")

	sender.SendFunc = func(ctx context.Context, messages []push.Message) ([]push.Ticket, error) {
		tickets := make([]push.Ticket, len(messages))
		for i, msg := range messages {
			if msg.To == "ExponentPushToken[dead]" {
				tickets[i].Status = "error"
				tickets[i].Details.Error = push.ErrorDeviceNotRegistered
			} else {
				tickets[i].Status = "ok"
			}
		}
		return tickets, nil
	}

	dispatcher.Notify(context.Background(), []string{testutil.BobID}, Notification{Title: "t"})

	remaining := tokenRepo.Tokens()
	if len(remaining) != 1 || remaining[0] != "ExponentPushToken[live]" {
		t.Errorf("expected the dead token pruned, remaining: %v", remaining)
	}
}

func TestNotify_SendFailureIsSwallowed(t *testing.T) {
	dispatcher, tokenRepo, sender := setupNotifierTest()

	tokenRepo.Seed(testutil.BobID, "ExponentPushToken[aaa]")
	sender.SendFunc = func(ctx context.Context, messages []push.Message) ([]push.Ticket, error) {
		return nil, errors.New("gateway down")
	}

	// Must not panic and must not prune anything
	dispatcher.Notify(context.Background(), []string{testutil.BobID}, Notification{Title: "t"})

	if len(tokenRepo.Tokens()) != 1 {
		t.Errorf("expected tokens untouched after a send failure, got %v", tokenRepo.Tokens())
	}
}

func TestNotify_ListFailureIsSwallowed(t *testing.T) {
	dispatcher, tokenRepo, sender := setupNotifierTest()

	tokenRepo.ListForUsersFunc = func(ctx context.Context, userIDs []string) ([]entities.DeviceToken, error) {
		return nil, errors.New("connection refused")
	}

	dispatcher.Notify(context.Background(), []string{testutil.BobID}, Notification{Title: "t"})

	if len(sender.Messages()) != 0 {
		t.Errorf("expected no send after a failed token listing, got %d", len(sender.Messages()))
	}
}
