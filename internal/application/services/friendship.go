package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
)

// ErrAlreadyLinked indicates a pending or accepted row already exists
// for the pair
var ErrAlreadyLinked = errors.New("friend request already exists")

// FriendshipService manages the social graph: one row per unordered
// user pair across the whole lifecycle. Re-requesting after a decline
// or cancel reactivates the existing row, flipping its direction to
// the new requester instead of inserting a second row.
type FriendshipService struct {
	friendRepo repositories.FriendshipRepository
	userRepo   repositories.UserRepository
	notifier   Notifier
	logger     *zap.Logger
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(
	friendRepo repositories.FriendshipRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
) *FriendshipService {
	return &FriendshipService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// Request creates or reactivates a friend request toward requesteeID
func (s *FriendshipService) Request(ctx context.Context, requesterID, requesteeID string) (*entities.Friendship, error) {
	if requesterID == requesteeID {
		return nil, ErrSelfTarget
	}

	if _, err := s.userRepo.GetByID(ctx, requesteeID); err != nil {
		return nil, fmt.Errorf("requestee lookup failed: %w", err)
	}

	existing, err := s.friendRepo.GetByPair(ctx, requesterID, requesteeID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	var friendship *entities.Friendship
	switch {
	case existing == nil:
		friendship = &entities.Friendship{
			RequesterID: requesterID,
			RequesteeID: requesteeID,
			Status:      entities.FriendshipPending,
		}
		if err := s.friendRepo.Insert(ctx, friendship); err != nil {
			return nil, err
		}

	case existing.Status == entities.FriendshipPending || existing.Status == entities.FriendshipAccepted:
		return nil, ErrAlreadyLinked

	default:
		// Declined or canceled: reuse the row, direction follows the
		// new requester
		existing.RequesterID = requesterID
		existing.RequesteeID = requesteeID
		existing.Status = entities.FriendshipPending
		if err := s.friendRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		friendship = existing
	}

	body := "You have a new friend request"
	if requester, err := s.userRepo.GetByID(ctx, requesterID); err == nil {
		body = requester.Username + " sent you a friend request"
	}
	s.notifier.Notify(ctx, []string{requesteeID}, Notification{
		Title: "Friend Request",
		Body:  body,
		Data:  map[string]string{"type": "friend_request"},
	})

	return friendship, nil
}

// Accept transitions a pending request to accepted; requestee only
func (s *FriendshipService) Accept(ctx context.Context, userID string, friendshipID int64) error {
	f, err := s.loadPending(ctx, friendshipID)
	if err != nil {
		return err
	}
	if f.RequesteeID != userID {
		return ErrForbidden
	}

	f.Status = entities.FriendshipAccepted
	if err := s.friendRepo.Update(ctx, f); err != nil {
		return err
	}

	s.notifier.Notify(ctx, []string{f.RequesterID}, Notification{
		Title: "Friend Request Accepted",
		Body:  "Your friend request was accepted",
		Data:  map[string]string{"type": "friend_request"},
	})
	return nil
}

// Decline transitions a pending request to declined; requestee only
func (s *FriendshipService) Decline(ctx context.Context, userID string, friendshipID int64) error {
	f, err := s.loadPending(ctx, friendshipID)
	if err != nil {
		return err
	}
	if f.RequesteeID != userID {
		return ErrForbidden
	}

	f.Status = entities.FriendshipDeclined
	return s.friendRepo.Update(ctx, f)
}

// Cancel withdraws a pending request; requester only
func (s *FriendshipService) Cancel(ctx context.Context, userID string, friendshipID int64) error {
	f, err := s.loadPending(ctx, friendshipID)
	if err != nil {
		return err
	}
	if f.RequesterID != userID {
		return ErrForbidden
	}

	f.Status = entities.FriendshipCanceled
	return s.friendRepo.Update(ctx, f)
}

func (s *FriendshipService) loadPending(ctx context.Context, friendshipID int64) (*entities.Friendship, error) {
	f, err := s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if f.Status != entities.FriendshipPending {
		return nil, ErrInvalidTransition
	}
	return f, nil
}

// Friends returns the caller's accepted friends as profiles
func (s *FriendshipService) Friends(ctx context.Context, userID string) ([]entities.User, error) {
	friendships, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]entities.User, 0, len(friendships))
	for _, f := range friendships {
		other, err := s.userRepo.GetByID(ctx, f.OtherParty(userID))
		if err != nil {
			s.logger.Warn("Friend profile missing",
				zap.String("user_id", f.OtherParty(userID)),
				zap.Error(err),
			)
			continue
		}
		friends = append(friends, *other)
	}

	return friends, nil
}

// Pending returns friend requests awaiting the caller's decision
func (s *FriendshipService) Pending(ctx context.Context, userID string) ([]entities.Friendship, error) {
	return s.friendRepo.ListPendingFor(ctx, userID)
}
