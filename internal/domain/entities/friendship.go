package entities

import "time"

// FriendshipStatus is the lifecycle state of a friend request
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
	FriendshipCanceled FriendshipStatus = "canceled"
)

// Friendship keeps one row per unordered user pair. Creation is
// directional; once accepted the relation is symmetric. Re-requesting
// after a decline or cancel reactivates the same row, possibly with
// the direction flipped, rather than inserting a second row.
type Friendship struct {
	ID          int64            `db:"id" json:"id"`
	RequesterID string           `db:"requester_id" json:"requester_id"`
	RequesteeID string           `db:"requestee_id" json:"requestee_id"`
	Status      FriendshipStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Involves reports whether the given user is a party to the friendship
func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.RequesteeID == userID
}

// OtherParty returns the counterparty of the given user
func (f *Friendship) OtherParty(userID string) string {
	if f.RequesterID == userID {
		return f.RequesteeID
	}
	return f.RequesterID
}
