package model

import "time"

// Follow is a directed edge of the social graph, keyed by the pair
// (FollowerID, FollowedID).  Every user has the edge (U, U) from the moment
// the user row is inserted, so "posts by people I follow" includes the
// user's own posts without special cases.
type Follow struct {
	FollowerID uint64    `db:"follower_id" json:"follower_id"`
	FollowedID uint64    `db:"followed_id" json:"followed_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FollowEntry pairs a user from a follower/followed listing with the time
// the edge was created.
type FollowEntry struct {
	User  PublicUser `json:"user"`
	Since time.Time  `json:"since"`
}
