package exercises

import (
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

// LoggedSet is one row of the set log: a set as the client app reported it,
// owned by a user and optionally tied to a live session.
type LoggedSet struct {
	ID        int       `json:"id"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	workout.Set
}

// SetParams filters the set log. Zero values mean "no filter".
type SetParams struct {
	UserID     string
	ExerciseID string
	SessionID  string
	From       *time.Time
	To         *time.Time
}
