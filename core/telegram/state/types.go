package state

// State identifies what the bot expects next from a user.
type State string

const (
	// StateIdle indicates there is no pending action for the user.
	StateIdle State = "idle"
)

// Manager stores at most one pending State per user.
type Manager interface {
	// Set replaces the pending state of userID.
	Set(userID int64, st State)
	// Get returns the pending state without removing it.
	Get(userID int64) (State, bool)
	// Consume returns the pending state and removes it.
	Consume(userID int64) (State, bool)
	// Clear drops any pending state of userID.
	Clear(userID int64)
	// Lock enters the exclusive section of userID. The returned func
	// leaves it and must be called exactly once.
	Lock(userID int64) (unlock func())
}
