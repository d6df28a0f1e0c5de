package domain

// SyncType controls whether a detected parent change blocks until propagation
// to all children completes
type SyncType string

const (
	// SyncTypeSync - the detecting tick waits for fan-out to finish
	SyncTypeSync SyncType = "sync"
	// SyncTypeAsync - fan-out runs in the background, the tick never blocks
	SyncTypeAsync SyncType = "async"
)

// IsValid checks if the sync type is valid
func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeSync, SyncTypeAsync:
		return true
	default:
		return false
	}
}

// SyncAction is a user-triggered transition of a group's sync state machine
type SyncAction string

const (
	// SyncActionStart - Idle -> Active
	SyncActionStart SyncAction = "sync"
	// SyncActionStop - Active -> Idle
	SyncActionStop SyncAction = "unsync"
)

// IsValid checks if the sync action is valid
func (a SyncAction) IsValid() bool {
	switch a {
	case SyncActionStart, SyncActionStop:
		return true
	default:
		return false
	}
}
