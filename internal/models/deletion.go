package models

// DeletionStage tracks the two-step confirm/delete interaction for rooms and messages.
type DeletionStage string

const (
	// DeletionRequested is the initial stage of every delete request.
	DeletionRequested DeletionStage = "requested"
	// DeletionConfirming means the caller must confirm before anything is removed.
	DeletionConfirming DeletionStage = "confirming"
	// DeletionConfirmed means the record has been removed.
	DeletionConfirmed DeletionStage = "confirmed"
	// DeletionAbandoned means the caller cancelled and nothing was removed.
	DeletionAbandoned DeletionStage = "abandoned"
)

// NextDeletionStage moves a Requested deletion to its terminal stage.
// Cancellation wins over confirmation.
func NextDeletionStage(confirmed, cancelled bool) DeletionStage {
	switch {
	case cancelled:
		return DeletionAbandoned
	case confirmed:
		return DeletionConfirmed
	default:
		return DeletionConfirming
	}
}

// Removed reports whether the stage is the one in which the record is gone.
func (s DeletionStage) Removed() bool {
	return s == DeletionConfirmed
}
