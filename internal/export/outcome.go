package export

// Status is the terminal state of an export attempt.
type Status string

const (
	// StatusCreated means the card now exists in the backend.
	StatusCreated Status = "created"
	// StatusDuplicate means an equivalent card already existed.
	StatusDuplicate Status = "duplicate"
	// StatusFailed means the card was not created.
	StatusFailed Status = "failed"
)

// SyncStatus qualifies a Created outcome with the remote-sync result.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncSkipped SyncStatus = "sync_skipped"
	SyncFailed  SyncStatus = "sync_failed"
)

// FailReason classifies a Failed outcome.
type FailReason string

const (
	// ReasonNotFound: the staged key was missing or already consumed.
	ReasonNotFound FailReason = "not_found"
	// ReasonBackendUnavailable: connectivity or auth failed before any
	// mutating call.
	ReasonBackendUnavailable FailReason = "backend_unavailable"
	// ReasonBackendError: the backend rejected the creation.
	ReasonBackendError FailReason = "backend_error"
)

// Outcome is the result of one export attempt. It carries exactly what the
// presentation layer needs: the terminal status, the sync sub-state, and any
// non-fatal warning (a failed image attach never downgrades a created card).
type Outcome struct {
	Status Status

	// Reason is set when Status is StatusFailed.
	Reason FailReason

	// Sync is set when Status is StatusCreated.
	Sync SyncStatus

	// AttachmentWarning describes a failed best-effort image step.
	AttachmentWarning string

	// Err carries the underlying failure for logging and captions.
	Err error

	// Word and DeckName echo the exported card for status reporting.
	Word     string
	DeckName string
}

// Created reports whether the card exists in the backend after this attempt.
func (o Outcome) Created() bool {
	return o.Status == StatusCreated
}
