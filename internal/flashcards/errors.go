package flashcards

import "errors"

// ErrSyncNotSupported is returned by Sync on backends that have no remote
// counterpart. It is not a failure: the export pipeline reports it as a
// skipped sync.
var ErrSyncNotSupported = errors.New("backend does not support remote sync")

// DuplicateError indicates the backend refused the card because an
// equivalent one already exists.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string {
	if e.Message == "" {
		return "card already exists"
	}
	return e.Message
}

// IsDuplicate reports whether err is a duplicate rejection.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// BackendError carries the backend's raw failure message for anything that
// is not a duplicate rejection.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}
