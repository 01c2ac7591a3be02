package domain

import (
	"errors"
	"fmt"
)

// Startup errors abort the process; per-query errors are shown to the user.
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrIndexCorrupt      = errors.New("index corrupt")
	ErrIndexMismatch     = errors.New("index built with a different configuration")
	ErrMissingCredential = errors.New("missing credential")
	ErrRemoteModel       = errors.New("remote model error")
	ErrEmptyQuestion     = errors.New("empty question")
)

// RemoteModelError wraps a failed completion call.
type RemoteModelError struct {
	Model string
	Err   error
}

func (e *RemoteModelError) Error() string {
	return fmt.Sprintf("remote model %s: %v", e.Model, e.Err)
}

func (e *RemoteModelError) Unwrap() error { return e.Err }

// Is reports ErrRemoteModel so callers can match on the sentinel.
func (e *RemoteModelError) Is(target error) bool { return target == ErrRemoteModel }

// MismatchError names the first IndexMeta field that differs between a
// persisted index and the running configuration.
type MismatchError struct {
	Field     string
	Persisted string
	Current   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s is %q in the index but %q in config; delete the index directory to rebuild",
		ErrIndexMismatch, e.Field, e.Persisted, e.Current)
}

func (e *MismatchError) Unwrap() error { return ErrIndexMismatch }
