package document

import "errors"

var (
	// ErrNotFound means the document id does not resolve.
	ErrNotFound = errors.New("document not found")

	// ErrForbidden means the caller is authenticated but not allowed to
	// perform the action on this document.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidArgument means a request carried a malformed filter or value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoShareTargets means none of the requested share target ids resolve
	// to existing users.
	ErrNoShareTargets = errors.New("no valid users found for sharing")
)
