package matching

import "errors"

var (
	// ErrMatchNotFound means the match id does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrStaleTransition means the match changed under the caller: a
	// concurrent transition won, or the match is already terminal. The
	// caller must re-fetch before retrying; the server never picks a winner
	// silently.
	ErrStaleTransition = errors.New("match state changed concurrently, re-fetch and retry")

	// ErrForbidden means the acting user is not allowed to perform the
	// transition: not a party to the match, or not the party whose turn it is.
	ErrForbidden = errors.New("user may not perform this action on the match")

	// ErrInvalidAction means the action name is not one of
	// accept/confirm/reject/cancel.
	ErrInvalidAction = errors.New("unknown match action")
)
