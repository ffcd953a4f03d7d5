package services

import "errors"

// Handler-level rejections. Each is detected by exactly one handler and
// returned unwrapped to the route layer, which maps it to an HTTP status.
var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupExists          = errors.New("group already exists")
	ErrWrongTarget          = errors.New("activity does not target this group")
	ErrInconsistentActivity = errors.New("inner activity actor does not match outer actor")
	ErrMissingObject        = errors.New("activity object missing or without id")
	ErrNotAMember           = errors.New("actor is not a member of the group")
	ErrAnnounceNotFound     = errors.New("announce not found")

	// ErrDuplicateAnnounce signals a broken invariant: announce ids are
	// freshly generated uuids, so an id collision on append means internal
	// state corruption, not a bad request.
	ErrDuplicateAnnounce = errors.New("duplicate announce id")
)
