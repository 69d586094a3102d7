package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ErrNoIdentity is returned by a [UserResolver] when a request carries no
// usable user identity.
var ErrNoIdentity = errors.New("httpapi: request carries no user identity")

// UserResolver maps an incoming request to the user identity it acts for.
// Authentication itself happens upstream (a gateway or reverse proxy); the
// resolver only reads the already-established identity.
type UserResolver interface {
	Resolve(r *http.Request) (int64, error)
}

// HeaderResolver resolves the user from the trusted X-Hiya-User header.
// When the header is absent, DefaultUserID is used; a zero default rejects
// header-less requests.
type HeaderResolver struct {
	// DefaultUserID is assumed for requests without the header. Zero means
	// such requests fail with [ErrNoIdentity].
	DefaultUserID int64
}

// userHeader carries the upstream-authenticated user id.
const userHeader = "X-Hiya-User"

// Resolve implements [UserResolver].
func (h HeaderResolver) Resolve(r *http.Request) (int64, error) {
	raw := r.Header.Get(userHeader)
	if raw == "" {
		if h.DefaultUserID > 0 {
			return h.DefaultUserID, nil
		}
		return 0, ErrNoIdentity
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("httpapi: invalid %s header %q: %w", userHeader, raw, ErrNoIdentity)
	}
	return id, nil
}
