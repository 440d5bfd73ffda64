// Package auth validates bearer tokens issued by the hosted identity provider.
// The service never stores credentials; a verified token yields an Identity.
package auth

import "errors"

// Token errors. Every rejection wraps ErrInvalidAccessToken except expiry.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingSubject     = errors.New("access token has no subject")
	ErrRoleNotAllowed     = errors.New("access token role is not allowed")
	ErrAnonymousSession   = errors.New("anonymous sessions cannot use this API")
)

// Identity is the caller described by a verified access token.
type Identity struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}
