package auth

import "errors"

// Verification failures. Handlers collapse all of these into a generic 401
// response; the distinction only matters for logs and tests.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrMissingClaims         = errors.New("token is missing required claims")
)

// Identity is the request-scoped representation of an authenticated caller.
// It is derived fresh from a token on every request and never persisted.
type Identity struct {
	UserID int64
	Role   string
	Email  string
}

type Authenticator interface {
	GenerateTokens(userID int64, role, email string) (accessToken, refreshToken string, err error)
	VerifyAccessToken(token string) (Identity, error)
	VerifyRefreshToken(token string) (userID int64, err error)
}
