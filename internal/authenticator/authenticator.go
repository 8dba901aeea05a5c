package auth

import (
	"net/http"
	"strings"
	"time"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/storage/postgresql"
)

type sessionStorage interface {
	GetSessionByToken(token string) (*postgresql.Session, error)
}

// Authenticator resolves a bearer session token to the user it belongs to.
// Sessions are issued by the account service and land in the shared sessions
// table; this service only reads them.
type Authenticator struct {
	ss sessionStorage
}

func NewAuthenticator(ss sessionStorage) *Authenticator {
	return &Authenticator{
		ss: ss,
	}
}

func getSessionToken(req *http.Request) (string, error) {
	split := strings.Split(req.Header.Get("Authorization"), " ")
	if len(split) >= 2 && len(split[1]) != 0 {
		return split[1], nil
	}

	if cookie, err := req.Cookie("session_token"); err == nil && len(cookie.Value) != 0 {
		return cookie.Value, nil
	}

	return "", internal_errors.NewAuthError("session token not found")
}

func (a *Authenticator) AuthenticateHttpRequest(req *http.Request) (string, error) {
	token, err := getSessionToken(req)
	if err != nil {
		return "", err
	}

	session, err := a.ss.GetSessionByToken(token)
	if err != nil {
		if _, ok := err.(notFoundError); ok {
			return "", internal_errors.NewAuthError("session token is not valid")
		}

		return "", err
	}

	if session.ExpiresAt != 0 && session.ExpiresAt <= time.Now().Unix() {
		return "", internal_errors.NewAuthError("session token is expired")
	}

	return session.UserId, nil
}

type notFoundError interface {
	Error() string
	NotFound()
}
