package postgresql

import (
	"context"
	"database/sql"
	"errors"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
)

type Session struct {
	Token     string
	UserId    string
	ExpiresAt int64
}

func (s *Store) GetSessionByToken(token string) (*Session, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	session := &Session{}
	err := s.db.QueryRowContext(ctxTimeout,
		"SELECT token, user_id, expires_at FROM sessions WHERE token = $1",
		token,
	).Scan(&session.Token, &session.UserId, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NewNotFoundError("session is not found")
		}

		return nil, err
	}

	return session, nil
}
