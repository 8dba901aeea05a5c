package postgresql

import (
	"context"
	"database/sql"
	"errors"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/usage"
)

// IncrementUsage applies one additive increment to the (user, type) counter
// and returns the new value. The upsert is atomic at the database so
// concurrent streams from the same user compose correctly.
func (s *Store) IncrementUsage(userId string, usageType string, increments int64) (*usage.Usage, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	u := &usage.Usage{}
	err := s.db.QueryRowContext(ctxTimeout,
		`INSERT INTO usage (user_id, type, value) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, type) DO UPDATE SET value = usage.value + $3
		 RETURNING user_id, type, value`,
		userId, usageType, increments,
	).Scan(&u.UserId, &u.Type, &u.Value)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Store) GetUsage(userId string, usageType string) (*usage.Usage, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	u := &usage.Usage{}
	err := s.db.QueryRowContext(ctxTimeout,
		"SELECT user_id, type, value FROM usage WHERE user_id = $1 AND type = $2",
		userId, usageType,
	).Scan(&u.UserId, &u.Type, &u.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NewNotFoundError("usage is not found")
		}

		return nil, err
	}

	return u, nil
}
