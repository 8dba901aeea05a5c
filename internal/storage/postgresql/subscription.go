package postgresql

import (
	"context"
	"database/sql"
	"errors"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/subscription"
)

func (s *Store) GetSubscriptionByUserId(userId string) (*subscription.Subscription, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	sub := &subscription.Subscription{
		Plan: &subscription.Plan{},
	}

	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctxTimeout,
		`SELECT s.id, s.user_id, s.plan_id, s.started_at, s.expires_at, s.renewed,
		        p.id, p.name, p.storage_limit_mb, p.ai_tokens_per_month, p.price_cents, p.currency, p.created_at
		 FROM subscriptions s
		 INNER JOIN plans p ON p.id = s.plan_id
		 WHERE s.user_id = $1`,
		userId,
	).Scan(
		&sub.Id,
		&sub.UserId,
		&sub.PlanId,
		&sub.StartedAt,
		&expiresAt,
		&sub.Renewed,
		&sub.Plan.Id,
		&sub.Plan.Name,
		&sub.Plan.StorageLimitMb,
		&sub.Plan.AiTokensPerMonth,
		&sub.Plan.PriceCents,
		&sub.Plan.Currency,
		&sub.Plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NewNotFoundError("subscription is not found")
		}

		return nil, err
	}

	if expiresAt.Valid {
		sub.ExpiresAt = expiresAt.Int64
	}

	return sub, nil
}
