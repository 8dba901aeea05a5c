package manager

import (
	"github.com/edufly-cloud/edufly/internal/subscription"
)

type SubscriptionStorage interface {
	GetSubscriptionByUserId(userId string) (*subscription.Subscription, error)
}

type SubscriptionManager struct {
	s                       SubscriptionStorage
	defaultStorageLimitMb   int64
	defaultAiTokensPerMonth int64
}

func NewSubscriptionManager(s SubscriptionStorage, defaultStorageLimitMb int64, defaultAiTokensPerMonth int64) *SubscriptionManager {
	return &SubscriptionManager{
		s:                       s,
		defaultStorageLimitMb:   defaultStorageLimitMb,
		defaultAiTokensPerMonth: defaultAiTokensPerMonth,
	}
}

func (m *SubscriptionManager) GetSubscription(userId string) (*subscription.Subscription, error) {
	return m.s.GetSubscriptionByUserId(userId)
}

// GetLimits resolves the user's effective ceilings. Users without a
// subscription row run on the free-tier defaults.
func (m *SubscriptionManager) GetLimits(userId string) (*subscription.Limits, error) {
	sub, err := m.s.GetSubscriptionByUserId(userId)
	if err != nil {
		if _, ok := err.(notFoundError); ok {
			return &subscription.Limits{
				StorageLimitBytes: m.defaultStorageLimitMb * 1024 * 1024,
				AiTokensPerMonth:  m.defaultAiTokensPerMonth,
			}, nil
		}

		return nil, err
	}

	return &subscription.Limits{
		StorageLimitBytes: sub.Plan.StorageLimitMb * 1024 * 1024,
		AiTokensPerMonth:  sub.Plan.AiTokensPerMonth,
	}, nil
}

type notFoundError interface {
	Error() string
	NotFound()
}
