package manager

import (
	"github.com/edufly-cloud/edufly/internal/usage"
)

type UsageStorage interface {
	IncrementUsage(userId string, usageType string, delta int64) (*usage.Usage, error)
	GetUsage(userId string, usageType string) (*usage.Usage, error)
}

type UsageCache interface {
	SetCounter(userId string, usageType string, value int64) error
	DeleteCounter(userId string, usageType string) error
}

type usageLogger interface {
	Debugf(format string, args ...interface{})
}

type UsageManager struct {
	s  UsageStorage
	c  UsageCache
	lg usageLogger
}

func NewUsageManager(s UsageStorage, c UsageCache, lg usageLogger) *UsageManager {
	return &UsageManager{
		s:  s,
		c:  c,
		lg: lg,
	}
}

// IncrementUsage adds delta to the user's stored counter and syncs the
// cached copy to the authoritative value. Cache failures are logged and
// swallowed since the next read falls through to the store.
func (m *UsageManager) IncrementUsage(userId string, usageType string, delta int64) (*usage.Usage, error) {
	u, err := m.s.IncrementUsage(userId, usageType, delta)
	if err != nil {
		return nil, err
	}

	if err := m.c.SetCounter(userId, usageType, u.Value); err != nil {
		m.lg.Debugf("failed to sync usage counter cache: %v", err)

		if err := m.c.DeleteCounter(userId, usageType); err != nil {
			m.lg.Debugf("failed to invalidate usage counter cache: %v", err)
		}
	}

	return u, nil
}

func (m *UsageManager) GetUsage(userId string, usageType string) (*usage.Usage, error) {
	return m.s.GetUsage(userId, usageType)
}
