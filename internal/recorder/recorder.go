package recorder

import (
	"github.com/cenkalti/backoff/v4"
	"github.com/edufly-cloud/edufly/internal/provider/gemini"
	"github.com/edufly-cloud/edufly/internal/usage"
)

type accountant interface {
	IncrementUsage(userId string, usageType string, increments int64) (*usage.Usage, error)
}

// Meter converts the cumulative usage snapshots of a single stream into
// discrete additive increments against the accounting store. It batches
// below-threshold deltas to avoid one accounting call per token while
// guaranteeing that, with a 1:1 token ratio, every token of an
// uninterrupted stream is counted exactly once.
//
// A Meter is request-scoped and not safe for concurrent use; snapshots of
// one stream are processed strictly sequentially.
type Meter struct {
	a           accountant
	userId      string
	usageType   string
	threshold   int
	ratio       int
	total       int
	lastTracked int
}

// NewMeter creates a meter for one stream. threshold is the minimum token
// delta that triggers an accounting call (the final flush ignores it).
// ratio converts raw tokens into accounting increments: 1 means one
// increment per token, 150 means one increment per 150 tokens.
func NewMeter(a accountant, userId string, usageType string, threshold int, ratio int) *Meter {
	if threshold < 1 {
		threshold = 1
	}

	if ratio < 1 {
		ratio = 1
	}

	return &Meter{
		a:         a,
		userId:    userId,
		usageType: usageType,
		threshold: threshold,
		ratio:     ratio,
	}
}

// Observe records a cumulative snapshot. Later snapshots are authoritative;
// a regressed total is ignored. An accounting call is issued only once the
// untracked delta reaches the threshold.
func (m *Meter) Observe(s *gemini.UsageSnapshot) error {
	if s == nil {
		return nil
	}

	if s.Total() > m.total {
		m.total = s.Total()
	}

	if m.total-m.lastTracked < m.threshold {
		return nil
	}

	return m.send()
}

// Flush sends whatever remains untracked regardless of the threshold. Call
// it exactly once, after the stream completed.
func (m *Meter) Flush() error {
	if m.total-m.lastTracked <= 0 {
		return nil
	}

	return m.send()
}

// Tracked reports the number of raw tokens forwarded to the accounting
// store so far.
func (m *Meter) Tracked() int {
	return m.lastTracked
}

func (m *Meter) send() error {
	delta := m.total - m.lastTracked

	increments := delta / m.ratio
	if increments == 0 {
		// remainder smaller than one increment stays untracked until
		// more tokens arrive
		return nil
	}

	op := func() error {
		_, err := m.a.IncrementUsage(m.userId, m.usageType, int64(increments))
		return err
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		return err
	}

	// advance only by what was actually billed so sub-increment remainders
	// carry over instead of being dropped
	m.lastTracked += increments * m.ratio

	return nil
}
