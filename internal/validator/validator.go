package validator

import (
	"fmt"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/subscription"
	"github.com/edufly-cloud/edufly/internal/usage"
)

type usageCache interface {
	GetCounter(userId string, usageType string) (int64, bool, error)
}

type usageStorage interface {
	GetUsage(userId string, usageType string) (*usage.Usage, error)
}

type fileStorage interface {
	GetTotalFileSize(userId string) (int64, error)
}

type limitsProvider interface {
	GetLimits(userId string) (*subscription.Limits, error)
}

// Validator is the quota gate: it compares cumulative resource usage
// against the caller's plan limits before a side-effecting operation is
// accepted. Boundaries are inclusive: a request landing exactly on the
// limit is allowed.
type Validator struct {
	uc usageCache
	us usageStorage
	fs fileStorage
	lp limitsProvider
}

func NewValidator(uc usageCache, us usageStorage, fs fileStorage, lp limitsProvider) *Validator {
	return &Validator{
		uc: uc,
		us: us,
		fs: fs,
		lp: lp,
	}
}

func (v *Validator) ValidateStorage(userId string, requestedBytes int64) error {
	limits, err := v.lp.GetLimits(userId)
	if err != nil {
		return err
	}

	current, err := v.fs.GetTotalFileSize(userId)
	if err != nil {
		return err
	}

	if current+requestedBytes > limits.StorageLimitBytes {
		return internal_errors.NewStorageQuotaError("storage limit exceeded")
	}

	return nil
}

// ValidateTokens is the hard pre-check run before a stream is opened: the
// tokens already consumed this period plus the estimated prompt size must
// fit the plan. Metering during the stream stays best-effort; this check
// only bounds how far past the ceiling a user can run.
func (v *Validator) ValidateTokens(userId string, estimatedPromptTokens int) error {
	limits, err := v.lp.GetLimits(userId)
	if err != nil {
		return err
	}

	current, err := v.currentTokenUsage(userId)
	if err != nil {
		return err
	}

	if current+int64(estimatedPromptTokens) > limits.AiTokensPerMonth {
		return internal_errors.NewTokenQuotaError(fmt.Sprintf("ai token limit of %d exceeded", limits.AiTokensPerMonth))
	}

	return nil
}

func (v *Validator) currentTokenUsage(userId string) (int64, error) {
	cached, found, err := v.uc.GetCounter(userId, usage.TypeAiTokens)
	if err == nil && found {
		return cached, nil
	}

	u, err := v.us.GetUsage(userId, usage.TypeAiTokens)
	if err != nil {
		if _, ok := err.(notFoundError); ok {
			return 0, nil
		}

		return 0, err
	}

	return u.Value, nil
}

type notFoundError interface {
	Error() string
	NotFound()
}
