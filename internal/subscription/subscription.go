package subscription

type Plan struct {
	Id               string `json:"id"`
	Name             string `json:"name"`
	StorageLimitMb   int64  `json:"storageLimitMB"`
	AiTokensPerMonth int64  `json:"aiTokensPerMonth"`
	PriceCents       int64  `json:"priceCents"`
	Currency         string `json:"currency"`
	CreatedAt        int64  `json:"createdAt"`
}

type Subscription struct {
	Id        string `json:"id"`
	UserId    string `json:"userId"`
	PlanId    string `json:"planId"`
	StartedAt int64  `json:"startedAt"`
	ExpiresAt int64  `json:"expiresAt"`
	Renewed   bool   `json:"renewed"`
	Plan      *Plan  `json:"plan,omitempty"`
}

// Limits are the effective resource ceilings for a user, falling back to
// the free-tier defaults when no subscription row exists.
type Limits struct {
	StorageLimitBytes int64 `json:"storageLimitBytes"`
	AiTokensPerMonth  int64 `json:"aiTokensPerMonth"`
}
