package gemini

// Wire types for the Gemini generateContent REST surface. Only the fields
// this service reads or writes are modeled.

type GenerateContentRequest struct {
	Contents         []*Content        `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string  `json:"role"`
	Parts []*Part `json:"parts"`
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type EventType string

const (
	EventTypeTextDelta     EventType = "text_delta"
	EventTypeUsageSnapshot EventType = "usage_snapshot"
)

// UsageSnapshot carries cumulative token counts for the stream so far, not
// an increment. A later snapshot supersedes every earlier one.
type UsageSnapshot struct {
	PromptTokens    int `json:"promptTokens"`
	CandidateTokens int `json:"candidateTokens"`
}

func (us *UsageSnapshot) Total() int {
	return us.PromptTokens + us.CandidateTokens
}

// Event is the normalized stream event shape. The rest of the pipeline only
// ever sees text deltas and usage snapshots, never provider chunk variance.
type Event struct {
	Type  EventType
	Text  string
	Usage *UsageSnapshot
}
