package gemini

import (
	"github.com/pkoukk/tiktoken-go"
)

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// TokenCounter estimates prompt token counts before a stream is opened.
// Gemini does not publish its tokenizer; the cl100k encoding is close
// enough for quota pre-checks, which only need an estimate.
type TokenCounter struct {
	encoder encoder
}

func NewTokenCounter() (*TokenCounter, error) {
	e, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}

	return &TokenCounter{
		encoder: e,
	}, nil
}

func (tc *TokenCounter) Count(input string) int {
	return len(tc.encoder.Encode(input, nil, nil))
}
