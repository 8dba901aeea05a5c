package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
)

const defaultBaseUrl = "https://generativelanguage.googleapis.com"

// Client opens streaming generation calls against the Gemini REST API. It is
// stateless; one instance is shared by all requests and credentials come
// from injected configuration.
type Client struct {
	apiKey  string
	baseUrl string
	model   string
	client  http.Client
}

func NewClient(apiKey string, baseUrl string, model string) *Client {
	if len(baseUrl) == 0 {
		baseUrl = defaultBaseUrl
	}

	return &Client{
		apiKey:  apiKey,
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		model:   model,
		client:  http.Client{},
	}
}

// Generate starts one streaming generation call. Inline documents are
// attached as base64 pdf parts after the prompt, mirroring the upload
// variant of the generation endpoint. The call fails fast with an
// UpstreamError before any byte is relayed when the stream cannot be
// established; ctx bounds the lifetime of the whole stream.
func (c *Client) Generate(ctx context.Context, prompt string, inlinePdfs []string) (*Stream, error) {
	parts := []*Part{{Text: prompt}}
	for _, data := range inlinePdfs {
		parts = append(parts, &Part{
			InlineData: &Blob{
				MimeType: "application/pdf",
				Data:     stripDataUrlPrefix(data),
			},
		})
	}

	body := &GenerateContentRequest{
		Contents: []*Content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
		GenerationConfig: &GenerationConfig{
			Temperature: 0.6,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseUrl, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, internal_errors.NewUpstreamError(fmt.Sprintf("failed to reach gemini: %v", err))
	}

	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()

		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, internal_errors.NewUpstreamError(fmt.Sprintf("gemini returned status %d: %s", res.StatusCode, string(snippet)))
	}

	return &Stream{
		body:   res.Body,
		reader: bufio.NewReader(res.Body),
	}, nil
}

// stripDataUrlPrefix drops a leading "data:...;base64," marker so callers
// can submit either raw base64 or browser data urls.
func stripDataUrlPrefix(data string) string {
	if strings.HasPrefix(data, "data:") {
		if idx := strings.Index(data, ","); idx >= 0 {
			return data[idx+1:]
		}
	}

	return data
}
