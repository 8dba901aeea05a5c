package course

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
)

// Structure is the course outline parsed out of a completed model stream.
type Structure struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Chapters    []*StructureChapter `json:"chapters"`
}

// StructureChapter may carry an id when the model echoes back an existing
// chapter; freshly generated chapters come without one.
type StructureChapter struct {
	Id       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Content  string `json:"content"`
}

var jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// ExtractStructure parses the accumulated stream text into a Structure.
// Model output is usually wrapped in a ```json fence; if one is found its
// content is parsed, otherwise the raw text is parsed verbatim. A failure
// is reported as a GenerationParseError carrying the raw text and is never
// coerced into an empty structure.
func ExtractStructure(raw string) (*Structure, error) {
	candidate := strings.TrimSpace(raw)
	if match := jsonFence.FindStringSubmatch(candidate); match != nil {
		candidate = strings.TrimSpace(match[1])
	}

	structure := &Structure{}
	if err := json.Unmarshal([]byte(candidate), structure); err != nil {
		return nil, internal_errors.NewGenerationParseError(fmt.Sprintf("model output is not valid json: %v", err), raw)
	}

	if len(structure.Chapters) == 0 {
		return nil, internal_errors.NewGenerationParseError("model output does not contain any chapter", raw)
	}

	return structure, nil
}
