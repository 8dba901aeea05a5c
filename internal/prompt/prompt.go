package prompt

import (
	"fmt"
	"strings"
)

// CourseSystemPrompt instructs the model to synthesize a course outline
// from a list of source links and emit it as a single JSON object.
const CourseSystemPrompt = `You are an AI Course Generator. Your primary function is to process a given list of links (articles, videos, documentation) and transform them into a structured, engaging, and informative course outline. The output must be a single, valid JSON object.

### Primary Goal
Generate a comprehensive course in JSON format by synthesizing information exclusively from the provided links. Do not invent content or use external knowledge.

### Output Requirements: JSON Structure
The entire output MUST be a single JSON object. No extraneous text or explanations outside this JSON object. The root object must conform to the following structure:

{
  "title": "Course Title",
  "description": "A 2-3 sentence summary of what the course covers and who it's for.",
  "chapters": [
    {
      "title": "Chapter Title",
      "duration": "Estimated duration (e.g., 30 min, 1 hour, 90 min)",
      "content": "Markdown content of the chapter."
    }
  ]
}

Content must include valid markdown but dont forget to use Escape character for backticks and other character which might break JSON.

The list of links for course generation will be provided immediately following this prompt.`

// Assemble composes the full model prompt from a system instruction, file
// references, optional video references and optional free text. Sections for
// videos and extra context are omitted entirely when they carry nothing;
// the file section header is always present. Non-blank references are never
// dropped.
func Assemble(systemPrompt string, fileRefs []string, videoRefs []string, extraContext string) string {
	var b strings.Builder

	b.WriteString(systemPrompt)
	b.WriteString("\n\nFiles:\n")
	b.WriteString(strings.Join(trimBlank(fileRefs), "\n"))

	videos := trimBlank(videoRefs)
	if len(videos) > 0 {
		b.WriteString("\n\nYouTube Videos:\n")
		b.WriteString(strings.Join(videos, "\n"))
	}

	if len(strings.TrimSpace(extraContext)) > 0 {
		b.WriteString("\n\nAdditional Context:\n")
		b.WriteString(strings.TrimSpace(extraContext))
	}

	return b.String()
}

// FileUrls maps stored file keys to their public CDN urls.
func FileUrls(cdnBaseUrl string, keys []string) []string {
	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(strings.TrimSpace(k)) == 0 {
			continue
		}

		urls = append(urls, fmt.Sprintf("%s/%s", strings.TrimSuffix(cdnBaseUrl, "/"), strings.TrimPrefix(k, "/")))
	}

	return urls
}

func trimBlank(refs []string) []string {
	kept := []string{}
	for _, r := range refs {
		trimmed := strings.TrimSpace(r)
		if len(trimmed) == 0 {
			continue
		}

		kept = append(kept, trimmed)
	}

	return kept
}
