package gemini

import (
	"bufio"
	"bytes"
	"io"

	"github.com/tidwall/gjson"
)

var headerData = []byte("data: ")

// Stream is a lazy, finite, non-restartable sequence of normalized events
// read off one generation call. Events are yielded in receipt order; a
// chunk carrying both text and usage metadata yields the text delta first.
type Stream struct {
	body      io.ReadCloser
	reader    *bufio.Reader
	pending   []*Event
	lastTotal int
}

// Recv returns the next event, io.EOF on graceful end of stream, or the
// underlying read error when the stream terminates abnormally. Usage
// snapshots are cumulative; a snapshot whose total regressed below one
// already seen is dropped so that later snapshots stay authoritative.
func (s *Stream) Recv() (*Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}

	for {
		raw, err := s.reader.ReadBytes('\n')
		if err != nil {
			return nil, err
		}

		noSpaceLine := bytes.TrimSpace(raw)
		if !bytes.HasPrefix(noSpaceLine, headerData) {
			continue
		}

		noPrefixLine := bytes.TrimPrefix(noSpaceLine, headerData)

		events := s.parseChunk(noPrefixLine)
		if len(events) == 0 {
			continue
		}

		s.pending = events[1:]
		return events[0], nil
	}
}

func (s *Stream) Close() error {
	return s.body.Close()
}

func (s *Stream) parseChunk(chunk []byte) []*Event {
	events := []*Event{}

	text := gjson.GetBytes(chunk, "candidates.0.content.parts.0.text")
	if text.Exists() && len(text.String()) > 0 {
		events = append(events, &Event{
			Type: EventTypeTextDelta,
			Text: text.String(),
		})
	}

	meta := gjson.GetBytes(chunk, "usageMetadata")
	if meta.Exists() {
		snapshot := &UsageSnapshot{
			PromptTokens:    int(meta.Get("promptTokenCount").Int()),
			CandidateTokens: int(meta.Get("candidatesTokenCount").Int()),
		}

		if snapshot.Total() >= s.lastTotal {
			s.lastTotal = snapshot.Total()
			events = append(events, &Event{
				Type:  EventTypeUsageSnapshot,
				Usage: snapshot,
			})
		}
	}

	return events
}
