// Package plan recovers a structured task plan embedded in free-form assistant text.
package plan

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Item is one suggested task.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Plan is the transient suggestion produced by one assistant turn.
type Plan struct {
	TasksDaily  []Item `json:"tasksDaily,omitempty"`
	TasksFuture []Item `json:"tasksFuture,omitempty"`
}

// Len returns the number of suggested tasks across both lists.
func (p Plan) Len() int {
	return len(p.TasksDaily) + len(p.TasksFuture)
}

// Span is the byte range [Start, End) of the text consumed by a successful extraction.
type Span struct {
	Start int
	End   int
}

var (
	fenceRe = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")
	braceRe = regexp.MustCompile(`(?s)[\{\[].*[\}\]]`)
)

// Extract looks for a plan in text. A ```json fence (or, without one, the whole
// text) is tried first; failing that, the outermost brace/bracket span of the
// original text. A candidate counts only when it parses strictly and carries
// tasksDaily or tasksFuture.
func Extract(text string) (Plan, Span, bool) {
	candidate := text
	span := Span{Start: 0, End: len(text)}
	if m := fenceRe.FindStringSubmatchIndex(text); m != nil {
		candidate = text[m[2]:m[3]]
		span = Span{Start: m[0], End: m[1]}
	}
	if p, ok := parse(candidate); ok {
		return p, span, true
	}

	if loc := braceRe.FindStringIndex(text); loc != nil {
		if p, ok := parse(text[loc[0]:loc[1]]); ok {
			return p, Span{Start: loc[0], End: loc[1]}, true
		}
	}
	return Plan{}, Span{}, false
}

func parse(candidate string) (Plan, bool) {
	raw := []byte(strings.TrimSpace(candidate))
	if len(raw) == 0 || raw[0] != '{' {
		return Plan{}, false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Plan{}, false
	}
	_, daily := keys["tasksDaily"]
	_, future := keys["tasksFuture"]
	if !daily && !future {
		return Plan{}, false
	}

	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return Plan{}, false
	}
	return p, true
}

// Strip removes exactly the consumed span from the reply shown to the user.
func Strip(text string, span Span) string {
	if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
		return strings.TrimSpace(text)
	}
	head := strings.TrimSpace(text[:span.Start])
	tail := strings.TrimSpace(text[span.End:])
	switch {
	case head == "":
		return tail
	case tail == "":
		return head
	}
	return head + "\n\n" + tail
}
