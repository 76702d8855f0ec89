package ant

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// Field bounds for BicameralThought. Construction enforces them regardless of
// what the model produced.
const (
	thoughtVersion    = 2
	maxIntentChars    = 75
	maxAnchorChars    = 80
	maxListEntries    = 2
	maxListEntryChars = 80
)

// BicameralThought is an ant's internal self-assessment of how a conversation
// is going. It steers tone and topic in the next generation and is never
// exposed outside the engine.
type BicameralThought struct {
	Version                 int       `json:"version"`
	CreatedAt               time.Time `json:"createdAt"`
	StalenessScore          int       `json:"stalenessScore"`
	ConfidenceScore         int       `json:"confidenceScore"`
	LastMessageIntent       string    `json:"lastMessageIntent"`
	MyReplyIntent           string    `json:"myReplyIntent"`
	VoiceAuthenticityScore  int       `json:"voiceAuthenticityScore"`
	VoiceNotes              []string  `json:"voiceNotes"`
	AdjacentTopicCandidates []string  `json:"adjacentTopicCandidates"`
	NextTopicAnchor         string    `json:"nextTopicAnchor"`
}

// Normalize clamps scores to [0,100], truncates bounded strings, and caps the
// lists at two trimmed non-blank entries. Safe to call on any input.
func (t BicameralThought) Normalize() BicameralThought {
	if t.Version <= 0 {
		t.Version = thoughtVersion
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.StalenessScore = clampScore(t.StalenessScore)
	t.ConfidenceScore = clampScore(t.ConfidenceScore)
	t.VoiceAuthenticityScore = clampScore(t.VoiceAuthenticityScore)
	t.LastMessageIntent = trimToMax(t.LastMessageIntent, maxIntentChars)
	t.MyReplyIntent = trimToMax(t.MyReplyIntent, maxIntentChars)
	t.NextTopicAnchor = trimToMax(t.NextTopicAnchor, maxAnchorChars)
	t.VoiceNotes = capList(t.VoiceNotes, maxListEntries, maxListEntryChars)
	t.AdjacentTopicCandidates = capList(t.AdjacentTopicCandidates, maxListEntries, maxListEntryChars)
	return t
}

// ParseThought parses persisted reflective-state JSON. The stored value is
// untrusted model output, so the raw text is repaired before unmarshaling and
// any failure yields (zero, false) rather than an error.
func ParseThought(raw string) (BicameralThought, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return BicameralThought{}, false
	}

	var t BicameralThought
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return BicameralThought{}, false
		}
		if err := json.Unmarshal([]byte(repaired), &t); err != nil {
			return BicameralThought{}, false
		}
	}
	return t.Normalize(), true
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func trimToMax(s string, max int) string {
	t := strings.TrimSpace(s)
	runes := []rune(t)
	if len(runes) <= max {
		return t
	}
	return strings.TrimSpace(string(runes[:max]))
}

func capList(in []string, maxItems, maxCharsEach int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, maxItems)
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, trimToMax(s, maxCharsEach))
		if len(out) == maxItems {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
