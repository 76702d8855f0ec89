package ant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseThoughtClampsScores(t *testing.T) {
	got, ok := ParseThought(`{"stalenessScore": 180, "confidenceScore": -5, "voiceAuthenticityScore": 55}`)
	require.True(t, ok)
	require.Equal(t, 100, got.StalenessScore)
	require.Equal(t, 0, got.ConfidenceScore)
	require.Equal(t, 55, got.VoiceAuthenticityScore)
	require.Equal(t, thoughtVersion, got.Version)
	require.False(t, got.CreatedAt.IsZero())
}

func TestParseThoughtTruncatesStrings(t *testing.T) {
	long := strings.Repeat("x", 200)
	got, ok := ParseThought(`{"lastMessageIntent":"` + long + `","myReplyIntent":"` + long + `","nextTopicAnchor":"` + long + `"}`)
	require.True(t, ok)
	require.LessOrEqual(t, len(got.LastMessageIntent), maxIntentChars)
	require.LessOrEqual(t, len(got.MyReplyIntent), maxIntentChars)
	require.LessOrEqual(t, len(got.NextTopicAnchor), maxAnchorChars)
}

func TestParseThoughtCapsLists(t *testing.T) {
	got, ok := ParseThought(`{"voiceNotes":["  ","a","b","c"],"adjacentTopicCandidates":["only"]}`)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, got.VoiceNotes)
	require.Equal(t, []string{"only"}, got.AdjacentTopicCandidates)
}

func TestParseThoughtRepairsSloppyJSON(t *testing.T) {
	// Trailing comma and unquoted key, typical of model output.
	got, ok := ParseThought("{stalenessScore: 80, \"confidenceScore\": 20,}")
	require.True(t, ok)
	require.Equal(t, 80, got.StalenessScore)
	require.Equal(t, 20, got.ConfidenceScore)
}

func TestParseThoughtIgnoresUnknownFields(t *testing.T) {
	got, ok := ParseThought(`{"stalenessScore":10,"affordanceType":"QUESTION"}`)
	require.True(t, ok)
	require.Equal(t, 10, got.StalenessScore)
}

func TestParseThoughtRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "not json at all ::"} {
		_, ok := ParseThought(raw)
		require.False(t, ok, "raw=%q", raw)
	}
}
