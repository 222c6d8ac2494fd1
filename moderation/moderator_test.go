package moderation

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// TestModerator_Censor
// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	dictionary := []string{"whatsapp", "venmo", "pay cash"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "Move to whatsapp maybe?",
			expected: "Move to ******** maybe?",
			words:    []string{"whatsapp"},
		},
		{
			name:     "Multiple occurrences",
			input:    "venmo or venmo",
			expected: "***** or *****",
			words:    []string{"venmo", "venmo"},
		},
		{
			name: "Leet speak",
			// wh4t5app simplifies to whatsapp before matching
			input:    "try wh4t5app now",
			expected: "try ******** now",
			words:    []string{"whatsapp"},
		},
		{
			name:     "Uppercase and internal punctuation",
			input:    "V.E.N.M.O me",
			expected: "********* me",
			words:    []string{"venmo"},
		},
		{
			name:     "Multi-word pattern censored as one span",
			input:    "I prefer pay cash ok",
			expected: "I prefer ******** ok",
			words:    []string{"pay cash"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec venmo",
			expected: "Un été avec *****",
			words:    []string{"venmo"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "no whatsapp!",
			expected: "no ********!",
			words:    []string{"whatsapp"},
		},
		{
			name:     "Nothing to censor",
			input:    "the table is ready for pickup",
			expected: "the table is ready for pickup",
			words:    nil,
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
			words:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			sanitized, found := mod.Censor(tt.input)
			req.Equal(tt.expected, sanitized)
			if tt.words == nil {
				req.Empty(found)
				return
			}
			req.Len(found, len(tt.words))
			for i, word := range tt.words {
				// Matches come back in their normalized form
				req.Equal(normalizedString(word), found[i])
			}
		})
	}
}

func normalizedString(word string) string {
	return string(normalizeRunes([]rune(word)))
}

func TestLoadBannedWords(t *testing.T) {
	req := require.New(t)

	data, err := LoadBannedWords()
	req.NoError(err)

	// One category per embedded dictionary file
	req.Equal([]string{"offplatform", "profanity"}, data.Categories)

	req.Contains(data.Words, "whatsapp")
	req.Contains(data.Words, "pay cash")
	req.Contains(data.Words, "damn")
	for _, word := range data.Words {
		req.NotEmpty(word)
		req.NotContains(word, "#")
	}
}

func TestLoadedWordsBuildAWorkingModerator(t *testing.T) {
	req := require.New(t)

	data, err := LoadBannedWords()
	req.NoError(err)
	mod, err := NewModerator(data.Words, replacementChar, slog.Default())
	req.NoError(err)

	sanitized, found := mod.Censor("message me on whatsapp")
	req.Equal("message me on ********", sanitized)
	req.Len(found, 1)
}
