package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

func TestClassifyMood(t *testing.T) {
	profile := models.CharacterProfile{ID: "mira", DefaultMood: "neutral"}

	cases := []struct {
		name string
		text string
		want string
	}{
		{"PleasedCue", "She smiled and waved.", "pleased"},
		{"WaryCue", "He frowned at the map.", "wary"},
		{"MelancholicCue", "A long sigh escaped her.", "melancholic"},
		{"EnthusiasticCue", "I'm so excited to see it!", "enthusiastic"},
		{"CaseInsensitive", "SHE LAUGHED LOUDLY", "pleased"},
		{"SubstringMatch", "His eyes narrowed slightly.", "wary"},
		{"NoCueFallsBackToDefault", "She said nothing at all.", "neutral"},
		{"EmptyText", "", "neutral"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyMood(tc.text, profile))
		})
	}
}

func TestClassifyMood_FirstCategoryWins(t *testing.T) {
	profile := models.CharacterProfile{ID: "mira", DefaultMood: "neutral"}

	// "sigh" appears first in the text, but "smile" belongs to an earlier
	// category; category order decides, not position in the text.
	text := "With a sigh she managed a small smile."
	assert.Equal(t, "pleased", ClassifyMood(text, profile))

	text = "He scowled, clearly eager to leave."
	assert.Equal(t, "wary", ClassifyMood(text, profile))
}
