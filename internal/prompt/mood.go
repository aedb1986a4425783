package prompt

import (
	"strings"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// moodRule maps a set of cue words to a mood label. Table order is priority
// order: the first category with any match wins, regardless of where the cue
// appears in the text.
type moodRule struct {
	mood     string
	keywords []string
}

var moodTable = []moodRule{
	{mood: "pleased", keywords: []string{"smile", "laugh", "grin", "chuckle", "beam"}},
	{mood: "wary", keywords: []string{"frown", "narrow", "glare", "scowl"}},
	{mood: "melancholic", keywords: []string{"sigh", "distant", "somber", "wistful"}},
	{mood: "enthusiastic", keywords: []string{"excited", "eager", "thrilled", "can't wait"}},
}

// ClassifyMood scans a generated response for mood cues. Matching is
// case-insensitive substring search; if no category matches, the profile's
// default mood is returned.
func ClassifyMood(responseText string, profile models.CharacterProfile) string {
	lowered := strings.ToLower(responseText)
	for _, rule := range moodTable {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.mood
			}
		}
	}
	return profile.DefaultMood
}
