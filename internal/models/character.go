package models

// NarratorRole marks the profile that speaks as the story narrator.
// The composer returns the bare base directive for it, with no character block.
const NarratorRole = "narrator"

// CharacterProfile describes a playable character. Profiles are owned by the
// character catalog and are read-only to the conversation core.
type CharacterProfile struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	Role               string   `json:"role" yaml:"role"`
	Personality        []string `json:"personality" yaml:"personality"` // ordered traits
	SpeechStyle        string   `json:"speech_style" yaml:"speech_style"`
	DefaultMood        string   `json:"default_mood" yaml:"default_mood"`
	RelationshipToUser string   `json:"relationship_to_user" yaml:"relationship_to_user"`
	Description        string   `json:"description" yaml:"description"`
}

// IsNarrator reports whether this profile represents the narrator.
func (p CharacterProfile) IsNarrator() bool {
	return p.Role == NarratorRole
}
