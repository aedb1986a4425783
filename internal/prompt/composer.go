package prompt

import (
	"fmt"
	"strings"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// BaseDirective is the fixed first layer of every system prompt. The narrator
// receives it verbatim; characters get a character block layered on top.
const BaseDirective = "You are the engine of an interactive story. Write vivid, " +
	"grounded prose in the voice you are given, keep continuity with the " +
	"conversation so far, and never mention that you are an AI or a language model."

const stayInCharacter = "Stay in character at all times. Respond only as this character would."

// Section is one named layer of the composed system prompt. Keeping the
// layers as data lets each one be tested on its own.
type Section struct {
	Name string
	Text string
}

// Sections builds the ordered character block for a profile. The narrator has
// no block. mood overrides the profile's default mood when non-empty.
func Sections(profile models.CharacterProfile, mood string) []Section {
	if profile.IsNarrator() {
		return nil
	}
	if mood == "" {
		mood = profile.DefaultMood
	}
	sections := []Section{
		{Name: "role", Text: fmt.Sprintf("You are %s, %s.", profile.Name, profile.Role)},
	}
	if len(profile.Personality) > 0 {
		sections = append(sections, Section{
			Name: "personality",
			Text: "Personality: " + strings.Join(profile.Personality, ", ") + ".",
		})
	}
	if profile.SpeechStyle != "" {
		sections = append(sections, Section{Name: "style", Text: "Speech style: " + profile.SpeechStyle + "."})
	}
	if mood != "" {
		sections = append(sections, Section{Name: "mood", Text: "Current mood: " + mood + "."})
	}
	if profile.RelationshipToUser != "" {
		sections = append(sections, Section{
			Name: "relationship",
			Text: "Relationship to the player: " + profile.RelationshipToUser + ".",
		})
	}
	if profile.Description != "" {
		sections = append(sections, Section{Name: "background", Text: profile.Description})
	}
	sections = append(sections, Section{Name: "closing", Text: stayInCharacter})
	return sections
}

// Compose layers the base directive with the profile's character block and
// returns the system prompt for a turn. Pure function of its inputs.
func Compose(profile models.CharacterProfile, mood string) string {
	sections := Sections(profile, mood)
	if len(sections) == 0 {
		return BaseDirective
	}
	var b strings.Builder
	b.WriteString(BaseDirective)
	for _, section := range sections {
		b.WriteString("\n\n")
		b.WriteString(section.Text)
	}
	return b.String()
}
