package catalog

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.CharacterCatalog = (*FileCatalog)(nil)

// narratorProfile is always present, whether or not the catalog file defines
// one. Its role makes the composer return the base directive verbatim.
var narratorProfile = models.CharacterProfile{
	ID:   "narrator",
	Name: "Narrator",
	Role: models.NarratorRole,
}

// catalogFile is the YAML shape of the character catalog.
type catalogFile struct {
	Characters []models.CharacterProfile `yaml:"characters"`
}

// FileCatalog is a read-only character catalog loaded once at startup from a
// YAML file.
type FileCatalog struct {
	byID  map[string]models.CharacterProfile
	order []string
}

// NewFileCatalog reads the catalog file and indexes the profiles by ID.
func NewFileCatalog(path string, logger *zap.Logger) (*FileCatalog, error) {
	var file catalogFile
	if err := cleanenv.ReadConfig(path, &file); err != nil {
		return nil, fmt.Errorf("failed to read character catalog %s: %w", path, err)
	}

	c := &FileCatalog{byID: make(map[string]models.CharacterProfile)}
	c.add(narratorProfile)
	for _, profile := range file.Characters {
		if profile.ID == "" {
			return nil, fmt.Errorf("%w: character profile without id in %s", models.ErrInvalidInput, path)
		}
		c.add(profile)
	}
	logger.Named("CharacterCatalog").Info("Loaded character catalog",
		zap.String("path", path), zap.Int("characters", len(c.byID)))
	return c, nil
}

func (c *FileCatalog) add(profile models.CharacterProfile) {
	if _, seen := c.byID[profile.ID]; !seen {
		c.order = append(c.order, profile.ID)
	}
	c.byID[profile.ID] = profile
}

// GetCharacter returns the profile for id or models.ErrCharacterNotFound.
func (c *FileCatalog) GetCharacter(id string) (*models.CharacterProfile, error) {
	profile, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrCharacterNotFound, id)
	}
	return &profile, nil
}

// ListCharacters returns all profiles in catalog order: the narrator first,
// then the file's own ordering.
func (c *FileCatalog) ListCharacters() []models.CharacterProfile {
	out := make([]models.CharacterProfile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
