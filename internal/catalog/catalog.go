// Package catalog loads the seed catalog from YAML: the subjects and
// chapters learners browse, the badge definitions and the shop inventory.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the parsed seed file.
type Catalog struct {
	Subjects []SubjectSeed `yaml:"subjects"`
	Badges   []BadgeSeed   `yaml:"badges"`
	Items    []ItemSeed    `yaml:"shop_items"`
}

// SubjectSeed is one subject with its chapters, in teaching order.
type SubjectSeed struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	GradeLevel  int           `yaml:"grade_level"`
	Description string        `yaml:"description"`
	IconName    string        `yaml:"icon_name"`
	Chapters    []ChapterSeed `yaml:"chapters"`
}

// ChapterSeed is one chapter within a seeded subject.
type ChapterSeed struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// BadgeSeed is one badge definition.
type BadgeSeed struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	IconName         string `yaml:"icon_name"`
	RequirementType  string `yaml:"requirement_type"`
	RequirementValue int    `yaml:"requirement_value"`
}

// ItemSeed is one shop item.
type ItemSeed struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	IconName    string `yaml:"icon_name"`
	Price       int    `yaml:"price"`
}

// Load parses the seed catalog at path and validates the pieces the seeder
// depends on.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for _, s := range c.Subjects {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("subject missing id or name: %+v", s)
		}
		for _, ch := range s.Chapters {
			if ch.ID == "" || ch.Title == "" {
				return nil, fmt.Errorf("chapter in %q missing id or title", s.Name)
			}
		}
	}
	for _, b := range c.Badges {
		if b.ID == "" || b.RequirementType == "" {
			return nil, fmt.Errorf("badge missing id or requirement type: %+v", b)
		}
	}
	for _, item := range c.Items {
		if item.ID == "" || item.Price < 0 {
			return nil, fmt.Errorf("shop item invalid: %+v", item)
		}
	}
	return &c, nil
}
