package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/owlet-learn/owlet/internal/content"
	"github.com/owlet-learn/owlet/internal/gamification"
)

// Seeder writes the parsed catalog into the content and gamification
// stores. Seeding is idempotent: subjects already present are left alone,
// badges and items are upserted.
type Seeder struct {
	contents content.Store
	rewards  gamification.Store
}

// NewSeeder creates a seeder over the given stores.
func NewSeeder(contents content.Store, rewards gamification.Store) *Seeder {
	return &Seeder{contents: contents, rewards: rewards}
}

// Seed applies the catalog.
func (s *Seeder) Seed(ctx context.Context, c *Catalog) error {
	seeded := 0
	for _, subjectSeed := range c.Subjects {
		created, err := s.seedSubject(ctx, subjectSeed)
		if err != nil {
			return err
		}
		if created {
			seeded++
		}
	}

	badges := make([]gamification.Badge, len(c.Badges))
	for i, b := range c.Badges {
		badges[i] = gamification.Badge{
			ID:               b.ID,
			Name:             b.Name,
			Description:      b.Description,
			IconName:         b.IconName,
			RequirementType:  gamification.RequirementType(b.RequirementType),
			RequirementValue: b.RequirementValue,
		}
	}
	if err := s.rewards.PutBadges(ctx, badges...); err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}

	items := make([]gamification.Item, len(c.Items))
	for i, item := range c.Items {
		items[i] = gamification.Item{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			IconName:    item.IconName,
			Price:       item.Price,
		}
	}
	if err := s.rewards.PutItems(ctx, items...); err != nil {
		return fmt.Errorf("seed shop items: %w", err)
	}

	slog.Info("catalog seeded",
		"subjects_created", seeded,
		"badges", len(badges),
		"shop_items", len(items),
	)
	return nil
}

func (s *Seeder) seedSubject(ctx context.Context, seed SubjectSeed) (bool, error) {
	_, err := s.contents.GetSubject(ctx, seed.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, content.ErrSubjectNotFound) {
		return false, fmt.Errorf("check subject %q: %w", seed.Name, err)
	}

	subject := content.Subject{
		ID:          seed.ID,
		Name:        seed.Name,
		GradeLevel:  seed.GradeLevel,
		Description: seed.Description,
		IconName:    seed.IconName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.contents.CreateSubject(ctx, subject); err != nil {
		return false, fmt.Errorf("seed subject %q: %w", seed.Name, err)
	}

	chapters := make([]content.Chapter, len(seed.Chapters))
	for i, ch := range seed.Chapters {
		chapters[i] = content.Chapter{
			ID:          ch.ID,
			SubjectID:   subject.ID,
			Title:       ch.Title,
			Description: ch.Description,
			OrderIndex:  i + 1,
		}
	}
	if len(chapters) > 0 {
		if err := s.contents.CreateChapters(ctx, chapters...); err != nil {
			return false, fmt.Errorf("seed chapters for %q: %w", seed.Name, err)
		}
	}
	return true, nil
}
