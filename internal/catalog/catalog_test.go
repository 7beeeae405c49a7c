package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/owlet-learn/owlet/internal/catalog"
	"github.com/owlet-learn/owlet/internal/content"
	"github.com/owlet-learn/owlet/internal/gamification"
	"github.com/owlet-learn/owlet/internal/profile"
)

func TestLoad(t *testing.T) {
	c, err := catalog.Load(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(c.Subjects) != 1 {
		t.Fatalf("subjects = %d, want 1", len(c.Subjects))
	}
	if c.Subjects[0].Name != "Mathematics" || c.Subjects[0].GradeLevel != 3 {
		t.Errorf("subject = %+v", c.Subjects[0])
	}
	if len(c.Subjects[0].Chapters) != 2 {
		t.Errorf("chapters = %d, want 2", len(c.Subjects[0].Chapters))
	}
	if len(c.Badges) != 2 {
		t.Errorf("badges = %d, want 2", len(c.Badges))
	}
	if len(c.Items) != 1 || c.Items[0].Price != 40 {
		t.Errorf("items = %+v", c.Items)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"subject missing name", "subjects:\n  - id: \"s1\"\n"},
		{"chapter missing title", "subjects:\n  - id: \"s1\"\n    name: Math\n    chapters:\n      - id: \"c1\"\n"},
		{"badge missing requirement", "badges:\n  - id: \"b1\"\n    name: Badge\n"},
		{"negative price", "shop_items:\n  - id: \"i1\"\n    name: Hat\n    price: -1\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := catalog.Load(path); err == nil {
				t.Error("Load() accepted invalid catalog")
			}
		})
	}
}

func TestSeeder_Seed(t *testing.T) {
	c, err := catalog.Load(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	contents := content.NewMemoryStore()
	rewards := gamification.NewMemoryStore(profile.NewMemoryStore())
	seeder := catalog.NewSeeder(contents, rewards)

	if err := seeder.Seed(context.Background(), c); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	subject, err := contents.GetSubject(context.Background(), c.Subjects[0].ID)
	if err != nil {
		t.Fatalf("GetSubject() error = %v", err)
	}
	chapters, err := contents.ListChapters(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("ListChapters() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(chapters))
	}
	if chapters[0].OrderIndex != 1 || chapters[1].OrderIndex != 2 {
		t.Errorf("chapter order not preserved: %+v", chapters)
	}

	badges, err := rewards.ListBadges(context.Background())
	if err != nil {
		t.Fatalf("ListBadges() error = %v", err)
	}
	if len(badges) != 2 {
		t.Errorf("badges = %d, want 2", len(badges))
	}
	items, err := rewards.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	// Seeding again must not duplicate subjects or chapters.
	if err := seeder.Seed(context.Background(), c); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	chapters, _ = contents.ListChapters(context.Background(), subject.ID)
	if len(chapters) != 2 {
		t.Errorf("chapters after reseed = %d, want 2", len(chapters))
	}
}
