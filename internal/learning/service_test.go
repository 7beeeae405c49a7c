package learning_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/owlet-learn/owlet/internal/ai"
	"github.com/owlet-learn/owlet/internal/content"
	"github.com/owlet-learn/owlet/internal/gamification"
	"github.com/owlet-learn/owlet/internal/learning"
	"github.com/owlet-learn/owlet/internal/profile"
	"github.com/owlet-learn/owlet/internal/progress"
)

const (
	testAccountID = "00000000-0000-0000-0000-0000000000aa"
	testProfileID = "00000000-0000-0000-0000-000000000010"
	testSubjectID = "00000000-0000-0000-0000-00000000000a"
	testChapterID = "00000000-0000-0000-0000-000000000001"
)

type fixture struct {
	svc      *learning.Service
	contents *content.MemoryStore
	profiles *profile.MemoryStore
	rewards  *gamification.MemoryStore
}

// newFixture wires the service over memory stores with the stub provider
// handling all generation.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	contents := content.NewMemoryStore()
	profiles := profile.NewMemoryStore()
	progressStore := progress.NewMemoryStore(profiles)
	rewards := gamification.NewMemoryStore(profiles)
	orch := ai.NewOrchestrator()

	err := profiles.Create(ctx, profile.Profile{
		ID:          testProfileID,
		AccountID:   testAccountID,
		DisplayName: "Maya",
		Grade:       3,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	err = contents.CreateSubject(ctx, content.Subject{
		ID: testSubjectID, Name: "Mathematics", GradeLevel: 3,
	})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	err = contents.CreateChapters(ctx, content.Chapter{
		ID:        testChapterID,
		SubjectID: testSubjectID,
		Title:     "The Magic of Numbers",
	})
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}

	svc := learning.NewService(learning.Config{
		Contents:     contents,
		Cache:        content.NewCache(contents, orch),
		Profiles:     profiles,
		Progress:     progressStore,
		Rewards:      rewards,
		Orchestrator: orch,
	})
	return &fixture{svc: svc, contents: contents, profiles: profiles, rewards: rewards}
}

func TestService_GetLesson_MarksInProgress(t *testing.T) {
	f := newFixture(t)

	lesson, err := f.svc.GetLesson(context.Background(), testProfileID, testChapterID)
	if err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}
	if lesson.Body == "" {
		t.Error("lesson body is empty")
	}
	if lesson.Status != progress.StatusInProgress {
		t.Errorf("status = %s, want in_progress", lesson.Status)
	}
}

func TestService_GetQuiz_BeforeLessonNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetQuiz(context.Background(), testProfileID, testChapterID)
	if !errors.Is(err, content.ErrBlockNotFound) {
		t.Fatalf("error = %v, want ErrBlockNotFound before lesson generation", err)
	}
}

func TestService_GetQuiz_HidesAnswers(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.GetLesson(context.Background(), testProfileID, testChapterID); err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}
	quiz, err := f.svc.GetQuiz(context.Background(), testProfileID, testChapterID)
	if err != nil {
		t.Fatalf("GetQuiz() error = %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(quiz.Questions))
	}
	// The lesson view already moved the chapter in progress; viewing the
	// quiz does not advance it further.
	if quiz.Status != progress.StatusInProgress {
		t.Errorf("status = %s, want in_progress until submission", quiz.Status)
	}
	for _, q := range quiz.Questions {
		if len(q.Options) != 4 {
			t.Errorf("question %d options = %d, want 4", q.Index, len(q.Options))
		}
	}
}

func TestService_SubmitQuiz_FullScore(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetLesson(context.Background(), testProfileID, testChapterID); err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}

	// The stub quiz answers are B and C.
	result, err := f.svc.SubmitQuiz(context.Background(), testProfileID, testChapterID, map[int]string{0: "B", 1: "C"})
	if err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}
	if result.Result.Correct != 2 || result.Result.Percentage != 100 {
		t.Errorf("result = %+v, want 2/2 at 100%%", result.Result)
	}
	if result.Result.XPEarned != 20 || result.Result.CoinsEarned != 10 {
		t.Errorf("earnings = xp %d coins %d, want xp 20 coins 10", result.Result.XPEarned, result.Result.CoinsEarned)
	}
	if result.Profile.XP != 20 || result.Profile.Coins != 10 {
		t.Errorf("profile balances = xp %d coins %d, want xp 20 coins 10", result.Profile.XP, result.Profile.Coins)
	}
	if result.Record.Status != progress.StatusCompleted {
		t.Errorf("record status = %s, want completed", result.Record.Status)
	}
	if result.Record.Score != 2 || result.Record.TotalQuestions != 2 || result.Record.XPEarned != 20 {
		t.Errorf("record = score %d/%d xp %d, want 2/2 xp 20",
			result.Record.Score, result.Record.TotalQuestions, result.Record.XPEarned)
	}
}

func TestService_SubmitQuiz_UnlocksBadgeOnThreshold(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetLesson(context.Background(), testProfileID, testChapterID); err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}
	err := f.rewards.PutBadges(context.Background(), gamification.Badge{
		ID:               "00000000-0000-0000-0000-000000000b02",
		Name:             "First Steps",
		RequirementType:  gamification.RequirementLessonsCompleted,
		RequirementValue: 1,
	})
	if err != nil {
		t.Fatalf("PutBadges() error = %v", err)
	}

	result, err := f.svc.SubmitQuiz(context.Background(), testProfileID, testChapterID, map[int]string{0: "B", 1: "C"})
	if err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}
	if len(result.NewBadges) != 1 || result.NewBadges[0].Name != "First Steps" {
		t.Errorf("new badges = %+v, want First Steps", result.NewBadges)
	}
}

func TestService_PurchaseFlow(t *testing.T) {
	f := newFixture(t)
	itemID := "00000000-0000-0000-0000-000000000e01"
	err := f.rewards.PutItems(context.Background(), gamification.Item{
		ID: itemID, Name: "Wizard Hat", Price: 10,
	})
	if err != nil {
		t.Fatalf("PutItems() error = %v", err)
	}

	// Earn exactly the price, then spend it.
	if _, err := f.svc.GetLesson(context.Background(), testProfileID, testChapterID); err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}
	if _, err := f.svc.SubmitQuiz(context.Background(), testProfileID, testChapterID, map[int]string{0: "B", 1: "C"}); err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}

	receipt, err := f.svc.PurchaseItem(context.Background(), testProfileID, itemID)
	if err != nil {
		t.Fatalf("PurchaseItem() error = %v", err)
	}
	if receipt.Balance != 0 {
		t.Errorf("balance = %d, want 0", receipt.Balance)
	}

	shop, err := f.svc.ListShop(context.Background(), testProfileID)
	if err != nil {
		t.Fatalf("ListShop() error = %v", err)
	}
	if len(shop) != 1 || !shop[0].Owned {
		t.Errorf("shop = %+v, want item owned", shop)
	}
}

func TestService_GenerateCurriculum_Idempotent(t *testing.T) {
	f := newFixture(t)

	subject, chapters, err := f.svc.GenerateCurriculum(context.Background(), "Science", 4)
	if err != nil {
		t.Fatalf("GenerateCurriculum() error = %v", err)
	}
	if len(chapters) == 0 {
		t.Fatal("no chapters generated")
	}

	again, chaptersAgain, err := f.svc.GenerateCurriculum(context.Background(), "science", 4)
	if err != nil {
		t.Fatalf("second GenerateCurriculum() error = %v", err)
	}
	if again.ID != subject.ID {
		t.Errorf("second call created a new subject")
	}
	if len(chaptersAgain) != len(chapters) {
		t.Errorf("chapters changed across calls: %d vs %d", len(chapters), len(chaptersAgain))
	}
}

func TestService_GenerateCurriculum_Validation(t *testing.T) {
	f := newFixture(t)

	if _, _, err := f.svc.GenerateCurriculum(context.Background(), "", 4); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("empty name error = %v, want ErrValidation", err)
	}
	if _, _, err := f.svc.GenerateCurriculum(context.Background(), "Science", 0); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("grade 0 error = %v, want ErrValidation", err)
	}
}

func TestService_ListSubjects_Validation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.ListSubjects(context.Background(), 0, -1, 0); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("negative limit error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.ListSubjects(context.Background(), 0, 0, -1); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("negative offset error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.ListSubjects(context.Background(), 99, 0, 0); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("bad grade error = %v, want ErrValidation", err)
	}

	subjects, err := f.svc.ListSubjects(context.Background(), 3, 0, 0)
	if err != nil {
		t.Fatalf("ListSubjects() error = %v", err)
	}
	if len(subjects) != 1 {
		t.Errorf("subjects = %d, want 1", len(subjects))
	}
}

func TestService_GetOverview(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetLesson(context.Background(), testProfileID, testChapterID); err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}
	if _, err := f.svc.SubmitQuiz(context.Background(), testProfileID, testChapterID, map[int]string{0: "B"}); err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}

	overview, err := f.svc.GetOverview(context.Background(), testProfileID)
	if err != nil {
		t.Fatalf("GetOverview() error = %v", err)
	}
	if overview.Profile.XP != 10 {
		t.Errorf("overview xp = %d, want 10", overview.Profile.XP)
	}
	if len(overview.Records) != 1 {
		t.Fatalf("records = %d, want one record for the chapter", len(overview.Records))
	}
	if overview.Records[0].Score != 1 || overview.Records[0].TotalQuestions != 2 {
		t.Errorf("record = score %d/%d, want 1/2", overview.Records[0].Score, overview.Records[0].TotalQuestions)
	}
}

func TestService_CreateProfile_Validation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateProfile(context.Background(), testAccountID, "", 3, ""); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("empty name error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.CreateProfile(context.Background(), testAccountID, "Sam", 13, ""); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("grade 13 error = %v, want ErrValidation", err)
	}

	p, err := f.svc.CreateProfile(context.Background(), testAccountID, "Sam", 6, "owl")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	profiles, err := f.svc.ListProfiles(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("profiles = %d, want 2", len(profiles))
	}
	if _, err := f.svc.GetProfile(context.Background(), p.ID); err != nil {
		t.Errorf("GetProfile() error = %v", err)
	}
}
