package services

import (
	"context"
	"testing"
	"time"

	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/models"
)

func TestCronbachAlphaPerfectCorrelation(t *testing.T) {
	rows := [][]float64{
		{1, 1, 1},
		{2, 2, 2},
		{3, 3, 3},
		{4, 4, 4},
	}
	got, ok := CronbachAlpha(rows)
	if !ok || got < 0.999 || got > 1.001 {
		t.Fatalf("alpha = %f, %v; want ~1.0", got, ok)
	}
}

func TestCronbachAlphaBoundsAndDegenerate(t *testing.T) {
	got, ok := CronbachAlpha([][]float64{
		{1, 2, 3},
		{2, 1, 4},
		{3, 0, 5},
		{4, -1, 6},
	})
	if !ok || got < 0 || got > 1 {
		t.Fatalf("alpha out of [0,1]: %f, %v", got, ok)
	}
	cases := map[string][][]float64{
		"no rows":       nil,
		"one row":       {{1, 2}},
		"one item":      {{1}, {2}},
		"ragged":        {{1, 2}, {3}},
		"zero variance": {{3, 3}, {3, 3}},
	}
	for name, rows := range cases {
		if _, ok := CronbachAlpha(rows); ok {
			t.Fatalf("%s: expected ok=false", name)
		}
	}
}

func TestStatsScaleReliability(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) {
		sv.Questions = []models.Question{
			{ID: "s1", Type: models.QuestionScale, Text: "Calm", Order: 0},
			{ID: "s2", Type: models.QuestionScale, Text: "Rested", Order: 1},
			{ID: "t", Type: models.QuestionText, Text: "Notes", Order: 2},
		}
	})
	ctx := context.Background()
	at := time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC)
	for i, a := range [][]models.Answer{
		answers("s1", 1.0, "s2", 1.0),
		answers("s1", "3", "s2", 3.0, "t", "ok"),
		answers("s1", 5.0, "s2", "5"),
		answers("s1", 4.0), // incomplete, skipped
		answers("s1", "n/a", "s2", 2.0),
	} {
		_ = store.InsertResponse(ctx, &models.Response{ID: string(rune('a' + i)), SurveyID: "S1", CreatedAt: at, Answers: a})
	}

	stats, err := NewAnalyticsService(store).Stats(ctx, owner, "S1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	rel := stats.Reliability
	if rel == nil {
		t.Fatalf("reliability missing")
	}
	if rel.Items != 2 || rel.Respondents != 3 || rel.Alpha < 0.999 {
		t.Fatalf("unexpected reliability %+v", rel)
	}
}

func TestStatsReliabilityNeedsTwoScaleQuestions(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, nil)
	stats, err := NewAnalyticsService(store).Stats(context.Background(), owner, "S1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Reliability != nil {
		t.Fatalf("unexpected reliability %+v", stats.Reliability)
	}
}
