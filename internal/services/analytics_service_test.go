package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/models"
)

func answers(pairs ...any) []models.Answer {
	out := []models.Answer{}
	for i := 0; i+1 < len(pairs); i += 2 {
		a := models.Answer{QuestionID: pairs[i].(string)}
		switch v := pairs[i+1].(type) {
		case string:
			a.Value = models.StringValue(v)
		case []string:
			a.Value = models.StringsValue(v)
		case float64:
			a.Value = models.NumberValue(v)
		}
		out = append(out, a)
	}
	return out
}

func TestAggregateCountsListElements(t *testing.T) {
	q := models.Question{ID: "q1", Type: models.QuestionCheckbox, Text: "Pick"}
	rs := []*models.Response{
		{Answers: answers("q1", []string{"red", "blue"})},
		{Answers: answers("q1", "red")},
		{Answers: answers("q1", nil)},
		{Answers: answers("other", "x")},
	}
	got := Aggregate(q, rs)
	want := []AnswerCount{{"red", 2}, {"blue", 1}, {NoneBucket, 1}}
	if !reflect.DeepEqual(got.Counts, want) {
		t.Fatalf("counts = %+v, want %+v", got.Counts, want)
	}
	if got.Total != 3 {
		t.Fatalf("total = %d, want 3", got.Total)
	}
}

func TestAggregateScaleEnumeratesRange(t *testing.T) {
	q := models.Question{ID: "s", Type: models.QuestionScale, Scale: &models.ScaleRange{Min: 1, Max: 3}}
	got := Aggregate(q, []*models.Response{{Answers: answers("s", 2.0)}, {Answers: answers("s", 2.0)}})
	want := []AnswerCount{{"1", 0}, {"2", 2}, {"3", 0}}
	if !reflect.DeepEqual(got.Counts, want) {
		t.Fatalf("counts = %+v, want %+v", got.Counts, want)
	}

	def := Aggregate(models.Question{ID: "s", Type: models.QuestionScale}, nil)
	if len(def.Counts) != 5 || def.Counts[0].Value != "1" || def.Counts[4].Value != "5" {
		t.Fatalf("default scale counts = %+v", def.Counts)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(models.Question{ID: "q", Type: models.QuestionText}, nil)
	if got.Counts == nil || len(got.Counts) != 0 || got.Total != 0 {
		t.Fatalf("unexpected aggregate: %+v", got)
	}
}

func TestStatsPositionalFallbackAndTimeseries(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) {
		sv.Questions = []models.Question{
			{ID: "q1", Type: models.QuestionRadio, Text: "One", Order: 0},
			{ID: "q2", Type: models.QuestionText, Text: "Two", Order: 1},
		}
	})
	ctx := context.Background()
	day1 := time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 5, 2, 1, 0, 0, 0, time.UTC)
	_ = store.InsertResponse(ctx, &models.Response{ID: "r1", SurveyID: "S1", CreatedAt: day1, Answers: answers("q1", "yes", "q2", "fine")})
	// legacy answers keyed by something other than the question id
	_ = store.InsertResponse(ctx, &models.Response{ID: "r2", SurveyID: "S1", CreatedAt: day2, Answers: answers("0", "no", "1", "meh")})
	_ = store.InsertResponse(ctx, &models.Response{ID: "r3", SurveyID: "S1", CreatedAt: day2, Answers: answers("q1", "yes")})
	_ = store.InsertResponse(ctx, &models.Response{ID: "d", SurveyID: "S1", CreatedAt: day2, Meta: models.ResponseMeta{Token: "t"}, Answers: answers("q1", "draft")})

	stats, err := NewAnalyticsService(store).Stats(ctx, owner, "S1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalResponses != 3 || len(stats.Questions) != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if want := []AnswerCount{{"yes", 2}, {"no", 1}}; !reflect.DeepEqual(stats.Questions[0].Counts, want) {
		t.Fatalf("q1 counts = %+v, want %+v", stats.Questions[0].Counts, want)
	}
	if want := []AnswerCount{{"fine", 1}, {"meh", 1}}; !reflect.DeepEqual(stats.Questions[1].Counts, want) {
		t.Fatalf("q2 counts = %+v, want %+v", stats.Questions[1].Counts, want)
	}
	wantSeries := []AnalyticsTimeseries{{"2025-05-01", 1}, {"2025-05-02", 2}}
	if !reflect.DeepEqual(stats.Timeseries, wantSeries) {
		t.Fatalf("timeseries = %+v, want %+v", stats.Timeseries, wantSeries)
	}

	_, err = NewAnalyticsService(store).Stats(ctx, stranger, "S1")
	wantReason(t, err, ErrorForbidden, ReasonForbidden)
}

func TestStatsReadableWhenArchived(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) { sv.Status = models.StatusArchived })
	stats, err := NewAnalyticsService(store).Stats(context.Background(), owner, "S1")
	if err != nil || stats.Status != models.StatusArchived {
		t.Fatalf("Stats = %+v, %v", stats, err)
	}
}
