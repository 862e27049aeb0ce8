package services

import (
	"context"
	"testing"
	"time"

	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/models"
)

func TestExportResponsesCSV(t *testing.T) {
	questions := []models.Question{{ID: "q1", Text: "Q1"}, {ID: "q2", Text: "Q2"}}
	responses := []*models.Response{{Answers: []models.Answer{
		{QuestionID: "q1", Value: models.StringValue("A")},
		{QuestionID: "q2", Value: models.StringsValue([]string{"X", "Y"})},
	}}}
	got := string(ExportResponsesCSV(questions, responses))
	want := "Q1;Q2\n\"A\";\"X, Y\"\n"
	if got != want {
		t.Fatalf("csv = %q, want %q", got, want)
	}
}

func TestExportResponsesCSVQuoting(t *testing.T) {
	questions := []models.Question{{ID: "q1", Text: `Say "hi"; now`}, {ID: "q2", Text: "Plain"}}
	responses := []*models.Response{
		{Answers: []models.Answer{{QuestionID: "q1", Value: models.StringValue(`he said "no"`)}}},
		{Answers: []models.Answer{{QuestionID: "q2", Value: models.NumberValue(4)}}},
	}
	got := string(ExportResponsesCSV(questions, responses))
	want := "\"Say \"\"hi\"\"; now\";Plain\n" +
		"\"he said \"\"no\"\"\";\"\"\n" +
		"\"\";\"4\"\n"
	if got != want {
		t.Fatalf("csv = %q, want %q", got, want)
	}
}

func TestExportResponsesCSVHeaderOnly(t *testing.T) {
	got := string(ExportResponsesCSV([]models.Question{{ID: "q1", Text: "Only"}}, nil))
	if got != "Only\n" {
		t.Fatalf("csv = %q", got)
	}
}

func TestExportServiceOrdersQuestions(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) {
		sv.Questions = []models.Question{
			{ID: "b", Text: "Second", Order: 1},
			{ID: "a", Text: "First", Order: 0},
		}
	})
	ctx := context.Background()
	_ = store.InsertResponse(ctx, &models.Response{ID: "r1", SurveyID: "S1", CreatedAt: fixedNow, Answers: []models.Answer{
		{QuestionID: "b", Value: models.StringValue("two")},
		{QuestionID: "a", Value: models.StringValue("one")},
	}})
	_ = store.InsertResponse(ctx, &models.Response{ID: "d1", SurveyID: "S1", CreatedAt: fixedNow.Add(time.Hour), Meta: models.ResponseMeta{Token: "draft"}})

	svc := NewExportService(store)
	res, err := svc.ExportCSV(ctx, owner, "S1")
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if res.Filename != "survey_S1.csv" || res.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected result meta: %+v", res)
	}
	if got, want := string(res.Data), "First;Second\n\"one\";\"two\"\n"; got != want {
		t.Fatalf("csv = %q, want %q", got, want)
	}
	_, err = svc.ExportCSV(ctx, stranger, "S1")
	wantReason(t, err, ErrorForbidden, ReasonForbidden)
}
