package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/models"
)

type recordingRecorder struct {
	submitted int
	rejected  []string
	issued    int
	drafts    int
}

func (r *recordingRecorder) ResponseSubmitted(string)  { r.submitted++ }
func (r *recordingRecorder) ResponseRejected(s string) { r.rejected = append(r.rejected, s) }
func (r *recordingRecorder) InvitesIssued(n int)       { r.issued += n }
func (r *recordingRecorder) DraftSaved()               { r.drafts++ }

func newResponseService(store ResponseStore) (*ResponseService, *recordingRecorder) {
	svc := NewResponseService(store)
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.idGen = func() string { n++; return fmt.Sprintf("R%d", n) }
	t := 0
	svc.tokenGen = func() (string, error) { t++; return fmt.Sprintf("resume-%d", t), nil }
	rec := &recordingRecorder{}
	svc.SetRecorder(rec)
	return svc, rec
}

func seedSurvey(t *testing.T, store *db.MemoryStore, mutate func(sv *models.Survey)) *models.Survey {
	t.Helper()
	sv := &models.Survey{
		ID:        "S1",
		Title:     "Survey",
		Author:    owner.ID,
		Status:    models.StatusPublished,
		CreatedAt: fixedNow.Add(-24 * time.Hour),
		Questions: []models.Question{{ID: "q1", Type: models.QuestionText, Text: "Q1"}},
	}
	if mutate != nil {
		mutate(sv)
	}
	if err := store.InsertSurvey(context.Background(), sv); err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	return sv
}

var oneAnswer = json.RawMessage(`[{"questionId": "q1", "value": "hi"}]`)

func TestSubmitAcceptsBothAnswerShapes(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, nil)
	svc, rec := newResponseService(store)
	ctx := context.Background()

	r, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: json.RawMessage(`{"q1": ["a", "b"]}`), IP: "1.2.3.4", UserAgent: "ua"})
	if err != nil {
		t.Fatalf("Submit keyed object: %v", err)
	}
	if len(r.Answers) != 1 || r.Answers[0].QuestionID != "q1" || r.Answers[0].Value.String() != "a, b" {
		t.Fatalf("unexpected answers: %+v", r.Answers)
	}
	if r.Meta.IP != "1.2.3.4" || r.Meta.UserAgent != "ua" {
		t.Fatalf("meta not captured: %+v", r.Meta)
	}
	r, err = svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: json.RawMessage(`[{"question": "q1", "value": 3}]`), Principal: stranger})
	if err != nil {
		t.Fatalf("Submit list: %v", err)
	}
	if r.Respondent != stranger.ID || r.Answers[0].Value.Kind != models.ValueNumber {
		t.Fatalf("unexpected response: %+v", r)
	}
	_, err = svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: json.RawMessage(`"nope"`)})
	wantReason(t, err, ErrorInvalid, ReasonValidation)
	if rec.submitted != 2 {
		t.Fatalf("submitted = %d, want 2", rec.submitted)
	}
}

func TestSubmitEligibilityOrder(t *testing.T) {
	ctx := context.Background()
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)
	cases := []struct {
		name   string
		mutate func(sv *models.Survey)
		req    SubmitRequest
		code   ErrorCode
		reason string
	}{
		{"missing survey", nil, SubmitRequest{SurveyID: "other"}, ErrorNotFound, ReasonSurveyNotFound},
		{"expired", func(sv *models.Survey) { sv.ValidUntil = &past }, SubmitRequest{}, ErrorState, ReasonSurveyExpired},
		{"not yet active", func(sv *models.Survey) { sv.ValidFrom = &future }, SubmitRequest{}, ErrorState, ReasonSurveyNotActive},
		{"draft", func(sv *models.Survey) { sv.Status = models.StatusDraft }, SubmitRequest{}, ErrorState, ReasonSurveyNotPublished},
		{"archived", func(sv *models.Survey) { sv.Status = models.StatusArchived }, SubmitRequest{}, ErrorState, ReasonSurveyNotPublished},
		{"unknown invite", nil, SubmitRequest{InviteToken: "ghost"}, ErrorState, ReasonInvalidInvite},
		{"author", nil, SubmitRequest{Principal: owner}, ErrorState, ReasonAuthorCannotAnswer},
		{"expired beats not published", func(sv *models.Survey) {
			sv.ValidUntil = &past
			sv.Status = models.StatusDraft
		}, SubmitRequest{}, ErrorState, ReasonSurveyExpired},
	}
	for _, tc := range cases {
		store := db.NewMemoryStore()
		seedSurvey(t, store, tc.mutate)
		svc, rec := newResponseService(store)
		if tc.req.SurveyID == "" {
			tc.req.SurveyID = "S1"
		}
		tc.req.Answers = oneAnswer
		_, err := svc.Submit(ctx, tc.req)
		se, ok := AsServiceError(err)
		if !ok || se.Code != tc.code || se.Reason != tc.reason {
			t.Fatalf("%s: got %v, want %s/%s", tc.name, err, tc.code, tc.reason)
		}
		if n, _ := store.CountResponses(ctx, "S1"); n != 0 {
			t.Fatalf("%s: rejected submission persisted", tc.name)
		}
		if len(rec.rejected) != 1 || rec.rejected[0] != tc.reason {
			t.Fatalf("%s: recorder saw %v", tc.name, rec.rejected)
		}
	}
}

func TestSubmitExpiryClosesSurvey(t *testing.T) {
	store := db.NewMemoryStore()
	past := fixedNow.Add(-time.Minute)
	seedSurvey(t, store, func(sv *models.Survey) { sv.ValidUntil = &past })
	svc, _ := newResponseService(store)
	_, _ = svc.Submit(context.Background(), SubmitRequest{SurveyID: "S1", Answers: oneAnswer})
	sv, _ := store.GetSurvey(context.Background(), "S1")
	if sv.Status != models.StatusClosed {
		t.Fatalf("status = %s, want closed", sv.Status)
	}
}

func TestSubmitResponseLimit(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) { sv.MaxResponses = 2 })
	svc, _ := newResponseService(store)
	ctx := context.Background()
	if _, err := svc.SaveDraft(ctx, DraftRequest{SurveyID: "S1", Answers: oneAnswer}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer}); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	_, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer})
	wantReason(t, err, ErrorState, ReasonResponseLimit)
}

func TestSubmitWithInvite(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) { sv.SingleResponse = true })
	seedSurvey(t, store, func(sv *models.Survey) { sv.ID = "S2" })
	ctx := context.Background()
	past := fixedNow.Add(-time.Hour)
	_ = store.InsertInvite(ctx, &models.Invite{ID: "I1", Token: "single", SurveyID: "S1", MaxUses: 1, CreatedAt: past})
	_ = store.InsertInvite(ctx, &models.Invite{ID: "I2", Token: "stale", SurveyID: "S1", MaxUses: 5, ExpiresAt: &past, CreatedAt: past})
	_ = store.InsertInvite(ctx, &models.Invite{ID: "I3", Token: "elsewhere", SurveyID: "S2", MaxUses: 1, CreatedAt: past})
	svc, _ := newResponseService(store)

	_, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer})
	wantReason(t, err, ErrorState, ReasonInviteRequired)

	if _, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, InviteToken: "single"}); err != nil {
		t.Fatalf("first invite use: %v", err)
	}
	_, err = svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, InviteToken: "single"})
	wantReason(t, err, ErrorState, ReasonInviteExhausted)
	_, err = svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, InviteToken: "stale"})
	wantReason(t, err, ErrorState, ReasonInviteExpired)
	_, err = svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, InviteToken: "elsewhere"})
	wantReason(t, err, ErrorState, ReasonInviteMismatch)

	inv, _ := store.GetInvite(ctx, "single")
	if inv.Uses != 1 {
		t.Fatalf("uses = %d, want 1", inv.Uses)
	}
}

// raceStore reports the invite as fresh on lookup even though the atomic
// consume refuses it, as happens when a concurrent submission wins.
type raceStore struct {
	*db.MemoryStore
}

func (raceStore) SubmitResponse(context.Context, *models.Response, string, string, time.Time) (bool, error) {
	return false, nil
}

func TestSubmitLosingInviteRaceIsExhausted(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, nil)
	_ = store.InsertInvite(context.Background(), &models.Invite{ID: "I1", Token: "tok", SurveyID: "S1", MaxUses: 1, CreatedAt: fixedNow})
	svc, rec := newResponseService(raceStore{store})
	_, err := svc.Submit(context.Background(), SubmitRequest{SurveyID: "S1", Answers: oneAnswer, InviteToken: "tok"})
	wantReason(t, err, ErrorState, ReasonInviteExhausted)
	if rec.submitted != 0 {
		t.Fatalf("lost race counted as submitted")
	}
}

func TestSingleResponseIdentityRules(t *testing.T) {
	ctx := context.Background()

	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) { sv.SingleResponse = true })
	svc, _ := newResponseService(store)
	if _, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, Principal: stranger}); err != nil {
		t.Fatalf("first principal submission: %v", err)
	}
	_, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, Principal: stranger})
	wantReason(t, err, ErrorState, ReasonSingleResponse)

	anon := db.NewMemoryStore()
	seedSurvey(t, anon, func(sv *models.Survey) {
		sv.SingleResponse = true
		sv.AllowAnonymous = true
	})
	svc, _ = newResponseService(anon)
	if _, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, IP: "9.9.9.9"}); err != nil {
		t.Fatalf("first anonymous submission: %v", err)
	}
	_, err = svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, IP: "9.9.9.9"})
	wantReason(t, err, ErrorState, ReasonDuplicateAnonymous)
	if _, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, IP: "8.8.8.8"}); err != nil {
		t.Fatalf("other address rejected: %v", err)
	}
}

func TestDraftSaveResumeOverwrite(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, func(sv *models.Survey) { sv.Status = models.StatusDraft })
	svc, rec := newResponseService(store)
	ctx := context.Background()

	token, err := svc.SaveDraft(ctx, DraftRequest{SurveyID: "S1", Answers: json.RawMessage(`{"q1": "first"}`)})
	if err != nil || token == "" {
		t.Fatalf("SaveDraft = %q, %v", token, err)
	}
	view, err := svc.ResumeDraft(ctx, token)
	if err != nil || view.SurveyID != "S1" || view.Answers[0].Value.String() != "first" {
		t.Fatalf("ResumeDraft = %+v, %v", view, err)
	}
	again, err := svc.SaveDraft(ctx, DraftRequest{SurveyID: "S1", Answers: json.RawMessage(`{"q1": "second"}`), ResumeToken: token})
	if err != nil || again != token {
		t.Fatalf("resave = %q, %v; want same token", again, err)
	}
	view, _ = svc.ResumeDraft(ctx, token)
	if len(view.Answers) != 1 || view.Answers[0].Value.String() != "second" {
		t.Fatalf("draft not overwritten: %+v", view.Answers)
	}
	fresh, _ := svc.SaveDraft(ctx, DraftRequest{SurveyID: "S1", Answers: oneAnswer, ResumeToken: "unknown"})
	if fresh == token || fresh == "unknown" {
		t.Fatalf("unknown token reused: %q", fresh)
	}
	if rec.drafts != 3 {
		t.Fatalf("drafts = %d, want 3", rec.drafts)
	}
	_, err = svc.ResumeDraft(ctx, "missing")
	wantReason(t, err, ErrorNotFound, ReasonDraftNotFound)
}

func TestSubmitFinalizesDraft(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, nil)
	svc, _ := newResponseService(store)
	ctx := context.Background()
	token, _ := svc.SaveDraft(ctx, DraftRequest{SurveyID: "S1", Answers: oneAnswer})
	if _, err := svc.Submit(ctx, SubmitRequest{SurveyID: "S1", Answers: oneAnswer, ResumeToken: token}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err := svc.ResumeDraft(ctx, token)
	wantReason(t, err, ErrorNotFound, ReasonDraftNotFound)
	rs, _ := svc.List(ctx, owner, "S1")
	if len(rs) != 1 || rs[0].IsDraft() {
		t.Fatalf("unexpected responses after finalize: %+v", rs)
	}
}

func TestListResponsesRequiresOwner(t *testing.T) {
	store := db.NewMemoryStore()
	seedSurvey(t, store, nil)
	svc, _ := newResponseService(store)
	ctx := context.Background()
	_, err := svc.List(ctx, nil, "S1")
	wantReason(t, err, ErrorUnauthorized, ReasonUnauthenticated)
	_, err = svc.List(ctx, stranger, "S1")
	wantReason(t, err, ErrorForbidden, ReasonForbidden)
}
