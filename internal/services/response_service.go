package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

// ResponseService hosts response intake and draft resume.
type ResponseService struct {
	store    ResponseStore
	now      func() time.Time
	idGen    func() string
	tokenGen func() (string, error)
	recorder Recorder
	logger   *slog.Logger
}

// SubmitRequest carries a sanitized submission into the service layer.
type SubmitRequest struct {
	SurveyID    string
	Principal   *Principal
	Answers     json.RawMessage
	InviteToken string
	ResumeToken string
	IP          string
	UserAgent   string
}

// DraftRequest carries a draft save. ResumeToken is optional.
type DraftRequest struct {
	SurveyID    string
	Answers     json.RawMessage
	ResumeToken string
	IP          string
	UserAgent   string
}

type ResponseView struct {
	ID         string              `json:"id"`
	SurveyID   string              `json:"surveyId"`
	Respondent string              `json:"respondent,omitempty"`
	Answers    []models.Answer     `json:"answers"`
	CreatedAt  time.Time           `json:"createdAt"`
	Meta       models.ResponseMeta `json:"meta"`
}

// DraftView is what a resume token unlocks.
type DraftView struct {
	SurveyID    string          `json:"surveyId"`
	ResumeToken string          `json:"resumeToken"`
	Answers     []models.Answer `json:"answers"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

func NewResponseView(r *models.Response) ResponseView {
	answers := r.Answers
	if answers == nil {
		answers = []models.Answer{}
	}
	return ResponseView{
		ID:         r.ID,
		SurveyID:   r.SurveyID,
		Respondent: r.Respondent,
		Answers:    answers,
		CreatedAt:  r.CreatedAt,
		Meta:       r.Meta,
	}
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    newULID,
		tokenGen: randomToken,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
}

func (s *ResponseService) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// Submit validates eligibility in a fixed order and persists the response.
// The first failing rule aborts before anything is written.
func (s *ResponseService) Submit(ctx context.Context, req SubmitRequest) (resp *models.Response, err error) {
	defer func() {
		if reason := ReasonOf(err); reason != "" {
			s.recorder.ResponseRejected(reason)
		}
	}()
	sv, err := s.store.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, errSurveyNotFound
	}
	now := s.now()
	reconcileStatus(ctx, s.store, s.logger, sv, now)
	if sv.ValidUntil != nil && now.After(*sv.ValidUntil) {
		return nil, NewStateError(ReasonSurveyExpired, "survey has expired")
	}
	if sv.ValidFrom != nil && now.Before(*sv.ValidFrom) {
		return nil, NewStateError(ReasonSurveyNotActive, "survey is not active yet")
	}
	if sv.Status != models.StatusPublished {
		return nil, NewStateError(ReasonSurveyNotPublished, "survey is not published")
	}
	if sv.MaxResponses > 0 {
		n, err := s.store.CountResponses(ctx, sv.ID)
		if err != nil {
			return nil, err
		}
		if n >= sv.MaxResponses {
			return nil, NewStateError(ReasonResponseLimit, "response limit reached")
		}
	}
	inviteToken := strings.TrimSpace(req.InviteToken)
	if inviteToken != "" {
		inv, err := s.store.GetInvite(ctx, inviteToken)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			return nil, NewStateError(ReasonInvalidInvite, "invalid invite token")
		}
		if inv.SurveyID != sv.ID {
			return nil, NewStateError(ReasonInviteMismatch, "invite belongs to another survey")
		}
		if inv.Expired(now) {
			return nil, NewStateError(ReasonInviteExpired, "invite has expired")
		}
		if inv.Exhausted() {
			return nil, NewStateError(ReasonInviteExhausted, "invite has no uses left")
		}
	}
	p := req.Principal
	if p != nil && sv.Author != "" && p.ID == sv.Author {
		return nil, NewStateError(ReasonAuthorCannotAnswer, "authors cannot answer their own survey")
	}
	if sv.SingleResponse && inviteToken == "" {
		if err := s.checkSingleResponse(ctx, sv, p, req.IP); err != nil {
			return nil, err
		}
	}
	answers, err := NormalizeAnswers(req.Answers)
	if err != nil {
		return nil, err
	}
	r := &models.Response{
		ID:        s.idGen(),
		SurveyID:  sv.ID,
		Answers:   answers,
		CreatedAt: now,
		Meta:      models.ResponseMeta{IP: req.IP, UserAgent: req.UserAgent},
	}
	if p != nil {
		r.Respondent = p.ID
	}
	ok, err := s.store.SubmitResponse(ctx, r, inviteToken, strings.TrimSpace(req.ResumeToken), now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewStateError(ReasonInviteExhausted, "invite has no uses left")
	}
	s.recorder.ResponseSubmitted(sv.ID)
	return r, nil
}

// checkSingleResponse applies identity rules when no invite is presented:
// authenticated principals answer once, anonymous callers once per IP when
// anonymous access is allowed, otherwise an invite is required.
func (s *ResponseService) checkSingleResponse(ctx context.Context, sv *models.Survey, p *Principal, ip string) error {
	if p != nil {
		dup, err := s.store.HasResponseFrom(ctx, sv.ID, p.ID)
		if err != nil {
			return err
		}
		if dup {
			return NewStateError(ReasonSingleResponse, "you have already answered this survey")
		}
		return nil
	}
	if !sv.AllowAnonymous {
		return NewStateError(ReasonInviteRequired, "an invite is required for this survey")
	}
	if ip == "" {
		return nil
	}
	dup, err := s.store.HasResponseFromIP(ctx, sv.ID, ip)
	if err != nil {
		return err
	}
	if dup {
		return NewStateError(ReasonDuplicateAnonymous, "a response from this address already exists")
	}
	return nil
}

// SaveDraft upserts a draft keyed by its resume token. No eligibility rules apply.
func (s *ResponseService) SaveDraft(ctx context.Context, req DraftRequest) (string, error) {
	sv, err := s.store.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		return "", err
	}
	if sv == nil {
		return "", errSurveyNotFound
	}
	answers, err := NormalizeAnswers(req.Answers)
	if err != nil {
		return "", err
	}
	now := s.now()
	if token := strings.TrimSpace(req.ResumeToken); token != "" {
		ok, err := s.store.UpdateDraftAnswers(ctx, sv.ID, token, answers, now)
		if err != nil {
			return "", err
		}
		if ok {
			s.recorder.DraftSaved()
			return token, nil
		}
	}
	token, err := s.tokenGen()
	if err != nil {
		return "", err
	}
	r := &models.Response{
		ID:        s.idGen(),
		SurveyID:  sv.ID,
		Answers:   answers,
		CreatedAt: now,
		Meta:      models.ResponseMeta{IP: req.IP, UserAgent: req.UserAgent, Token: token, UpdatedAt: &now},
	}
	if err := s.store.InsertResponse(ctx, r); err != nil {
		return "", err
	}
	s.recorder.DraftSaved()
	return token, nil
}

// ResumeDraft returns the stored answers. The token is the only credential.
func (s *ResponseService) ResumeDraft(ctx context.Context, token string) (*DraftView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewNotFoundError(ReasonDraftNotFound, "draft not found")
	}
	r, err := s.store.GetDraft(ctx, token)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError(ReasonDraftNotFound, "draft not found")
	}
	answers := r.Answers
	if answers == nil {
		answers = []models.Answer{}
	}
	return &DraftView{SurveyID: r.SurveyID, ResumeToken: token, Answers: answers, UpdatedAt: r.Meta.UpdatedAt}, nil
}

// List returns finalized responses for the survey owner.
func (s *ResponseService) List(ctx context.Context, p *Principal, surveyID string) ([]*models.Response, error) {
	if _, err := loadManaged(ctx, s.store, p, surveyID); err != nil {
		return nil, err
	}
	return s.store.ListResponses(ctx, surveyID)
}

func loadManaged(ctx context.Context, store interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
}, p *Principal, surveyID string) (*models.Survey, error) {
	if p == nil {
		return nil, NewUnauthorizedError(ReasonUnauthenticated, "authentication required")
	}
	sv, err := store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, errSurveyNotFound
	}
	if !canManage(p, sv) {
		return nil, NewForbiddenError("not the survey owner")
	}
	return sv, nil
}
