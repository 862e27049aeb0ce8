package services

import (
	"context"
	"strings"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

const maxInviteBatch = 500

type InviteService struct {
	store    InviteStore
	now      func() time.Time
	idGen    func() string
	tokenGen func() (string, error)
	recorder Recorder
}

// InviteRequest describes a batch. A nil MaxUses means single use; 0 means unlimited.
type InviteRequest struct {
	SurveyID  string
	MaxUses   *int
	ExpiresAt *time.Time
	Count     int
}

// InviteCheck is the outcome of Validate. Reason is set when Valid is false.
type InviteCheck struct {
	Valid  bool
	Reason string
	Invite *models.Invite
}

type InviteView struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	SurveyID  string     `json:"surveyId"`
	Creator   string     `json:"creator,omitempty"`
	Uses      int        `json:"uses"`
	MaxUses   int        `json:"maxUses"`
	ExpiresAt *time.Time `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewInviteView(inv *models.Invite) InviteView {
	return InviteView{
		ID:        inv.ID,
		Token:     inv.Token,
		SurveyID:  inv.SurveyID,
		Creator:   inv.Creator,
		Uses:      inv.Uses,
		MaxUses:   inv.MaxUses,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

func NewInviteService(store InviteStore) *InviteService {
	return &InviteService{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    newULID,
		tokenGen: randomToken,
		recorder: nopRecorder{},
	}
}

func (s *InviteService) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// Create issues req.Count independent invites. Tokens are persisted one by one;
// on a storage failure the invites created so far are returned with the error.
func (s *InviteService) Create(ctx context.Context, p *Principal, req InviteRequest) ([]*models.Invite, error) {
	if p == nil {
		return nil, NewUnauthorizedError(ReasonUnauthenticated, "authentication required")
	}
	req.SurveyID = strings.TrimSpace(req.SurveyID)
	if req.SurveyID == "" {
		return nil, NewInvalidError("surveyId required")
	}
	maxUses := 1
	if req.MaxUses != nil {
		maxUses = *req.MaxUses
	}
	if maxUses < 0 {
		return nil, NewInvalidError("maxUses must not be negative")
	}
	count := req.Count
	if count < 0 {
		return nil, NewInvalidError("count must not be negative")
	}
	if count == 0 {
		count = 1
	}
	if count > maxInviteBatch {
		count = maxInviteBatch
	}
	sv, err := s.store.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, errSurveyNotFound
	}
	if !canManage(p, sv) {
		return nil, NewForbiddenError("not the survey owner")
	}
	now := s.now()
	created := make([]*models.Invite, 0, count)
	defer func() { s.recorder.InvitesIssued(len(created)) }()
	for i := 0; i < count; i++ {
		token, err := s.tokenGen()
		if err != nil {
			return created, err
		}
		inv := &models.Invite{
			ID:        s.idGen(),
			Token:     token,
			SurveyID:  sv.ID,
			Creator:   p.ID,
			MaxUses:   maxUses,
			ExpiresAt: req.ExpiresAt,
			CreatedAt: now,
		}
		if err := s.store.InsertInvite(ctx, inv); err != nil {
			return created, err
		}
		created = append(created, inv)
	}
	return created, nil
}

// Validate is read-only; consumption happens inside SubmitResponse.
func (s *InviteService) Validate(ctx context.Context, token string) (*InviteCheck, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return &InviteCheck{Reason: ReasonInvalidInvite}, nil
	}
	inv, err := s.store.GetInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	return checkInvite(inv, s.now()), nil
}

func checkInvite(inv *models.Invite, now time.Time) *InviteCheck {
	switch {
	case inv == nil:
		return &InviteCheck{Reason: ReasonInvalidInvite}
	case inv.Expired(now):
		return &InviteCheck{Reason: ReasonInviteExpired, Invite: inv}
	case inv.Exhausted():
		return &InviteCheck{Reason: ReasonInviteExhausted, Invite: inv}
	}
	return &InviteCheck{Valid: true, Invite: inv}
}

func (s *InviteService) ListBySurvey(ctx context.Context, p *Principal, surveyID string) ([]*models.Invite, error) {
	if p == nil {
		return nil, NewUnauthorizedError(ReasonUnauthenticated, "authentication required")
	}
	sv, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, errSurveyNotFound
	}
	if !canManage(p, sv) {
		return nil, NewForbiddenError("not the survey owner")
	}
	return s.store.ListInvitesBySurvey(ctx, surveyID)
}
