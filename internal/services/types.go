package services

import (
	"context"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

// Principal is the authenticated caller, nil when anonymous.
type Principal struct {
	ID    string
	Role  string
	Email string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && (p.Role == models.RoleAdmin || p.Role == models.RoleSuperAdmin)
}

func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == models.RoleSuperAdmin
}

// canManage reports whether p may modify sv: its author, a super admin, or any
// admin when the survey has no author.
func canManage(p *Principal, sv *models.Survey) bool {
	if p == nil || sv == nil {
		return false
	}
	if p.IsSuperAdmin() {
		return true
	}
	if sv.Author == "" {
		return p.IsAdmin()
	}
	return sv.Author == p.ID
}

// Recorder receives domain events. metrics.Metrics implements it.
type Recorder interface {
	ResponseSubmitted(surveyID string)
	ResponseRejected(reason string)
	InvitesIssued(n int)
	DraftSaved()
}

type nopRecorder struct{}

func (nopRecorder) ResponseSubmitted(string) {}
func (nopRecorder) ResponseRejected(string)  {}
func (nopRecorder) InvitesIssued(int)        {}
func (nopRecorder) DraftSaved()              {}

type SurveyStore interface {
	InsertSurvey(ctx context.Context, sv *models.Survey) error
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error)
	DeleteSurvey(ctx context.Context, id string) (bool, error)
	// ListSurveys filters by author and status; empty values match everything.
	ListSurveys(ctx context.Context, author, status string) ([]*models.Survey, error)
	DeleteResponsesBySurvey(ctx context.Context, surveyID string) (int, error)
	CountResponses(ctx context.Context, surveyID string) (int, error)
}

type InviteStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	InsertInvite(ctx context.Context, inv *models.Invite) error
	GetInvite(ctx context.Context, token string) (*models.Invite, error)
	ListInvitesBySurvey(ctx context.Context, surveyID string) ([]*models.Invite, error)
}

// ResponseStore backs intake, drafts, listing and export.
//
// SubmitResponse persists r as a final response in one transaction. When
// inviteToken is set it also consumes one use of that invite, guarded by
// uses < maxUses and expiry at now; false means the invite could not be
// consumed and nothing was written. When resumeToken names a draft of the same
// survey, that draft is replaced by r.
type ResponseStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error)
	GetInvite(ctx context.Context, token string) (*models.Invite, error)
	CountResponses(ctx context.Context, surveyID string) (int, error)
	ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error)
	HasResponseFrom(ctx context.Context, surveyID, respondent string) (bool, error)
	HasResponseFromIP(ctx context.Context, surveyID, ip string) (bool, error)
	SubmitResponse(ctx context.Context, r *models.Response, inviteToken, resumeToken string, now time.Time) (bool, error)
	InsertResponse(ctx context.Context, r *models.Response) error
	GetDraft(ctx context.Context, token string) (*models.Response, error)
	UpdateDraftAnswers(ctx context.Context, surveyID, token string, answers []models.Answer, updatedAt time.Time) (bool, error)
}

type QuestionStore interface {
	InsertSavedQuestion(ctx context.Context, q *models.SavedQuestion) error
	GetSavedQuestion(ctx context.Context, id string) (*models.SavedQuestion, error)
	UpdateSavedQuestion(ctx context.Context, q *models.SavedQuestion) (bool, error)
	DeleteSavedQuestion(ctx context.Context, id string) (bool, error)
	ListSavedQuestions(ctx context.Context, author string) ([]*models.SavedQuestion, error)
	ReorderSavedQuestions(ctx context.Context, author string, ids []string, updatedAt time.Time) (int, error)
	IncrementSavedQuestionUsage(ctx context.Context, id string) (bool, error)
}

type AuthStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	AddUser(ctx context.Context, u *models.User) error
}
