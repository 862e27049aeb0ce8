package models

import "time"

// Survey statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"
	StatusArchived  = "archived"
)

// Question types.
const (
	QuestionText     = "text"
	QuestionTextarea = "textarea"
	QuestionRadio    = "radio"
	QuestionCheckbox = "checkbox"
	QuestionSelect   = "select"
	QuestionScale    = "scale"
)

// User roles.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// IsQuestionType reports whether t is one of the supported question types.
func IsQuestionType(t string) bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionRadio, QuestionCheckbox, QuestionSelect, QuestionScale:
		return true
	}
	return false
}

// HasOptions reports whether questions of type t carry a choice list.
func HasOptions(t string) bool {
	return t == QuestionRadio || t == QuestionCheckbox || t == QuestionSelect
}

// Survey is a titled, ordered set of questions with a publication lifecycle.
type Survey struct {
	ID             string
	Title          string
	Description    string
	Author         string // empty for legacy anonymous surveys
	Status         string
	AllowAnonymous bool
	SingleResponse bool
	MaxResponses   int // 0 = unlimited
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Questions      []Question
	CreatedAt      time.Time
	PublishedAt    *time.Time
}

// Option is a choice label of a question.
type Option struct {
	Text string `json:"text"`
}

// ScaleRange bounds a scale question.
type ScaleRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Question is embedded in a Survey.
type Question struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Text     string      `json:"text"`
	Required bool        `json:"required"`
	Options  []Option    `json:"options"`
	Scale    *ScaleRange `json:"scale,omitempty"`
	ImageURL string      `json:"imageUrl,omitempty"`
	Order    int         `json:"order"`
}

// Answer binds a value to a question id.
type Answer struct {
	QuestionID string      `json:"questionId"`
	Value      AnswerValue `json:"value"`
}

// ResponseMeta captures request metadata. A non-empty Token marks a draft.
type ResponseMeta struct {
	IP        string     `json:"ip,omitempty"`
	UserAgent string     `json:"userAgent,omitempty"`
	Token     string     `json:"token,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Response is one respondent's set of answers for a survey.
type Response struct {
	ID         string
	SurveyID   string
	Respondent string
	Answers    []Answer
	CreatedAt  time.Time
	Meta       ResponseMeta
}

// IsDraft reports whether the response is an unfinalized draft.
func (r *Response) IsDraft() bool { return r != nil && r.Meta.Token != "" }

// Invite is a capability token granting bounded access to submit a response.
type Invite struct {
	ID        string
	Token     string
	SurveyID  string
	Creator   string
	Uses      int
	MaxUses   int // 0 = unlimited
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the invite is past its expiry at now.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// Exhausted reports whether the invite has no uses left.
func (i *Invite) Exhausted() bool {
	return i.MaxUses > 0 && i.Uses >= i.MaxUses
}

// SavedQuestion is an author-owned library entry.
type SavedQuestion struct {
	ID         string
	Author     string
	Title      string
	Type       string
	Required   bool
	Options    []Option
	Scale      *ScaleRange
	ImageURL   string
	IsFavorite bool
	Category   string
	Tags       []string
	UsageCount int
	Order      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// User is an authenticated principal.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}
