package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

type SurveyService struct {
	store  SurveyStore
	now    func() time.Time
	idGen  func() string
	logger *slog.Logger
}

// QuestionView is the client shape of a question: options are bare labels.
type QuestionView struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Text     string             `json:"text"`
	Required bool               `json:"required"`
	Options  []string           `json:"options"`
	Scale    *models.ScaleRange `json:"scale,omitempty"`
	ImageURL string             `json:"imageUrl,omitempty"`
	Order    int                `json:"order"`
}

type SurveyView struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Author         string         `json:"author,omitempty"`
	Status         string         `json:"status"`
	AllowAnonymous bool           `json:"allowAnonymous"`
	SingleResponse bool           `json:"singleResponse"`
	MaxResponses   int            `json:"maxResponses"`
	ValidFrom      *time.Time     `json:"validFrom"`
	ValidUntil     *time.Time     `json:"validUntil"`
	Questions      []QuestionView `json:"questions"`
	CreatedAt      time.Time      `json:"createdAt"`
	PublishedAt    *time.Time     `json:"publishedAt"`
}

type SurveyListFilter struct {
	Search string
	Status string
	Sort   string
	Public bool
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		idGen:  func() string { return shortID(12) },
		logger: slog.Default(),
	}
}

// NewSurveyView reshapes a stored survey for clients.
func NewSurveyView(sv *models.Survey) SurveyView {
	v := SurveyView{
		ID:             sv.ID,
		Title:          sv.Title,
		Description:    sv.Description,
		Author:         sv.Author,
		Status:         sv.Status,
		AllowAnonymous: sv.AllowAnonymous,
		SingleResponse: sv.SingleResponse,
		MaxResponses:   sv.MaxResponses,
		ValidFrom:      sv.ValidFrom,
		ValidUntil:     sv.ValidUntil,
		CreatedAt:      sv.CreatedAt,
		PublishedAt:    sv.PublishedAt,
		Questions:      make([]QuestionView, 0, len(sv.Questions)),
	}
	for _, q := range sv.Questions {
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, o.Text)
		}
		v.Questions = append(v.Questions, QuestionView{
			ID:       q.ID,
			Type:     q.Type,
			Text:     q.Text,
			Required: q.Required,
			Options:  opts,
			Scale:    q.Scale,
			ImageURL: q.ImageURL,
			Order:    q.Order,
		})
	}
	return v
}

// applySurveyFields copies the recognised top-level fields present in raw onto sv.
func applySurveyFields(sv *models.Survey, raw map[string]json.RawMessage) error {
	if v, ok := raw["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err != nil || strings.TrimSpace(title) == "" {
			return NewInvalidError("title is required")
		}
		sv.Title = strings.TrimSpace(title)
	}
	if v, ok := raw["description"]; ok && !isNull(v) {
		var d string
		if err := json.Unmarshal(v, &d); err != nil {
			return NewInvalidError("description must be a string")
		}
		sv.Description = d
	}
	for key, dst := range map[string]*bool{"allowAnonymous": &sv.AllowAnonymous, "singleResponse": &sv.SingleResponse} {
		if v, ok := raw[key]; ok && !isNull(v) {
			if err := json.Unmarshal(v, dst); err != nil {
				return NewInvalidError(key + " must be a boolean")
			}
		}
	}
	if v, ok := raw["maxResponses"]; ok {
		n := 0
		if !isNull(v) {
			var f float64
			if err := json.Unmarshal(v, &f); err != nil || f < 0 {
				return NewInvalidError("maxResponses must be a non-negative number")
			}
			if f > math.MaxInt32 {
				return NewInvalidError("maxResponses is too large")
			}
			n = int(f)
		}
		sv.MaxResponses = n
	}
	if v, ok := raw["validFrom"]; ok {
		t, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		sv.ValidFrom = t
	}
	if v, ok := raw["validUntil"]; ok {
		t, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		sv.ValidUntil = t
	}
	if sv.ValidFrom != nil && sv.ValidUntil != nil && !sv.ValidUntil.After(*sv.ValidFrom) {
		return NewInvalidError("validUntil must be after validFrom")
	}
	if v, ok := raw["questions"]; ok {
		qs, err := NormalizeQuestions(v)
		if err != nil {
			return err
		}
		sv.Questions = qs
	}
	return nil
}

func (s *SurveyService) Create(ctx context.Context, p *Principal, raw map[string]json.RawMessage) (*models.Survey, error) {
	if p == nil {
		return nil, NewUnauthorizedError(ReasonUnauthenticated, "authentication required")
	}
	if _, ok := raw["title"]; !ok {
		return nil, NewInvalidError("title is required")
	}
	now := s.now()
	sv := &models.Survey{
		ID:        s.idGen(),
		Author:    p.ID,
		Status:    models.StatusDraft,
		Questions: []models.Question{},
		CreatedAt: now,
	}
	if err := applySurveyFields(sv, raw); err != nil {
		return nil, err
	}
	if v, ok := raw["status"]; ok && !isNull(v) {
		var st string
		_ = json.Unmarshal(v, &st)
		switch st {
		case "", models.StatusDraft:
		case models.StatusPublished:
			sv.Status = models.StatusPublished
			sv.PublishedAt = &now
		default:
			return nil, NewInvalidError("status must be draft or published")
		}
	}
	if err := s.store.InsertSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// Get returns the survey after reconciling its status with the validity window.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, errSurveyNotFound
	}
	reconcileStatus(ctx, s.store, s.logger, sv, s.now())
	return sv, nil
}

// GetVisible is Get for public readers: drafts are reported missing to
// anyone who cannot manage them.
func (s *SurveyService) GetVisible(ctx context.Context, id string, p *Principal) (*models.Survey, error) {
	sv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv.Status == models.StatusDraft && !canManage(p, sv) {
		return nil, errSurveyNotFound
	}
	return sv, nil
}

// reconcileStatus closes a survey whose validUntil has passed. Persistence
// failures are logged and otherwise ignored; the in-memory copy is closed either way.
func reconcileStatus(ctx context.Context, store interface {
	UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error)
}, logger *slog.Logger, sv *models.Survey, now time.Time) bool {
	if sv.ValidUntil == nil || !now.After(*sv.ValidUntil) {
		return false
	}
	if sv.Status == models.StatusClosed || sv.Status == models.StatusArchived {
		return false
	}
	sv.Status = models.StatusClosed
	if _, err := store.UpdateSurvey(ctx, sv); err != nil {
		logger.Warn("survey expiry not persisted", "survey_id", sv.ID, "err", err)
	}
	return true
}

func (s *SurveyService) loadOwned(ctx context.Context, id string, p *Principal) (*models.Survey, error) {
	return loadManaged(ctx, s.store, p, id)
}

func (s *SurveyService) save(ctx context.Context, sv *models.Survey) error {
	ok, err := s.store.UpdateSurvey(ctx, sv)
	if err != nil {
		return err
	}
	if !ok {
		return errSurveyNotFound
	}
	return nil
}

// Update overwrites only the fields present in raw. Status changes go through
// the dedicated transitions and are ignored here.
func (s *SurveyService) Update(ctx context.Context, id string, p *Principal, raw map[string]json.RawMessage) (*models.Survey, error) {
	sv, err := s.loadOwned(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if sv.Status == models.StatusArchived {
		return nil, newError(ErrorForbidden, ReasonSurveyArchived, "survey is archived, unarchive it first")
	}
	if err := applySurveyFields(sv, raw); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *SurveyService) Delete(ctx context.Context, id string, p *Principal) error {
	if _, err := s.loadOwned(ctx, id, p); err != nil {
		return err
	}
	ok, err := s.store.DeleteSurvey(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errSurveyNotFound
	}
	return nil
}

// DeleteResponses removes every response and draft of the survey.
func (s *SurveyService) DeleteResponses(ctx context.Context, id string, p *Principal) (int, error) {
	if _, err := s.loadOwned(ctx, id, p); err != nil {
		return 0, err
	}
	return s.store.DeleteResponsesBySurvey(ctx, id)
}

func (s *SurveyService) Publish(ctx context.Context, id string, p *Principal) (*models.Survey, error) {
	sv, err := s.loadOwned(ctx, id, p)
	if err != nil {
		return nil, err
	}
	switch sv.Status {
	case models.StatusArchived:
		return nil, newError(ErrorForbidden, ReasonSurveyArchived, "survey is archived")
	case models.StatusClosed:
		return nil, NewStateError(ReasonInvalidState, "closed surveys cannot be published")
	}
	now := s.now()
	sv.Status = models.StatusPublished
	sv.PublishedAt = &now
	if err := s.save(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *SurveyService) Close(ctx context.Context, id string, p *Principal) (*models.Survey, error) {
	sv, err := s.loadOwned(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if sv.Status == models.StatusArchived {
		return nil, newError(ErrorForbidden, ReasonSurveyArchived, "survey is archived")
	}
	sv.Status = models.StatusClosed
	if err := s.save(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *SurveyService) Archive(ctx context.Context, id string, p *Principal) (*models.Survey, error) {
	sv, err := s.loadOwned(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if sv.Status == models.StatusArchived {
		return nil, NewStateError(ReasonInvalidState, "survey is already archived")
	}
	sv.Status = models.StatusArchived
	if err := s.save(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// Unarchive restores published when the survey was ever published, else draft.
func (s *SurveyService) Unarchive(ctx context.Context, id string, p *Principal) (*models.Survey, error) {
	sv, err := s.loadOwned(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if sv.Status != models.StatusArchived {
		return nil, NewStateError(ReasonNotArchived, "survey is not archived")
	}
	if sv.PublishedAt != nil {
		sv.Status = models.StatusPublished
	} else {
		sv.Status = models.StatusDraft
	}
	if err := s.save(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// List returns the principal's surveys, or published ones for public listings.
func (s *SurveyService) List(ctx context.Context, p *Principal, f SurveyListFilter) ([]*models.Survey, error) {
	author, status := "", strings.TrimSpace(f.Status)
	if f.Public || p == nil {
		status = models.StatusPublished
	} else {
		author = p.ID
	}
	list, err := s.store.ListSurveys(ctx, author, status)
	if err != nil {
		return nil, err
	}
	now := s.now()
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := list[:0]
	for _, sv := range list {
		if reconcileStatus(ctx, s.store, s.logger, sv, now) && status != "" && sv.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(sv.Title), needle) &&
			!strings.Contains(strings.ToLower(sv.Description), needle) {
			continue
		}
		out = append(out, sv)
	}
	sortSurveys(out, f.Sort)
	return out, nil
}

func sortSurveys(list []*models.Survey, mode string) {
	var less func(a, b *models.Survey) bool
	switch mode {
	case "oldest":
		less = func(a, b *models.Survey) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "alphabetical":
		less = func(a, b *models.Survey) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "alphabetical-desc":
		less = func(a, b *models.Survey) bool { return strings.ToLower(a.Title) > strings.ToLower(b.Title) }
	default:
		less = func(a, b *models.Survey) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}
