package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

// QuestionService manages the per-author saved question library.
type QuestionService struct {
	store QuestionStore
	now   func() time.Time
	idGen func() string
}

type SavedQuestionFilter struct {
	Search   string
	Type     string
	Favorite bool
	Sort     string
}

type SavedQuestionView struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Type       string             `json:"type"`
	Required   bool               `json:"required"`
	Options    []models.Option    `json:"options"`
	Scale      *models.ScaleRange `json:"scale,omitempty"`
	ImageURL   string             `json:"imageUrl,omitempty"`
	IsFavorite bool               `json:"isFavorite"`
	Category   string             `json:"category,omitempty"`
	Tags       []string           `json:"tags"`
	UsageCount int                `json:"usageCount"`
	Order      int                `json:"order"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func NewSavedQuestionView(q *models.SavedQuestion) SavedQuestionView {
	v := SavedQuestionView{
		ID:         q.ID,
		Title:      q.Title,
		Type:       q.Type,
		Required:   q.Required,
		Options:    q.Options,
		Scale:      q.Scale,
		ImageURL:   q.ImageURL,
		IsFavorite: q.IsFavorite,
		Category:   q.Category,
		Tags:       q.Tags,
		UsageCount: q.UsageCount,
		Order:      q.Order,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
	if v.Options == nil {
		v.Options = []models.Option{}
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	return v
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

func requirePrincipal(p *Principal) error {
	if p == nil {
		return NewUnauthorizedError(ReasonUnauthenticated, "authentication required")
	}
	return nil
}

var errQuestionNotFound = NewNotFoundError(ReasonQuestionNotFound, "question not found")

func (s *QuestionService) List(ctx context.Context, p *Principal, f SavedQuestionFilter) ([]*models.SavedQuestion, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	all, err := s.store.ListSavedQuestions(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	qType := strings.TrimSpace(f.Type)
	out := make([]*models.SavedQuestion, 0, len(all))
	for _, q := range all {
		if qType != "" && q.Type != qType {
			continue
		}
		if f.Favorite && !q.IsFavorite {
			continue
		}
		if needle != "" && !savedQuestionMatches(q, needle) {
			continue
		}
		out = append(out, q)
	}
	sortSavedQuestions(out, f.Sort)
	return out, nil
}

func savedQuestionMatches(q *models.SavedQuestion, needle string) bool {
	if strings.Contains(strings.ToLower(q.Title), needle) {
		return true
	}
	for _, o := range q.Options {
		if strings.Contains(strings.ToLower(o.Text), needle) {
			return true
		}
	}
	return false
}

func sortSavedQuestions(list []*models.SavedQuestion, mode string) {
	var less func(a, b *models.SavedQuestion) bool
	switch mode {
	case "oldest":
		less = func(a, b *models.SavedQuestion) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "newest":
		less = func(a, b *models.SavedQuestion) bool { return a.CreatedAt.After(b.CreatedAt) }
	case "alphabetical":
		less = func(a, b *models.SavedQuestion) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "alphabetical-desc":
		less = func(a, b *models.SavedQuestion) bool { return strings.ToLower(a.Title) > strings.ToLower(b.Title) }
	case "favorite":
		less = func(a, b *models.SavedQuestion) bool {
			if a.IsFavorite != b.IsFavorite {
				return a.IsFavorite
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	case "usage":
		less = func(a, b *models.SavedQuestion) bool {
			if a.UsageCount != b.UsageCount {
				return a.UsageCount > b.UsageCount
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		less = func(a, b *models.SavedQuestion) bool {
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}

func (s *QuestionService) Get(ctx context.Context, p *Principal, id string) (*models.SavedQuestion, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	q, err := s.store.GetSavedQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil || q.Author != p.ID {
		return nil, errQuestionNotFound
	}
	return q, nil
}

// Create validates the payload and appends the entry after the author's last one.
func (s *QuestionService) Create(ctx context.Context, p *Principal, raw map[string]json.RawMessage) (*models.SavedQuestion, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	title, _ := rawString(raw, "title", "text")
	if strings.TrimSpace(title) == "" {
		return nil, NewInvalidError("title is required")
	}
	qType, _ := rawString(raw, "type")
	qType = strings.ToLower(strings.TrimSpace(qType))
	if !models.IsQuestionType(qType) {
		return nil, errInvalidQuestionType
	}
	now := s.now()
	q := &models.SavedQuestion{
		ID:        s.idGen(),
		Author:    p.ID,
		Title:     strings.TrimSpace(title),
		Type:      qType,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if v, ok := raw["isFavorite"]; ok {
		_ = json.Unmarshal(v, &q.IsFavorite)
	}
	if err := applySavedQuestionFields(q, raw); err != nil {
		return nil, err
	}
	existing, err := s.store.ListSavedQuestions(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		maxOrder := existing[0].Order
		for _, e := range existing[1:] {
			maxOrder = max(maxOrder, e.Order)
		}
		q.Order = maxOrder + 1
	}
	if err := s.store.InsertSavedQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// applySavedQuestionFields applies the optional fields present in raw. Options
// and scale only survive on the types that use them.
func applySavedQuestionFields(q *models.SavedQuestion, raw map[string]json.RawMessage) error {
	if _, ok := raw["required"]; ok {
		q.Required = rawBool(raw, "required")
	}
	if v, ok := raw["options"]; ok {
		opts, err := normalizeOptions(v)
		if err != nil {
			return err
		}
		q.Options = opts
	}
	if v, ok := raw["scale"]; ok {
		sc, err := normalizeScale(v)
		if err != nil {
			return err
		}
		q.Scale = sc
	}
	if img, ok := raw["imageUrl"]; ok {
		s := ""
		_ = json.Unmarshal(img, &s)
		q.ImageURL = strings.TrimSpace(s)
	}
	if c, ok := rawString(raw, "category"); ok {
		q.Category = strings.TrimSpace(c)
	}
	if v, ok := raw["tags"]; ok {
		var tags []string
		if !isNull(v) {
			if err := json.Unmarshal(v, &tags); err != nil {
				return NewInvalidError("tags must be a list of strings")
			}
		}
		q.Tags = cleanTags(tags)
	}
	if models.HasOptions(q.Type) {
		if q.Options == nil {
			q.Options = []models.Option{}
		}
	} else {
		q.Options = nil
	}
	if q.Type == models.QuestionScale {
		if q.Scale == nil {
			q.Scale = &models.ScaleRange{Min: defaultScaleMin, Max: defaultScaleMax}
		}
	} else {
		q.Scale = nil
	}
	return nil
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Update applies a partial patch to an entry owned by p.
func (s *QuestionService) Update(ctx context.Context, p *Principal, id string, raw map[string]json.RawMessage) (*models.SavedQuestion, error) {
	q, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if _, ok := raw["title"]; ok {
		title, _ := rawString(raw, "title")
		if strings.TrimSpace(title) == "" {
			return nil, NewInvalidError("title is required")
		}
		q.Title = strings.TrimSpace(title)
	}
	if _, ok := raw["type"]; ok {
		qType, _ := rawString(raw, "type")
		qType = strings.ToLower(strings.TrimSpace(qType))
		if !models.IsQuestionType(qType) {
			return nil, errInvalidQuestionType
		}
		q.Type = qType
	}
	if v, ok := raw["isFavorite"]; ok {
		_ = json.Unmarshal(v, &q.IsFavorite)
	}
	if err := applySavedQuestionFields(q, raw); err != nil {
		return nil, err
	}
	q.UpdatedAt = s.now()
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) save(ctx context.Context, q *models.SavedQuestion) error {
	ok, err := s.store.UpdateSavedQuestion(ctx, q)
	if err != nil {
		return err
	}
	if !ok {
		return errQuestionNotFound
	}
	return nil
}

func (s *QuestionService) Delete(ctx context.Context, p *Principal, id string) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteSavedQuestion(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errQuestionNotFound
	}
	return nil
}

func (s *QuestionService) ToggleFavorite(ctx context.Context, p *Principal, id string) (*models.SavedQuestion, error) {
	q, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	q.IsFavorite = !q.IsFavorite
	q.UpdatedAt = s.now()
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Reorder sets order = index for each listed id owned by p; others are skipped.
func (s *QuestionService) Reorder(ctx context.Context, p *Principal, raw json.RawMessage) (int, error) {
	if err := requirePrincipal(p); err != nil {
		return 0, err
	}
	var ids []string
	if isNull(raw) {
		return 0, NewInvalidError("order must be a list of ids")
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return 0, NewInvalidError("order must be a list of ids")
	}
	return s.store.ReorderSavedQuestions(ctx, p.ID, ids, s.now())
}

// MarkUsed bumps the usage counter when the entry is inserted into a survey.
func (s *QuestionService) MarkUsed(ctx context.Context, p *Principal, id string) (*models.SavedQuestion, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	ok, err := s.store.IncrementSavedQuestionUsage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errQuestionNotFound
	}
	return s.Get(ctx, p, id)
}
