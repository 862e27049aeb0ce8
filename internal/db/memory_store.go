package db

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

var (
	ErrDuplicateID    = errors.New("duplicate id")
	ErrDuplicateToken = errors.New("duplicate token")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// MemoryStore keeps every collection in process memory. Values are cloned on
// the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu             sync.RWMutex
	surveys        map[string]*models.Survey
	responses      []*models.Response
	invites        map[string]*models.Invite // by token
	savedQuestions map[string]*models.SavedQuestion
	users          map[string]*models.User // by id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		surveys:        map[string]*models.Survey{},
		invites:        map[string]*models.Invite{},
		savedQuestions: map[string]*models.SavedQuestion{},
		users:          map[string]*models.User{},
	}
}

// --- surveys ---

func (s *MemoryStore) InsertSurvey(_ context.Context, sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return ErrDuplicateID
	}
	s.surveys[sv.ID] = sv.Clone()
	return nil
}

func (s *MemoryStore) GetSurvey(_ context.Context, id string) (*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surveys[id].Clone(), nil
}

func (s *MemoryStore) UpdateSurvey(_ context.Context, sv *models.Survey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; !ok {
		return false, nil
	}
	s.surveys[sv.ID] = sv.Clone()
	return true, nil
}

func (s *MemoryStore) DeleteSurvey(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[id]; !ok {
		return false, nil
	}
	delete(s.surveys, id)
	return true, nil
}

func (s *MemoryStore) ListSurveys(_ context.Context, author, status string) ([]*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		if author != "" && sv.Author != author {
			continue
		}
		if status != "" && sv.Status != status {
			continue
		}
		out = append(out, sv.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- responses ---

func (s *MemoryStore) InsertResponse(_ context.Context, r *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, r.Clone())
	return nil
}

func (s *MemoryStore) SubmitResponse(_ context.Context, r *models.Response, inviteToken, resumeToken string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inviteToken != "" {
		inv, ok := s.invites[inviteToken]
		if !ok || inv.SurveyID != r.SurveyID || inv.Expired(now) || inv.Exhausted() {
			return false, nil
		}
		inv.Uses++
	}
	if resumeToken != "" {
		for i, d := range s.responses {
			if d.Meta.Token == resumeToken && d.SurveyID == r.SurveyID {
				s.responses = append(s.responses[:i], s.responses[i+1:]...)
				break
			}
		}
	}
	s.responses = append(s.responses, r.Clone())
	return true, nil
}

func (s *MemoryStore) ListResponses(_ context.Context, surveyID string) ([]*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Response{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID && !r.IsDraft() {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CountResponses(_ context.Context, surveyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.responses {
		if r.SurveyID == surveyID && !r.IsDraft() {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) HasResponseFrom(_ context.Context, surveyID, respondent string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.SurveyID == surveyID && !r.IsDraft() && r.Respondent == respondent {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) HasResponseFromIP(_ context.Context, surveyID, ip string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.SurveyID == surveyID && !r.IsDraft() && r.Meta.IP == ip {
			return true, nil
		}
	}
	return false, nil
}

// DeleteResponsesBySurvey removes final responses and drafts alike.
func (s *MemoryStore) DeleteResponsesBySurvey(_ context.Context, surveyID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.responses[:0]
	removed := 0
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.responses = kept
	return removed, nil
}

func (s *MemoryStore) GetDraft(_ context.Context, token string) (*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.Meta.Token == token {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateDraftAnswers(_ context.Context, surveyID, token string, answers []models.Answer, updatedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.Meta.Token == token && r.SurveyID == surveyID {
			r.Answers = models.CloneAnswers(answers)
			t := updatedAt
			r.Meta.UpdatedAt = &t
			return true, nil
		}
	}
	return false, nil
}

// --- invites ---

func (s *MemoryStore) InsertInvite(_ context.Context, inv *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invites[inv.Token]; ok {
		return ErrDuplicateToken
	}
	s.invites[inv.Token] = inv.Clone()
	return nil
}

func (s *MemoryStore) GetInvite(_ context.Context, token string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invites[token].Clone(), nil
}

func (s *MemoryStore) ListInvitesBySurvey(_ context.Context, surveyID string) ([]*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Invite{}
	for _, inv := range s.invites {
		if inv.SurveyID == surveyID {
			out = append(out, inv.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- saved questions ---

func (s *MemoryStore) InsertSavedQuestion(_ context.Context, q *models.SavedQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.savedQuestions[q.ID]; ok {
		return ErrDuplicateID
	}
	s.savedQuestions[q.ID] = q.Clone()
	return nil
}

func (s *MemoryStore) GetSavedQuestion(_ context.Context, id string) (*models.SavedQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedQuestions[id].Clone(), nil
}

func (s *MemoryStore) UpdateSavedQuestion(_ context.Context, q *models.SavedQuestion) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.savedQuestions[q.ID]; !ok {
		return false, nil
	}
	s.savedQuestions[q.ID] = q.Clone()
	return true, nil
}

func (s *MemoryStore) DeleteSavedQuestion(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.savedQuestions[id]; !ok {
		return false, nil
	}
	delete(s.savedQuestions, id)
	return true, nil
}

func (s *MemoryStore) ListSavedQuestions(_ context.Context, author string) ([]*models.SavedQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.SavedQuestion{}
	for _, q := range s.savedQuestions {
		if q.Author == author {
			out = append(out, q.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ReorderSavedQuestions(_ context.Context, author string, ids []string, updatedAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i, id := range ids {
		q, ok := s.savedQuestions[strings.TrimSpace(id)]
		if !ok || q.Author != author {
			continue
		}
		q.Order = i
		q.UpdatedAt = updatedAt
		n++
	}
	return n, nil
}

func (s *MemoryStore) IncrementSavedQuestionUsage(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.savedQuestions[id]
	if !ok {
		return false, nil
	}
	q.UsageCount++
	return true, nil
}

// --- users ---

func (s *MemoryStore) AddUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicateID
	}
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id].Clone(), nil
}
