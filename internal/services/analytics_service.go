package services

import (
	"context"
	"sort"
	"strconv"

	"github.com/surveyor-app/surveyor/internal/models"
)

// NoneBucket collects answers explicitly submitted as null.
const NoneBucket = "(none)"

type AnalyticsService struct {
	store ResponseStore
}

type AnswerCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type QuestionAggregate struct {
	QuestionID string        `json:"questionId"`
	Text       string        `json:"text"`
	Type       string        `json:"type"`
	Counts     []AnswerCount `json:"counts"`
	Total      int           `json:"total"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SurveyStats struct {
	SurveyID       string                `json:"surveyId"`
	Title          string                `json:"title"`
	Status         string                `json:"status"`
	TotalResponses int                   `json:"totalResponses"`
	Questions      []QuestionAggregate   `json:"questions"`
	Timeseries     []AnalyticsTimeseries `json:"timeseries"`
	Reliability    *ScaleReliability     `json:"reliability,omitempty"`
}

func NewAnalyticsService(store ResponseStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Stats aggregates every question of the survey. Archived surveys stay readable.
func (s *AnalyticsService) Stats(ctx context.Context, p *Principal, surveyID string) (*SurveyStats, error) {
	sv, err := loadManaged(ctx, s.store, p, surveyID)
	if err != nil {
		return nil, err
	}
	rs, err := s.store.ListResponses(ctx, sv.ID)
	if err != nil {
		return nil, err
	}
	questions := orderedQuestions(sv)
	out := &SurveyStats{
		SurveyID:       sv.ID,
		Title:          sv.Title,
		Status:         sv.Status,
		TotalResponses: len(rs),
		Questions:      make([]QuestionAggregate, 0, len(questions)),
	}
	for i, q := range questions {
		out.Questions = append(out.Questions, aggregateAt(q, i, len(questions), rs))
	}
	countsByDay := map[string]int{}
	for _, r := range rs {
		countsByDay[r.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out.Timeseries = buildTimeseries(countsByDay)
	out.Reliability = scaleReliability(questions, rs)
	return out, nil
}

// Aggregate counts distinct answer values for q. List answers contribute one
// count per element. Scale questions always list every value in [min,max].
func Aggregate(q models.Question, responses []*models.Response) QuestionAggregate {
	return aggregateAt(q, -1, 0, responses)
}

// aggregateAt falls back to positional matching when a response has no answer
// for q.ID and carries exactly nq answers. pos < 0 disables the fallback.
func aggregateAt(q models.Question, pos, nq int, responses []*models.Response) QuestionAggregate {
	agg := QuestionAggregate{QuestionID: q.ID, Text: q.Text, Type: q.Type}
	index := map[string]int{}
	add := func(v string) {
		if i, ok := index[v]; ok {
			agg.Counts[i].Count++
			return
		}
		index[v] = len(agg.Counts)
		agg.Counts = append(agg.Counts, AnswerCount{Value: v, Count: 1})
	}
	if q.Type == models.QuestionScale {
		sc := q.Scale
		if sc == nil {
			sc = &models.ScaleRange{Min: defaultScaleMin, Max: defaultScaleMax}
		}
		for n := sc.Min; n <= sc.Max; n++ {
			v := strconv.Itoa(n)
			index[v] = len(agg.Counts)
			agg.Counts = append(agg.Counts, AnswerCount{Value: v})
		}
	}
	for _, r := range responses {
		a, ok := answerFor(r, q.ID, pos, nq)
		if !ok {
			continue
		}
		agg.Total++
		if a.Value.IsNone() {
			add(NoneBucket)
			continue
		}
		for _, part := range a.Value.Parts() {
			add(part)
		}
	}
	if agg.Counts == nil {
		agg.Counts = []AnswerCount{}
	}
	return agg
}

func answerFor(r *models.Response, qid string, pos, nq int) (models.Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == qid {
			return a, true
		}
	}
	if pos >= 0 && len(r.Answers) == nq && pos < len(r.Answers) {
		return r.Answers[pos], true
	}
	return models.Answer{}, false
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
