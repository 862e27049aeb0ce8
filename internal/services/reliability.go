package services

import (
	"strconv"
	"strings"

	"github.com/surveyor-app/surveyor/internal/models"
)

// ScaleReliability is Cronbach's alpha over a survey's scale questions,
// computed from responses that answered every one of them.
type ScaleReliability struct {
	Alpha       float64 `json:"alpha"`
	Items       int     `json:"items"`
	Respondents int     `json:"respondents"`
}

// scaleReliability needs at least two scale questions and two complete
// responses; otherwise it returns nil.
func scaleReliability(questions []models.Question, responses []*models.Response) *ScaleReliability {
	var items []int
	for i, q := range questions {
		if q.Type == models.QuestionScale {
			items = append(items, i)
		}
	}
	if len(items) < 2 {
		return nil
	}
	rows := make([][]float64, 0, len(responses))
	for _, r := range responses {
		row := make([]float64, 0, len(items))
		for _, pos := range items {
			a, ok := answerFor(r, questions[pos].ID, pos, len(questions))
			if !ok {
				break
			}
			n, ok := numericAnswer(a.Value)
			if !ok {
				break
			}
			row = append(row, n)
		}
		if len(row) == len(items) {
			rows = append(rows, row)
		}
	}
	alpha, ok := CronbachAlpha(rows)
	if !ok {
		return nil
	}
	return &ScaleReliability{Alpha: alpha, Items: len(items), Respondents: len(rows)}
}

func numericAnswer(v models.AnswerValue) (float64, bool) {
	switch v.Kind {
	case models.ValueNumber:
		return v.Num, true
	case models.ValueString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return n, err == nil
	}
	return 0, false
}

// CronbachAlpha computes alpha for rows shaped [respondent][item] using
// population variance, clamped to [0,1]. ok is false for fewer than two
// items or respondents, ragged rows, or zero total variance.
func CronbachAlpha(rows [][]float64) (alpha float64, ok bool) {
	n := len(rows)
	if n < 2 {
		return 0, false
	}
	k := len(rows[0])
	if k < 2 {
		return 0, false
	}
	totals := make([]float64, n)
	var itemVarSum float64
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i, row := range rows {
			if len(row) != k {
				return 0, false
			}
			col[i] = row[j]
			totals[i] += row[j]
		}
		itemVarSum += variance(col)
	}
	totalVar := variance(totals)
	if totalVar == 0 {
		return 0, false
	}
	kf := float64(k)
	alpha = kf / (kf - 1) * (1 - itemVarSum/totalVar)
	switch {
	case alpha < 0:
		alpha = 0
	case alpha > 1:
		alpha = 1
	}
	return alpha, true
}

func variance(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
