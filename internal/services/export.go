package services

import (
	"bytes"
	"sort"
	"strings"

	"github.com/surveyor-app/surveyor/internal/models"
)

// orderedQuestions returns the survey questions sorted by Order, ties kept in array order.
func orderedQuestions(sv *models.Survey) []models.Question {
	qs := append([]models.Question(nil), sv.Questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs
}

// ExportResponsesCSV renders one header row of question texts and one row per
// response. Cells are separated by ';'. Data cells are always quoted; header
// cells only when they contain a separator, quote or line break.
func ExportResponsesCSV(questions []models.Question, responses []*models.Response) []byte {
	buf := &bytes.Buffer{}
	for i, q := range questions {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteString(headerCell(q.Text))
	}
	buf.WriteByte('\n')
	for _, r := range responses {
		byID := make(map[string]models.AnswerValue, len(r.Answers))
		for _, a := range r.Answers {
			byID[a.QuestionID] = a.Value
		}
		for i, q := range questions {
			if i > 0 {
				buf.WriteByte(';')
			}
			buf.WriteString(quoteCell(byID[q.ID].String()))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func headerCell(s string) string {
	if strings.ContainsAny(s, ";\"\r\n") {
		return quoteCell(s)
	}
	return s
}
