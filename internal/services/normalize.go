package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

const (
	defaultScaleMin = 1
	defaultScaleMax = 5

	// Scale ends stay within ±scaleBound and span at most maxScaleSpan steps,
	// since stats enumerate every value in the range.
	scaleBound   = 1000
	maxScaleSpan = 100
)

var errInvalidQuestionType = &ServiceError{Code: ErrorInvalid, Reason: ReasonInvalidQuestion, Message: "unsupported question type"}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func rawString(m map[string]json.RawMessage, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || isNull(v) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, true
		}
	}
	return "", false
}

func rawBool(m map[string]json.RawMessage, key string) bool {
	var b bool
	if v, ok := m[key]; ok {
		_ = json.Unmarshal(v, &b)
	}
	return b
}

func rawNumber(m map[string]json.RawMessage, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeQuestions converts a client question list into the stored shape.
// Absent or null input yields nil; anything other than a list fails.
func NormalizeQuestions(raw json.RawMessage) ([]models.Question, error) {
	if isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewInvalidError("questions must be a list")
	}
	out := make([]models.Question, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(item, &m); err != nil || m == nil {
			return nil, NewInvalidError(fmt.Sprintf("question %d must be an object", i+1))
		}
		q, err := normalizeQuestion(m, i)
		if err != nil {
			return nil, err
		}
		if seen[q.ID] {
			return nil, NewInvalidError("duplicate question id " + q.ID)
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out, nil
}

func normalizeQuestion(m map[string]json.RawMessage, index int) (models.Question, error) {
	q := models.Question{Order: index}
	if id, ok := rawString(m, "id", "_id"); ok && strings.TrimSpace(id) != "" {
		q.ID = strings.TrimSpace(id)
	} else {
		q.ID = shortID(8)
	}
	qType, _ := rawString(m, "type")
	qType = strings.ToLower(strings.TrimSpace(qType))
	if qType == "" {
		qType = models.QuestionText
	}
	if !models.IsQuestionType(qType) {
		return q, errInvalidQuestionType
	}
	q.Type = qType
	text, _ := rawString(m, "text")
	if strings.TrimSpace(text) == "" {
		text, _ = rawString(m, "title")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = fmt.Sprintf("Question %d", index+1)
	}
	q.Text = text
	q.Required = rawBool(m, "required")
	if img, ok := rawString(m, "imageUrl"); ok {
		q.ImageURL = strings.TrimSpace(img)
	}
	if n, ok := rawNumber(m, "order"); ok {
		q.Order = int(n)
	}
	if models.HasOptions(qType) {
		opts, err := normalizeOptions(m["options"])
		if err != nil {
			return q, err
		}
		q.Options = opts
	}
	if qType == models.QuestionScale {
		sc, err := normalizeScale(m["scale"])
		if err != nil {
			return q, err
		}
		q.Scale = sc
	}
	return q, nil
}

// normalizeOptions accepts bare strings or objects carrying text/label/value.
func normalizeOptions(raw json.RawMessage) ([]models.Option, error) {
	if isNull(raw) {
		return []models.Option{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewInvalidError("options must be a list")
	}
	out := make([]models.Option, 0, len(items))
	for _, item := range items {
		text := optionText(item)
		if text == "" {
			continue
		}
		out = append(out, models.Option{Text: text})
	}
	return out, nil
}

func optionText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err == nil {
		s, _ := rawString(m, "text", "label", "value")
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func normalizeScale(raw json.RawMessage) (*models.ScaleRange, error) {
	sc := &models.ScaleRange{Min: defaultScaleMin, Max: defaultScaleMax}
	if isNull(raw) {
		return sc, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, NewInvalidError("scale must be an object")
	}
	for key, dst := range map[string]*int{"min": &sc.Min, "max": &sc.Max} {
		if n, ok := rawNumber(m, key); ok {
			if n < -scaleBound || n > scaleBound {
				return nil, NewInvalidError(fmt.Sprintf("scale %s must be within ±%d", key, scaleBound))
			}
			*dst = int(n)
		}
	}
	if sc.Min >= sc.Max {
		return nil, NewInvalidError("scale min must be lower than max")
	}
	if sc.Max-sc.Min > maxScaleSpan {
		return nil, NewInvalidError(fmt.Sprintf("scale may span at most %d steps", maxScaleSpan))
	}
	return sc, nil
}

// NormalizeAnswers accepts either [{questionId|question, value}] or an object
// keyed by question id and returns the canonical list form.
func NormalizeAnswers(raw json.RawMessage) ([]models.Answer, error) {
	if isNull(raw) {
		return []models.Answer{}, nil
	}
	switch bytes.TrimSpace(raw)[0] {
	case '[':
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, NewInvalidError("answers must be a list of objects")
		}
		out := make([]models.Answer, 0, len(items))
		for _, it := range items {
			qid, _ := rawString(it, "questionId", "question")
			if strings.TrimSpace(qid) == "" {
				return nil, NewInvalidError("answer questionId required")
			}
			var v models.AnswerValue
			if rv, ok := it["value"]; ok {
				if err := json.Unmarshal(rv, &v); err != nil {
					return nil, NewInvalidError("answer value for " + qid + ": " + err.Error())
				}
			}
			out = append(out, models.Answer{QuestionID: qid, Value: v})
		}
		return out, nil
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, NewInvalidError("answers object is malformed")
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]models.Answer, 0, len(keys))
		for _, k := range keys {
			var v models.AnswerValue
			if err := json.Unmarshal(m[k], &v); err != nil {
				return nil, NewInvalidError("answer value for " + k + ": " + err.Error())
			}
			out = append(out, models.Answer{QuestionID: k, Value: v})
		}
		return out, nil
	}
	return nil, NewInvalidError("answers must be a list or an object keyed by question id")
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ParseTimestamp reads an optional timestamp. Null or "" yields nil.
func ParseTimestamp(raw json.RawMessage) (*time.Time, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, NewInvalidError("timestamp must be a string")
	}
	return ParseTimestampString(s)
}

func ParseTimestampString(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, NewInvalidError("invalid timestamp: " + s)
}
