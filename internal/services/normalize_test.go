package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
)

func TestNormalizeAnswersShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string // questionId=value
	}{
		{"null", `null`, nil},
		{"list", `[{"questionId": "a", "value": "x"}, {"question": "b", "value": [1, "two"]}]`, []string{"a=x", "b=1, two"}},
		{"list without value", `[{"questionId": "a"}]`, []string{"a="}},
		{"object sorted", `{"z": 2.5, "a": "yes"}`, []string{"a=yes", "z=2.5"}},
	}
	for _, tc := range cases {
		got, err := NormalizeAnswers(json.RawMessage(tc.in))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got == nil {
			t.Fatalf("%s: nil slice", tc.name)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %d answers, want %d", tc.name, len(got), len(tc.want))
		}
		for i, a := range got {
			if s := a.QuestionID + "=" + a.Value.String(); s != tc.want[i] {
				t.Fatalf("%s[%d] = %q, want %q", tc.name, i, s, tc.want[i])
			}
		}
	}
}

func TestNormalizeAnswersRejects(t *testing.T) {
	for _, in := range []string{`"text"`, `42`, `[1, 2]`, `[{"value": "x"}]`, `{"a": {"nested": 1}}`, `[{"questionId": "a", "value": [{}]}]`, `{"a": true}`, `[{"questionId": "a", "value": false}]`} {
		_, err := NormalizeAnswers(json.RawMessage(in))
		if ReasonOf(err) != ReasonValidation {
			t.Fatalf("NormalizeAnswers(%s) err = %v, want validation", in, err)
		}
	}
}

func TestNormalizeAnswersKeepsNull(t *testing.T) {
	got, err := NormalizeAnswers(json.RawMessage(`[{"questionId": "a", "value": null}]`))
	if err != nil {
		t.Fatalf("NormalizeAnswers: %v", err)
	}
	if got[0].Value.Kind != models.ValueNone {
		t.Fatalf("kind = %v, want none", got[0].Value.Kind)
	}
}

func TestNormalizeQuestionsRejects(t *testing.T) {
	cases := []struct{ in, reason string }{
		{`{"a": 1}`, ReasonValidation},
		{`["text"]`, ReasonValidation},
		{`[{"type": "matrix"}]`, ReasonInvalidQuestion},
		{`[{"type": "scale", "scale": {"min": 5, "max": 5}}]`, ReasonValidation},
		{`[{"type": "radio", "options": "a,b"}]`, ReasonValidation},
		{`[{"type": "scale", "scale": {"min": 0, "max": 20000000}}]`, ReasonValidation},
		{`[{"type": "scale", "scale": {"min": -1e19, "max": 3}}]`, ReasonValidation},
		{`[{"type": "scale", "scale": {"min": 0, "max": 101}}]`, ReasonValidation},
		{`[{"id": "q", "text": "A"}, {"id": "q", "text": "B"}]`, ReasonValidation},
	}
	for _, tc := range cases {
		_, err := NormalizeQuestions(json.RawMessage(tc.in))
		if got := ReasonOf(err); got != tc.reason {
			t.Fatalf("NormalizeQuestions(%s) reason = %q, want %q", tc.in, got, tc.reason)
		}
	}
	qs, err := NormalizeQuestions(nil)
	if err != nil || qs != nil {
		t.Fatalf("NormalizeQuestions(nil) = %v, %v", qs, err)
	}
}

func TestNormalizeQuestionsScaleBounds(t *testing.T) {
	qs, err := NormalizeQuestions(json.RawMessage(`[{"type": "scale", "scale": {"min": -50, "max": 50}}]`))
	if err != nil {
		t.Fatalf("NormalizeQuestions: %v", err)
	}
	if sc := qs[0].Scale; sc.Min != -50 || sc.Max != 50 {
		t.Fatalf("scale = %+v", sc)
	}
}

func TestNormalizeQuestionsGeneratedIDsAreUnique(t *testing.T) {
	qs, err := NormalizeQuestions(json.RawMessage(`[{"text": "A"}, {"text": "B"}, {"id": "q", "text": "C"}]`))
	if err != nil {
		t.Fatalf("NormalizeQuestions: %v", err)
	}
	if qs[0].ID == qs[1].ID || qs[2].ID != "q" {
		t.Fatalf("unexpected ids %q %q %q", qs[0].ID, qs[1].ID, qs[2].ID)
	}
}

func TestNormalizeQuestionsDropsOptionsForText(t *testing.T) {
	qs, err := NormalizeQuestions(json.RawMessage(`[{"type": "TEXT", "options": ["a"], "scale": {"min": 0, "max": 3}}]`))
	if err != nil {
		t.Fatalf("NormalizeQuestions: %v", err)
	}
	if qs[0].Type != models.QuestionText || len(qs[0].Options) != 0 || qs[0].Scale != nil {
		t.Fatalf("unexpected question: %+v", qs[0])
	}
}

func TestParseTimestampString(t *testing.T) {
	cases := map[string]time.Time{
		"2025-06-01T10:30:00Z":      time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		"2025-06-01T12:30:00+02:00": time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		"2025-06-01T10:30":          time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		"2025-06-01":                time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseTimestampString(in)
		if err != nil || got == nil || !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("ParseTimestampString(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if got, err := ParseTimestampString("  "); got != nil || err != nil {
		t.Fatalf("blank = %v, %v", got, err)
	}
	if _, err := ParseTimestamp(json.RawMessage(`12`)); ReasonOf(err) != ReasonValidation {
		t.Fatalf("numeric timestamp err = %v", err)
	}
}
