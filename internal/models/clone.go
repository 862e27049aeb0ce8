package models

import "time"

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneOptions(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	return append([]Option(nil), opts...)
}

func cloneScale(sc *ScaleRange) *ScaleRange {
	if sc == nil {
		return nil
	}
	c := *sc
	return &c
}

// Clone deep-copies the survey so stores never hand out shared state.
func (s *Survey) Clone() *Survey {
	if s == nil {
		return nil
	}
	c := *s
	c.ValidFrom = cloneTime(s.ValidFrom)
	c.ValidUntil = cloneTime(s.ValidUntil)
	c.PublishedAt = cloneTime(s.PublishedAt)
	if s.Questions != nil {
		c.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			q.Options = cloneOptions(q.Options)
			q.Scale = cloneScale(q.Scale)
			c.Questions[i] = q
		}
	}
	return &c
}

// CloneAnswers deep-copies an answer list.
func CloneAnswers(in []Answer) []Answer {
	if in == nil {
		return nil
	}
	out := make([]Answer, len(in))
	for i, a := range in {
		out[i] = Answer{QuestionID: a.QuestionID, Value: a.Value.Clone()}
	}
	return out
}

func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Answers = CloneAnswers(r.Answers)
	c.Meta.UpdatedAt = cloneTime(r.Meta.UpdatedAt)
	return &c
}

func (i *Invite) Clone() *Invite {
	if i == nil {
		return nil
	}
	c := *i
	c.ExpiresAt = cloneTime(i.ExpiresAt)
	return &c
}

func (q *SavedQuestion) Clone() *SavedQuestion {
	if q == nil {
		return nil
	}
	c := *q
	c.Options = cloneOptions(q.Options)
	c.Scale = cloneScale(q.Scale)
	if q.Tags != nil {
		c.Tags = append([]string(nil), q.Tags...)
	}
	return &c
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PassHash = append([]byte(nil), u.PassHash...)
	return &c
}
