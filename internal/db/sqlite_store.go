package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/surveyor-app/surveyor/internal/models"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path. ":memory:"
// yields a private in-memory database pinned to a single connection.
func Open(path string) (*sql.DB, error) {
	if path == ":memory:" {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000&_txlock=immediate", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	s, err := encodeJSON(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func decodeJSON(ns sql.NullString, dst any) error {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dst)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- surveys ---

const surveyColumns = `id, title, description, author, status, allow_anonymous, single_response,
	max_responses, valid_from, valid_until, questions_json, created_at, published_at`

func scanSurvey(row scanner) (*models.Survey, error) {
	var (
		sv                           models.Survey
		allowAnon, single            int
		validFrom, validUntil, pubAt sql.NullString
		questions                    sql.NullString
		createdAt                    string
	)
	if err := row.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Author, &sv.Status, &allowAnon, &single,
		&sv.MaxResponses, &validFrom, &validUntil, &questions, &createdAt, &pubAt); err != nil {
		return nil, err
	}
	sv.AllowAnonymous = allowAnon != 0
	sv.SingleResponse = single != 0
	var err error
	if sv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("survey %s created_at: %w", sv.ID, err)
	}
	if sv.ValidFrom, err = parseNullTime(validFrom); err != nil {
		return nil, fmt.Errorf("survey %s valid_from: %w", sv.ID, err)
	}
	if sv.ValidUntil, err = parseNullTime(validUntil); err != nil {
		return nil, fmt.Errorf("survey %s valid_until: %w", sv.ID, err)
	}
	if sv.PublishedAt, err = parseNullTime(pubAt); err != nil {
		return nil, fmt.Errorf("survey %s published_at: %w", sv.ID, err)
	}
	sv.Questions = []models.Question{}
	if err := decodeJSON(questions, &sv.Questions); err != nil {
		return nil, fmt.Errorf("survey %s questions: %w", sv.ID, err)
	}
	return &sv, nil
}

func surveyArgs(sv *models.Survey) ([]any, error) {
	questions := sv.Questions
	if questions == nil {
		questions = []models.Question{}
	}
	qs, err := encodeJSON(questions)
	if err != nil {
		return nil, err
	}
	return []any{sv.Title, sv.Description, sv.Author, sv.Status, boolToInt(sv.AllowAnonymous), boolToInt(sv.SingleResponse),
		sv.MaxResponses, nullTime(sv.ValidFrom), nullTime(sv.ValidUntil), qs, formatTime(sv.CreatedAt), nullTime(sv.PublishedAt)}, nil
}

func (s *SQLiteStore) InsertSurvey(ctx context.Context, sv *models.Survey) error {
	args, err := surveyArgs(sv)
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO surveys (`+surveyColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		append([]any{sv.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE id = ?`, id)
	sv, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return sv, nil
}

func (s *SQLiteStore) UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error) {
	args, err := surveyArgs(sv)
	if err != nil {
		return false, fmt.Errorf("update survey: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE surveys SET title = ?, description = ?, author = ?, status = ?,
		allow_anonymous = ?, single_response = ?, max_responses = ?, valid_from = ?, valid_until = ?,
		questions_json = ?, created_at = ?, published_at = ? WHERE id = ?`, append(args, sv.ID)...)
	if err != nil {
		return false, fmt.Errorf("update survey: %w", err)
	}
	return affected(res)
}

func (s *SQLiteStore) DeleteSurvey(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete survey: %w", err)
	}
	return affected(res)
}

func (s *SQLiteStore) ListSurveys(ctx context.Context, author, status string) ([]*models.Survey, error) {
	q := `SELECT ` + surveyColumns + ` FROM surveys WHERE 1 = 1`
	var args []any
	if author != "" {
		q += ` AND author = ?`
		args = append(args, author)
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	out := []*models.Survey{}
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("list surveys: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// --- responses ---

const responseColumns = `id, survey_id, respondent, answers_json, created_at, ip, user_agent, resume_token, updated_at`

func scanResponse(row scanner) (*models.Response, error) {
	var (
		r          models.Response
		answers    sql.NullString
		createdAt  string
		token, upd sql.NullString
	)
	if err := row.Scan(&r.ID, &r.SurveyID, &r.Respondent, &answers, &createdAt, &r.Meta.IP, &r.Meta.UserAgent, &token, &upd); err != nil {
		return nil, err
	}
	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("response %s created_at: %w", r.ID, err)
	}
	if r.Meta.UpdatedAt, err = parseNullTime(upd); err != nil {
		return nil, fmt.Errorf("response %s updated_at: %w", r.ID, err)
	}
	r.Meta.Token = token.String
	r.Answers = []models.Answer{}
	if err := decodeJSON(answers, &r.Answers); err != nil {
		return nil, fmt.Errorf("response %s answers: %w", r.ID, err)
	}
	return &r, nil
}

func insertResponse(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, r *models.Response) error {
	answers := r.Answers
	if answers == nil {
		answers = []models.Answer{}
	}
	a, err := encodeJSON(answers)
	if err != nil {
		return err
	}
	token := sql.NullString{String: r.Meta.Token, Valid: r.Meta.Token != ""}
	_, err = exec.ExecContext(ctx, `INSERT INTO responses (`+responseColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		r.ID, r.SurveyID, r.Respondent, a, formatTime(r.CreatedAt), r.Meta.IP, r.Meta.UserAgent, token, nullTime(r.Meta.UpdatedAt))
	return err
}

func (s *SQLiteStore) InsertResponse(ctx context.Context, r *models.Response) error {
	if err := insertResponse(ctx, s.db, r); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// SubmitResponse consumes the invite, drops the resumed draft and inserts r in one transaction.
func (s *SQLiteStore) SubmitResponse(ctx context.Context, r *models.Response, inviteToken, resumeToken string, now time.Time) (ok bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("submit response begin: %w", err)
	}
	defer func() {
		if err != nil || !ok {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			ok, err = false, fmt.Errorf("submit response commit: %w", cerr)
		}
	}()
	if inviteToken != "" {
		res, err := tx.ExecContext(ctx, `UPDATE invites SET uses = uses + 1
			WHERE token = ? AND survey_id = ? AND (max_uses = 0 OR uses < max_uses)
			AND (expires_at IS NULL OR expires_at >= ?)`, inviteToken, r.SurveyID, formatTime(now))
		if err != nil {
			return false, fmt.Errorf("consume invite: %w", err)
		}
		consumed, err := affected(res)
		if err != nil {
			return false, fmt.Errorf("consume invite: %w", err)
		}
		if !consumed {
			return false, nil
		}
	}
	if resumeToken != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE resume_token = ? AND survey_id = ?`, resumeToken, r.SurveyID); err != nil {
			return false, fmt.Errorf("finalize draft: %w", err)
		}
	}
	if err := insertResponse(ctx, tx, r); err != nil {
		return false, fmt.Errorf("insert response: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+responseColumns+` FROM responses
		WHERE survey_id = ? AND resume_token IS NULL ORDER BY created_at ASC, id ASC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	out := []*models.Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("list responses: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountResponses(ctx context.Context, surveyID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses WHERE survey_id = ? AND resume_token IS NULL`, surveyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) HasResponseFrom(ctx context.Context, surveyID, respondent string) (bool, error) {
	ok, err := s.exists(ctx, `SELECT 1 FROM responses WHERE survey_id = ? AND respondent = ? AND resume_token IS NULL LIMIT 1`, surveyID, respondent)
	if err != nil {
		return false, fmt.Errorf("has response from: %w", err)
	}
	return ok, nil
}

func (s *SQLiteStore) HasResponseFromIP(ctx context.Context, surveyID, ip string) (bool, error) {
	ok, err := s.exists(ctx, `SELECT 1 FROM responses WHERE survey_id = ? AND ip = ? AND resume_token IS NULL LIMIT 1`, surveyID, ip)
	if err != nil {
		return false, fmt.Errorf("has response from ip: %w", err)
	}
	return ok, nil
}

func (s *SQLiteStore) DeleteResponsesBySurvey(ctx context.Context, surveyID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE survey_id = ?`, surveyID)
	if err != nil {
		return 0, fmt.Errorf("delete responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete responses: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) GetDraft(ctx context.Context, token string) (*models.Response, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+responseColumns+` FROM responses WHERE resume_token = ?`, token)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) UpdateDraftAnswers(ctx context.Context, surveyID, token string, answers []models.Answer, updatedAt time.Time) (bool, error) {
	if answers == nil {
		answers = []models.Answer{}
	}
	a, err := encodeJSON(answers)
	if err != nil {
		return false, fmt.Errorf("update draft: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE responses SET answers_json = ?, updated_at = ? WHERE resume_token = ? AND survey_id = ?`,
		a, formatTime(updatedAt), token, surveyID)
	if err != nil {
		return false, fmt.Errorf("update draft: %w", err)
	}
	return affected(res)
}

// --- invites ---

const inviteColumns = `id, token, survey_id, creator, uses, max_uses, expires_at, created_at`

func scanInvite(row scanner) (*models.Invite, error) {
	var (
		inv       models.Invite
		expiresAt sql.NullString
		createdAt string
	)
	if err := row.Scan(&inv.ID, &inv.Token, &inv.SurveyID, &inv.Creator, &inv.Uses, &inv.MaxUses, &expiresAt, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invite %s created_at: %w", inv.ID, err)
	}
	if inv.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return nil, fmt.Errorf("invite %s expires_at: %w", inv.ID, err)
	}
	return &inv, nil
}

func (s *SQLiteStore) InsertInvite(ctx context.Context, inv *models.Invite) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO invites (`+inviteColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		inv.ID, inv.Token, inv.SurveyID, inv.Creator, inv.Uses, inv.MaxUses, nullTime(inv.ExpiresAt), formatTime(inv.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetInvite(ctx context.Context, token string) (*models.Invite, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM invites WHERE token = ?`, token)
	inv, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

func (s *SQLiteStore) ListInvitesBySurvey(ctx context.Context, surveyID string) ([]*models.Invite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+inviteColumns+` FROM invites WHERE survey_id = ? ORDER BY id ASC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()
	out := []*models.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("list invites: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// --- saved questions ---

const savedQuestionColumns = `id, author, title, type, required, options_json, scale_json, image_url,
	is_favorite, category, tags_json, usage_count, position, created_at, updated_at`

func scanSavedQuestion(row scanner) (*models.SavedQuestion, error) {
	var (
		q                    models.SavedQuestion
		required, favorite   int
		options, scale, tags sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&q.ID, &q.Author, &q.Title, &q.Type, &required, &options, &scale, &q.ImageURL,
		&favorite, &q.Category, &tags, &q.UsageCount, &q.Order, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	q.Required = required != 0
	q.IsFavorite = favorite != 0
	var err error
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("saved question %s created_at: %w", q.ID, err)
	}
	if q.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("saved question %s updated_at: %w", q.ID, err)
	}
	if err := decodeJSON(options, &q.Options); err != nil {
		return nil, fmt.Errorf("saved question %s options: %w", q.ID, err)
	}
	if err := decodeJSON(scale, &q.Scale); err != nil {
		return nil, fmt.Errorf("saved question %s scale: %w", q.ID, err)
	}
	q.Tags = []string{}
	if err := decodeJSON(tags, &q.Tags); err != nil {
		return nil, fmt.Errorf("saved question %s tags: %w", q.ID, err)
	}
	return &q, nil
}

func savedQuestionArgs(q *models.SavedQuestion) ([]any, error) {
	options, err := nullJSON(q.Options, q.Options != nil)
	if err != nil {
		return nil, err
	}
	scale, err := nullJSON(q.Scale, q.Scale != nil)
	if err != nil {
		return nil, err
	}
	tagList := q.Tags
	if tagList == nil {
		tagList = []string{}
	}
	tags, err := encodeJSON(tagList)
	if err != nil {
		return nil, err
	}
	return []any{q.Author, q.Title, q.Type, boolToInt(q.Required), options, scale, q.ImageURL,
		boolToInt(q.IsFavorite), q.Category, tags, q.UsageCount, q.Order, formatTime(q.CreatedAt), formatTime(q.UpdatedAt)}, nil
}

func (s *SQLiteStore) InsertSavedQuestion(ctx context.Context, q *models.SavedQuestion) error {
	args, err := savedQuestionArgs(q)
	if err != nil {
		return fmt.Errorf("insert saved question: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO saved_questions (`+savedQuestionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		append([]any{q.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("insert saved question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSavedQuestion(ctx context.Context, id string) (*models.SavedQuestion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+savedQuestionColumns+` FROM saved_questions WHERE id = ?`, id)
	q, err := scanSavedQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get saved question: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) UpdateSavedQuestion(ctx context.Context, q *models.SavedQuestion) (bool, error) {
	args, err := savedQuestionArgs(q)
	if err != nil {
		return false, fmt.Errorf("update saved question: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE saved_questions SET author = ?, title = ?, type = ?, required = ?,
		options_json = ?, scale_json = ?, image_url = ?, is_favorite = ?, category = ?, tags_json = ?,
		usage_count = ?, position = ?, created_at = ?, updated_at = ? WHERE id = ?`, append(args, q.ID)...)
	if err != nil {
		return false, fmt.Errorf("update saved question: %w", err)
	}
	return affected(res)
}

func (s *SQLiteStore) DeleteSavedQuestion(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_questions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete saved question: %w", err)
	}
	return affected(res)
}

func (s *SQLiteStore) ListSavedQuestions(ctx context.Context, author string) ([]*models.SavedQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+savedQuestionColumns+` FROM saved_questions
		WHERE author = ? ORDER BY position ASC, id ASC`, author)
	if err != nil {
		return nil, fmt.Errorf("list saved questions: %w", err)
	}
	defer rows.Close()
	out := []*models.SavedQuestion{}
	for rows.Next() {
		q, err := scanSavedQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("list saved questions: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReorderSavedQuestions(ctx context.Context, author string, ids []string, updatedAt time.Time) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("reorder begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			n, err = 0, fmt.Errorf("reorder commit: %w", cerr)
		}
	}()
	ts := formatTime(updatedAt)
	for i, id := range ids {
		res, err := tx.ExecContext(ctx, `UPDATE saved_questions SET position = ?, updated_at = ? WHERE id = ? AND author = ?`,
			i, ts, strings.TrimSpace(id), author)
		if err != nil {
			return 0, fmt.Errorf("reorder update: %w", err)
		}
		if ok, err := affected(res); err != nil {
			return 0, fmt.Errorf("reorder update: %w", err)
		} else if ok {
			n++
		}
	}
	return n, nil
}

func (s *SQLiteStore) IncrementSavedQuestionUsage(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE saved_questions SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("increment usage: %w", err)
	}
	return affected(res)
}

// --- users ---

func (s *SQLiteStore) AddUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, pass_hash, role, created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Email, u.PassHash, u.Role, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		u         models.User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, email, pass_hash, role, created_at FROM users WHERE `+where+` = ?`, arg).
		Scan(&u.ID, &u.Email, &u.PassHash, &u.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("user %s created_at: %w", u.ID, err)
	}
	return &u, nil
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.findUser(ctx, "email", email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.findUser(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
