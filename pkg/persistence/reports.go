package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"talentscout/pkg/report"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is a report together with the candidate context it was produced for.
type Entry struct {
	Report        *report.Report `json:"report"`
	CandidateName string         `json:"candidate_name"`
	Overview      string         `json:"overview"`
	Model         string         `json:"model"`
}

// Summary is one row of the report history.
type Summary struct {
	CreatedAt          time.Time `json:"created_at"`
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	CandidateName      string    `json:"candidate_name"`
	Model              string    `json:"model"`
	CommunicationScore int       `json:"communication_score"`
	TechnicalScore     int       `json:"technical_score"`
	QuestionCount      int       `json:"question_count"`
}

// ReportStore reads and writes archived reports.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a ReportStore on an initialized database.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Save archives a report and its conversations in one transaction.
func (s *ReportStore) Save(ctx context.Context, e *Entry) error {
	if e == nil || e.Report == nil {
		return errors.New("nothing to archive")
	}
	if err := e.Report.Validate(); err != nil {
		return fmt.Errorf("refusing to archive invalid report: %w", err)
	}
	overall, err := json.Marshal(e.Report.Overall)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", e.Report.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := e.Report
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, session_id, candidate_name, overview, communication_score, technical_score,
			question_count, payload, created_at, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, e.CandidateName, e.Overview, r.Overall.CommunicationScore, r.Overall.TechnicalScore,
		len(r.Conversations), string(overall), r.CreatedAt.UTC().Format(timeLayout), e.Model)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", r.ID, err)
	}

	for i, c := range r.Conversations {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO report_conversations (report_id, position, question, summary, transcript) VALUES (?, ?, ?, ?, ?)",
			r.ID, i, c.Question, c.Summary, c.Transcript)
		if err != nil {
			return fmt.Errorf("failed to insert conversation %d of report %s: %w", i+1, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report %s: %w", r.ID, err)
	}
	dbLogger.Info("💾 Archived report %s for session %s", r.ID, r.SessionID)
	return nil
}

// Get loads an archived report.
func (s *ReportStore) Get(ctx context.Context, id string) (*Entry, error) {
	var (
		e         Entry
		r         report.Report
		overall   string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, candidate_name, overview, payload, created_at, model
		FROM reports WHERE id = ?`, id).
		Scan(&r.ID, &r.SessionID, &e.CandidateName, &e.Overview, &overall, &createdAt, &e.Model)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(overall), &r.Overall); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for report %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT question, summary, transcript FROM report_conversations WHERE report_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations of report %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c report.ConversationSummary
		if err := rows.Scan(&c.Question, &c.Summary, &c.Transcript); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		r.Conversations = append(r.Conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations of report %s: %w", id, err)
	}

	e.Report = &r
	return &e, nil
}

// List returns the most recent reports first. A non-positive limit returns all of them.
func (s *ReportStore) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `
		SELECT id, session_id, candidate_name, model, communication_score, technical_score, question_count, created_at
		FROM reports ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Summary{}
	for rows.Next() {
		var (
			sum       Summary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.SessionID, &sum.CandidateName, &sum.Model,
			&sum.CommunicationScore, &sum.TechnicalScore, &sum.QuestionCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at for report %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return out, nil
}

// Delete removes a report and its conversations.
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
