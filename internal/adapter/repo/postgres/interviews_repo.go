package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repo for easy testing.
type PgxPool interface {
	Exec(ctx domain.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx domain.Context, sql string, args ...any) pgx.Row
}

// InterviewRepo loads interview context and records completion in the job
// portal's interview table. The surrounding application owns the schema; this
// repo only consumes it.
type InterviewRepo struct{ Pool PgxPool }

// NewInterviewRepo constructs an InterviewRepo with the given pool.
func NewInterviewRepo(p PgxPool) *InterviewRepo { return &InterviewRepo{Pool: p} }

// GetContext loads the immutable interview context by session key.
func (r *InterviewRepo) GetContext(ctx domain.Context, sessionKey string) (domain.InterviewContext, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.GetContext")
	defer span.End()
	q := `SELECT session_key, candidate_name, job_title, company_name,
	        COALESCE(resume_text,''), COALESCE(job_description,''), COALESCE(job_location,''),
	        scheduled_seconds
	      FROM interviews WHERE session_key=$1`
	row := r.Pool.QueryRow(ctx, q, sessionKey)
	var ic domain.InterviewContext
	if err := row.Scan(&ic.SessionKey, &ic.CandidateName, &ic.JobTitle, &ic.CompanyName,
		&ic.ResumeText, &ic.JobDescription, &ic.JobLocation, &ic.ScheduledSeconds); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InterviewContext{}, fmt.Errorf("op=interview.get_context: %w", domain.ErrNotFound)
		}
		return domain.InterviewContext{}, fmt.Errorf("op=interview.get_context: %w", err)
	}
	return ic, nil
}

// MarkCompleted flags the interview completed with a timestamp and stores the
// aggregate summary. Re-marking an already completed interview is harmless;
// the first completion timestamp wins.
func (r *InterviewRepo) MarkCompleted(ctx domain.Context, sessionKey string, at time.Time, summary domain.CompletionSummary) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.MarkCompleted")
	defer span.End()
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("op=interview.mark_completed: encode summary: %w", err)
	}
	q := `UPDATE interviews
	      SET completed=TRUE,
	          completed_at=COALESCE(completed_at, $2),
	          completion_summary=$3
	      WHERE session_key=$1`
	tag, err := r.Pool.Exec(ctx, q, sessionKey, at.UTC(), raw)
	if err != nil {
		return fmt.Errorf("op=interview.mark_completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interview.mark_completed: %w", domain.ErrNotFound)
	}
	return nil
}
