package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lingoroots/backend/internal/ledger"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// progressRepository persists the progress embedded in users.
// Every write happens under a row lock on the user so concurrent events serialize.
type progressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		db:     db,
		logger: logger,
	}
}

// Get loads the progress of userID
func (r *progressRepository) Get(ctx context.Context, userID int) (*models.Progress, error) {
	p, err := loadProgress(ctx, r.db, userID, false)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Apply runs mutate against the locked progress of ev.UserID and persists the outcome
// together with the event row. An event id seen before is not applied again;
// the current progress is returned with applied=false.
func (r *progressRepository) Apply(
	ctx context.Context,
	ev models.ProgressEvent,
	mutate func(models.Progress) (ledger.Outcome, error),
) (ledger.Outcome, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Outcome{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadProgress(ctx, tx, ev.UserID, true)
	if err != nil {
		return ledger.Outcome{}, false, err
	}

	var seen bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM progress_events WHERE user_id = ? AND event_id = ?)`,
		ev.UserID, ev.EventID,
	).Scan(&seen)
	if err != nil {
		return ledger.Outcome{}, false, fmt.Errorf("failed to check progress event: %w", err)
	}
	if seen {
		return ledger.Outcome{Progress: *current}, false, nil
	}

	out, err := mutate(*current)
	if err != nil {
		return ledger.Outcome{}, false, err
	}
	if !out.Changed {
		return out, false, nil
	}

	ev.Points = out.PointsAwarded
	if err := writeOutcome(ctx, tx, ev, out); err != nil {
		if isDuplicateKey(err) {
			return ledger.Outcome{Progress: *current}, false, nil
		}
		r.logger.Error("failed to write progress",
			zap.Error(err),
			zap.Int("user_id", ev.UserID),
			zap.String("event_id", ev.EventID),
		)
		return ledger.Outcome{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return ledger.Outcome{}, false, fmt.Errorf("failed to commit progress: %w", err)
	}
	return out, true, nil
}

func writeOutcome(ctx context.Context, tx *sql.Tx, ev models.ProgressEvent, out ledger.Outcome) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO progress_events (user_id, event_id, kind, ref_id, points) VALUES (?, ?, ?, ?, ?)`,
		ev.UserID, ev.EventID, ev.Kind, ev.RefID, ev.Points,
	)
	if err != nil {
		return fmt.Errorf("failed to record progress event: %w", err)
	}

	p := out.Progress
	var lastActive any
	if p.LastActiveOn != nil {
		lastActive = p.LastActiveOn.Format("2006-01-02")
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET points = ?, current_streak = ?, longest_streak = ?, last_active_on = ?
		WHERE id = ?`,
		p.Points, p.CurrentStreak, p.LongestStreak, lastActive, ev.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user progress: %w", err)
	}

	for _, lessonID := range out.Diff.AddedLessons {
		_, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO user_completed_lessons (user_id, lesson_id) VALUES (?, ?)`,
			ev.UserID, lessonID,
		)
		if err != nil {
			return fmt.Errorf("failed to record completed lesson: %w", err)
		}
	}

	quizIDs := make([]int, 0, len(out.Diff.QuizScores))
	for quizID := range out.Diff.QuizScores {
		quizIDs = append(quizIDs, quizID)
	}
	sort.Ints(quizIDs)
	for _, quizID := range quizIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_quiz_scores (user_id, quiz_id, score) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE score = VALUES(score), attempts = attempts + 1`,
			ev.UserID, quizID, out.Diff.QuizScores[quizID],
		)
		if err != nil {
			return fmt.Errorf("failed to record quiz score: %w", err)
		}
	}

	for _, badge := range out.Diff.AddedBadges {
		_, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO user_achievements (user_id, achievement_id) VALUES (?, ?)`,
			ev.UserID, badge,
		)
		if err != nil {
			return fmt.Errorf("failed to record achievement: %w", err)
		}
	}
	return nil
}

func loadProgress(ctx context.Context, q queryer, userID int, forUpdate bool) (*models.Progress, error) {
	p := models.NewProgress()

	query := `SELECT points, current_streak, longest_streak, last_active_on FROM users WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var lastActive sql.NullTime
	err := q.QueryRowContext(ctx, query, userID).Scan(&p.Points, &p.CurrentStreak, &p.LongestStreak, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if lastActive.Valid {
		day := ledger.Day(lastActive.Time)
		p.LastActiveOn = &day
	}

	rows, err := q.QueryContext(ctx, `SELECT lesson_id FROM user_completed_lessons WHERE user_id = ? ORDER BY completed_at, lesson_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed lessons: %w", err)
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan completed lesson: %w", err)
		}
		p.CompletedLessons = append(p.CompletedLessons, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completed lessons: %w", err)
	}

	rows, err = q.QueryContext(ctx, `SELECT quiz_id, score FROM user_quiz_scores WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz scores: %w", err)
	}
	for rows.Next() {
		var quizID, score int
		if err := rows.Scan(&quizID, &score); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan quiz score: %w", err)
		}
		p.QuizScores[quizID] = score
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quiz scores: %w", err)
	}

	rows, err = q.QueryContext(ctx, `SELECT achievement_id FROM user_achievements WHERE user_id = ? ORDER BY earned_at, achievement_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		p.Badges = append(p.Badges, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	return &p, nil
}
