// Package store serves the interview-backend operations from a local database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"codinground/internal/models"
)

const statusInProgress = "in_progress"

var ErrNotFound = errors.New("record not found")

// Repository implements backend.Backend on top of gorm.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// Migrate creates or updates the tables the repository uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.CodingSessionRecord{}, &models.CodingInteractionRecord{})
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SeedQuestions registers (or replaces) the problems of a session.
// Existing scores and assistance counts of re-seeded problems are kept.
func (r *Repository) SeedQuestions(ctx context.Context, sessionID string, req models.SeedQuestionsRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := models.CodingSessionRecord{ID: sessionID, PostTitle: req.PostTitle, Status: statusInProgress, RoundType: models.RoundTypeCoding}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"post_title", "updated_at"}),
		}).Create(&session).Error; err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		for i, rec := range req.Interactions {
			examples, err := json.Marshal(rec.Examples)
			if err != nil {
				return fmt.Errorf("failed to encode examples: %w", err)
			}
			row := models.CodingInteractionRecord{
				SessionID:    sessionID,
				ProblemID:    rec.ID,
				Position:     i,
				Title:        rec.Title,
				Question:     rec.Question,
				StarterCode:  rec.StarterCode,
				Language:     rec.Language,
				ExamplesJSON: string(examples),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}, {Name: "problem_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"position", "title", "question", "starter_code", "language", "examples_json", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to store interaction %s: %w", rec.ID, err)
			}
		}

		r.logger.Info("seeded coding questions", zap.String("session_id", sessionID), zap.Int("count", len(req.Interactions)))
		return nil
	})
}

func (r *Repository) GetCodingQuestions(ctx context.Context, sessionID string) (*models.CodingQuestionsResponse, error) {
	var session models.CodingSessionRecord
	if err := r.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, notFound(err, "session "+sessionID)
	}

	var rows []models.CodingInteractionRecord
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}

	out := &models.CodingQuestionsResponse{
		PostTitle:    session.PostTitle,
		Interactions: make([]models.InteractionRecord, 0, len(rows)),
	}
	for _, row := range rows {
		out.Interactions = append(out.Interactions, toRecord(row))
	}
	return out, nil
}

// IncrementAssistance bumps the counter in a single UPDATE so concurrent calls
// never lose an increment. The counter never passes models.AssistanceLimit.
func (r *Repository) IncrementAssistance(ctx context.Context, sessionID, problemID string) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CodingInteractionRecord{}).
			Where("session_id = ? AND problem_id = ?", sessionID, problemID).
			Update("assistance_count", gorm.Expr(
				"CASE WHEN assistance_count < ? THEN assistance_count + 1 ELSE assistance_count END",
				models.AssistanceLimit))
		if res.Error != nil {
			return fmt.Errorf("failed to increment assistance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("interaction %s/%s: %w", sessionID, problemID, ErrNotFound)
		}

		var row models.CodingInteractionRecord
		if err := tx.Select("assistance_count").
			Where("session_id = ? AND problem_id = ?", sessionID, problemID).
			First(&row).Error; err != nil {
			return err
		}
		count = row.AssistanceCount
		return nil
	})
	return count, err
}

// SaveScore overwrites code, score and feedback. A nil score is an autosave.
func (r *Repository) SaveScore(ctx context.Context, sessionID, problemID string, req models.ScoreRequest) error {
	updates := map[string]interface{}{
		"code":     req.Code,
		"score":    req.Score,
		"feedback": req.Feedback,
	}
	if req.Score != nil {
		updates["scored_at"] = time.Now()
	}

	res := r.db.WithContext(ctx).Model(&models.CodingInteractionRecord{}).
		Where("session_id = ? AND problem_id = ?", sessionID, problemID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to save score: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("interaction %s/%s: %w", sessionID, problemID, ErrNotFound)
	}
	return nil
}

func (r *Repository) UpdateSessionStatus(ctx context.Context, sessionID, status, roundType string) error {
	res := r.db.WithContext(ctx).Model(&models.CodingSessionRecord{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{"status": status, "round_type": roundType})
	if res.Error != nil {
		return fmt.Errorf("failed to update session status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// ContinueSession moves the session into its next round.
func (r *Repository) ContinueSession(ctx context.Context, sessionID, roundType string) (*models.ContinueSessionResponse, error) {
	res := r.db.WithContext(ctx).Model(&models.CodingSessionRecord{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{"status": statusInProgress, "round_type": roundType})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to continue session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return &models.ContinueSessionResponse{SessionID: sessionID, RoundType: roundType, Status: statusInProgress}, nil
}

// Session returns the stored session row.
func (r *Repository) Session(ctx context.Context, sessionID string) (*models.CodingSessionRecord, error) {
	var session models.CodingSessionRecord
	if err := r.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, notFound(err, "session "+sessionID)
	}
	return &session, nil
}

func toRecord(row models.CodingInteractionRecord) models.InteractionRecord {
	var examples []models.TestCase
	if row.ExamplesJSON != "" {
		if err := json.Unmarshal([]byte(row.ExamplesJSON), &examples); err != nil {
			examples = nil
		}
	}
	return models.InteractionRecord{
		ID:              row.ProblemID,
		Title:           row.Title,
		Question:        row.Question,
		StarterCode:     row.StarterCode,
		Code:            row.Code,
		Language:        row.Language,
		AssistanceCount: row.AssistanceCount,
		Examples:        examples,
		Score:           row.Score,
		Feedback:        row.Feedback,
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
