package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateToken(ctx context.Context, token entities.ReviewerToken) error {
	row, err := tokenModelFromEntity(token)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrSecretTaken
		}
		return err
	}
	return nil
}

func (r *Repository) GetToken(ctx context.Context, id string) (entities.ReviewerToken, error) {
	var row tokenModel
	err := r.db.WithContext(ctx).
		Where("token_id = ?", strings.TrimSpace(id)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ReviewerToken{}, domainerrors.ErrTokenNotFound
		}
		return entities.ReviewerToken{}, err
	}
	return row.toEntity()
}

func (r *Repository) GetTokenBySecret(ctx context.Context, secret string) (entities.ReviewerToken, error) {
	var row tokenModel
	err := r.db.WithContext(ctx).
		Where("token_secret = ?", strings.TrimSpace(secret)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ReviewerToken{}, domainerrors.ErrTokenNotFound
		}
		return entities.ReviewerToken{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListTokens(ctx context.Context) ([]entities.ReviewerToken, error) {
	var rows []tokenModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, token_id DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.ReviewerToken, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ApplyActivation runs the whole activation as one transaction: a
// compare-and-set on the unconsumed token row, the reviewer flag flip on the
// user row and the outbox insert. Losing the CAS leaves the transaction
// without any writes.
func (r *Repository) ApplyActivation(ctx context.Context, tokenID string, userID string, now time.Time, message ports.OutboxMessage) (entities.ReviewerToken, error) {
	var activated entities.ReviewerToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activatedAt := now.UTC()
		casResult := tx.Model(&tokenModel{}).
			Where("token_id = ? AND activated_user_id IS NULL AND status = ?",
				strings.TrimSpace(tokenID), string(entities.TokenStatusActive)).
			Updates(map[string]any{
				"activated_at":      activatedAt,
				"activated_user_id": strings.TrimSpace(userID),
			})
		if casResult.Error != nil {
			return casResult.Error
		}
		if casResult.RowsAffected == 0 {
			var row tokenModel
			if err := tx.Where("token_id = ?", strings.TrimSpace(tokenID)).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrTokenNotFound
				}
				return err
			}
			if row.Status == string(entities.TokenStatusRevoked) {
				return domainerrors.ErrTokenRevoked
			}
			return domainerrors.ErrTokenConsumed
		}

		userResult := tx.Model(&userModel{}).
			Where("user_id = ?", strings.TrimSpace(userID)).
			Updates(map[string]any{
				"is_reviewer":       true,
				"reviewer_token_id": strings.TrimSpace(tokenID),
			})
		if userResult.Error != nil {
			return userResult.Error
		}
		if userResult.RowsAffected == 0 {
			return domainerrors.ErrUserNotFound
		}

		if err := insertOutboxMessageTx(tx, message); err != nil {
			return err
		}

		var row tokenModel
		if err := tx.Where("token_id = ?", strings.TrimSpace(tokenID)).First(&row).Error; err != nil {
			return err
		}
		item, err := row.toEntity()
		if err != nil {
			return err
		}
		activated = item
		return nil
	})
	if err != nil {
		return entities.ReviewerToken{}, err
	}
	return activated, nil
}

// ApplyRevocation marks the token revoked and clears the bound user's
// reviewer flag in the same transaction. The activation record stays on the
// token row for audit.
func (r *Repository) ApplyRevocation(ctx context.Context, tokenID string, message ports.OutboxMessage) (entities.ReviewerToken, error) {
	var revoked entities.ReviewerToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&tokenModel{}).
			Where("token_id = ? AND status <> ?",
				strings.TrimSpace(tokenID), string(entities.TokenStatusRevoked)).
			Update("status", string(entities.TokenStatusRevoked))
		if result.Error != nil {
			return result.Error
		}

		var row tokenModel
		if err := tx.Where("token_id = ?", strings.TrimSpace(tokenID)).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrTokenNotFound
			}
			return err
		}
		if result.RowsAffected == 0 {
			// Already revoked, nothing else to write.
			item, err := row.toEntity()
			if err != nil {
				return err
			}
			revoked = item
			return nil
		}

		if row.ActivatedUserID != nil && *row.ActivatedUserID != "" {
			if err := tx.Model(&userModel{}).
				Where("user_id = ?", *row.ActivatedUserID).
				Updates(map[string]any{
					"is_reviewer":       false,
					"reviewer_token_id": nil,
				}).
				Error; err != nil {
				return err
			}
		}

		if err := insertOutboxMessageTx(tx, message); err != nil {
			return err
		}

		item, err := row.toEntity()
		if err != nil {
			return err
		}
		revoked = item
		return nil
	})
	if err != nil {
		return entities.ReviewerToken{}, err
	}
	return revoked, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", ports.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:    row.OutboxID,
			EventType:   row.EventType,
			Payload:     append([]byte(nil), row.Payload...),
			Status:      row.Status,
			RetryCount:  row.RetryCount,
			CreatedAt:   row.CreatedAt.UTC(),
			PublishedAt: normalizeOptionalTime(row.PublishedAt),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       ports.OutboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
}

func insertOutboxMessageTx(tx *gorm.DB, message ports.OutboxMessage) error {
	row := outboxModel{
		OutboxID:   strings.TrimSpace(message.OutboxID),
		EventType:  strings.TrimSpace(message.EventType),
		Payload:    append([]byte(nil), message.Payload...),
		Status:     ports.OutboxStatusPending,
		RetryCount: message.RetryCount,
		CreatedAt:  message.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&row).Error
}

type tokenModel struct {
	TokenID         string     `gorm:"column:token_id;primaryKey"`
	TokenSecret     string     `gorm:"column:token_secret;uniqueIndex"`
	TokenType       string     `gorm:"column:token_type"`
	ClassIDsJSON    string     `gorm:"column:class_ids_json"`
	Status          string     `gorm:"column:status"`
	ExpiredAt       time.Time  `gorm:"column:expired_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	CreatedBy       string     `gorm:"column:created_by"`
	ActivatedAt     *time.Time `gorm:"column:activated_at"`
	ActivatedUserID *string    `gorm:"column:activated_user_id"`
}

func (tokenModel) TableName() string {
	return "reviewer_token_record"
}

func tokenModelFromEntity(item entities.ReviewerToken) (tokenModel, error) {
	classIDs, err := json.Marshal(item.ClassIDs)
	if err != nil {
		return tokenModel{}, err
	}
	row := tokenModel{
		TokenID:      strings.TrimSpace(item.ID),
		TokenSecret:  strings.TrimSpace(item.TokenSecret),
		TokenType:    item.Type,
		ClassIDsJSON: string(classIDs),
		Status:       string(item.Status),
		ExpiredAt:    item.ExpiredAt.UTC(),
		CreatedAt:    item.CreatedAt.UTC(),
		CreatedBy:    strings.TrimSpace(item.CreatedBy),
		ActivatedAt:  normalizeOptionalTime(item.ActivatedAt),
	}
	if item.ActivatedUserID != "" {
		userID := item.ActivatedUserID
		row.ActivatedUserID = &userID
	}
	return row, nil
}

func (m tokenModel) toEntity() (entities.ReviewerToken, error) {
	var classIDs []int
	if strings.TrimSpace(m.ClassIDsJSON) != "" {
		if err := json.Unmarshal([]byte(m.ClassIDsJSON), &classIDs); err != nil {
			return entities.ReviewerToken{}, err
		}
	}
	item := entities.ReviewerToken{
		ID:          m.TokenID,
		TokenSecret: m.TokenSecret,
		Type:        m.TokenType,
		ClassIDs:    classIDs,
		Status:      entities.TokenStatus(m.Status),
		ExpiredAt:   m.ExpiredAt.UTC(),
		CreatedAt:   m.CreatedAt.UTC(),
		CreatedBy:   m.CreatedBy,
		ActivatedAt: normalizeOptionalTime(m.ActivatedAt),
	}
	if m.ActivatedUserID != nil {
		item.ActivatedUserID = *m.ActivatedUserID
	}
	return item, nil
}

type userModel struct {
	UserID          string  `gorm:"column:user_id;primaryKey"`
	Role            string  `gorm:"column:role"`
	ClassID         int     `gorm:"column:class_id"`
	IsReviewer      bool    `gorm:"column:is_reviewer"`
	ReviewerTokenID *string `gorm:"column:reviewer_token_id"`
}

func (userModel) TableName() string {
	return "user_info"
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	RetryCount  int        `gorm:"column:retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "reviewer_token_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
