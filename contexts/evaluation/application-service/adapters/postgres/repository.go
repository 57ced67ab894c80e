package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"

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

func (r *Repository) CreateApplication(ctx context.Context, app entities.Application) error {
	row := applicationModelFromEntity(app)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetApplication(ctx context.Context, id string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(id)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

// SaveApplicationCAS writes the full row guarded by the version column.
// Zero rows affected means another writer won the race.
func (r *Repository) SaveApplicationCAS(ctx context.Context, app entities.Application, expectedVersion int) error {
	row := applicationModelFromEntity(app)
	result := r.db.WithContext(ctx).
		Model(&applicationModel{}).
		Where("id = ?", row.ID).
		Where("version = ?", expectedVersion).
		Updates(row.updateColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ListApplications(ctx context.Context, filter ports.ListFilter, page int, size int) ([]entities.Application, int64, error) {
	tx := r.applyFilter(r.db.WithContext(ctx).Model(&applicationModel{}), filter)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []applicationModel
	if err := tx.
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).
		Error; err != nil {
		return nil, 0, err
	}

	items := make([]entities.Application, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, total, nil
}

func (r *Repository) ListOwnerApplications(ctx context.Context, ownerID string) ([]entities.Application, error) {
	var rows []applicationModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", strings.TrimSpace(ownerID)).
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Application, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) applyFilter(tx *gorm.DB, filter ports.ListFilter) *gorm.DB {
	tx = tx.Where("is_deleted = ?", false)
	if filter.OwnerID != "" {
		tx = tx.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.AwardType != "" {
		tx = tx.Where("award_type = ?", filter.AwardType)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}
	if filter.SubType != "" {
		tx = tx.Where("sub_type = ?", filter.SubType)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		tx = tx.Where("title ILIKE ? OR description ILIKE ? OR award_type ILIKE ?", like, like, like)
	}
	return tx
}

type applicationModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	OwnerID          string     `gorm:"column:owner_id;index"`
	Category         string     `gorm:"column:category"`
	SubType          string     `gorm:"column:sub_type"`
	AwardType        string     `gorm:"column:award_type"`
	AwardLevel       string     `gorm:"column:award_level"`
	Title            string     `gorm:"column:title"`
	Description      string     `gorm:"column:description"`
	OccurredAt       time.Time  `gorm:"column:occurred_at"`
	AttachmentsJSON  string     `gorm:"column:attachments_json"`
	Status           string     `gorm:"column:status;index"`
	ItemScore        *float64   `gorm:"column:item_score"`
	TotalScore       *float64   `gorm:"column:total_score"`
	ScoreRuleVersion *string    `gorm:"column:score_rule_version"`
	Version          int        `gorm:"column:version"`
	IsDeleted        bool       `gorm:"column:is_deleted;index"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	DeletedAt        *time.Time `gorm:"column:deleted_at"`
}

func (applicationModel) TableName() string {
	return "comprehensive_apply"
}

func applicationModelFromEntity(item entities.Application) applicationModel {
	attachments := item.Attachments
	if attachments == nil {
		attachments = []entities.Attachment{}
	}
	attachmentsRaw, _ := json.Marshal(attachments)
	return applicationModel{
		ID:               strings.TrimSpace(item.ID),
		OwnerID:          strings.TrimSpace(item.OwnerID),
		Category:         item.Category,
		SubType:          item.SubType,
		AwardType:        item.AwardType,
		AwardLevel:       item.AwardLevel,
		Title:            item.Title,
		Description:      item.Description,
		OccurredAt:       item.OccurredAt.UTC(),
		AttachmentsJSON:  string(attachmentsRaw),
		Status:           string(item.Status),
		ItemScore:        item.ItemScore,
		TotalScore:       item.TotalScore,
		ScoreRuleVersion: item.ScoreRuleVersion,
		Version:          item.Version,
		IsDeleted:        item.IsDeleted,
		CreatedAt:        item.CreatedAt.UTC(),
		UpdatedAt:        item.UpdatedAt.UTC(),
		DeletedAt:        item.DeletedAt,
	}
}

// updateColumns lists every mutable column explicitly so gorm writes zero
// values (cleared scores, booleans) instead of skipping them.
func (m applicationModel) updateColumns() map[string]any {
	return map[string]any{
		"category":           m.Category,
		"sub_type":           m.SubType,
		"award_type":         m.AwardType,
		"award_level":        m.AwardLevel,
		"title":              m.Title,
		"description":        m.Description,
		"occurred_at":        m.OccurredAt,
		"attachments_json":   m.AttachmentsJSON,
		"status":             m.Status,
		"item_score":         m.ItemScore,
		"total_score":        m.TotalScore,
		"score_rule_version": m.ScoreRuleVersion,
		"version":            m.Version,
		"is_deleted":         m.IsDeleted,
		"updated_at":         m.UpdatedAt,
		"deleted_at":         m.DeletedAt,
	}
}

func (m applicationModel) toEntity() entities.Application {
	var attachments []entities.Attachment
	if err := json.Unmarshal([]byte(m.AttachmentsJSON), &attachments); err != nil {
		attachments = []entities.Attachment{}
	}
	return entities.Application{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Category:         m.Category,
		SubType:          m.SubType,
		AwardType:        m.AwardType,
		AwardLevel:       m.AwardLevel,
		Title:            m.Title,
		Description:      m.Description,
		OccurredAt:       m.OccurredAt,
		Attachments:      attachments,
		Status:           entities.ApplicationStatus(m.Status),
		ItemScore:        m.ItemScore,
		TotalScore:       m.TotalScore,
		ScoreRuleVersion: m.ScoreRuleVersion,
		Version:          m.Version,
		IsDeleted:        m.IsDeleted,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		DeletedAt:        m.DeletedAt,
	}
}
