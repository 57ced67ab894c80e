package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/services"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"
)

// Operation names must match the authorization capability table.
const (
	opCreate   = "application.create"
	opList     = "application.list"
	opView     = "application.view"
	opUpdate   = "application.update"
	opWithdraw = "application.withdraw"
	opDelete   = "application.delete"
	opSummary  = "application.summary"
)

const maxPageSize = 100

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Policy ports.AccessPolicy
	Logger *slog.Logger
}

type CreateApplicationInput struct {
	Category    string
	SubType     string
	AwardType   string
	AwardLevel  string
	Title       string
	Description string
	OccurredAt  time.Time
	Attachments []entities.Attachment
}

type UpdateApplicationInput struct {
	Category        string
	SubType         string
	AwardType       string
	AwardLevel      string
	Title           string
	Description     string
	OccurredAt      time.Time
	Attachments     []entities.Attachment
	ExpectedVersion int
}

type ListQuery struct {
	Status    string
	AwardType string
	Category  string
	Keyword   string
	Page      int
	Size      int
}

type ByCategoryQuery struct {
	Category string
	SubType  string
	Status   string
	Term     string
	Page     int
	Size     int
}

type ListResult struct {
	Page  int
	Size  int
	Total int64
	Items []entities.Application
}

type ByCategoryResult struct {
	Category string
	Term     string
	Items    []entities.Application
}

func (s Service) Create(ctx context.Context, caller ports.Caller, input CreateApplicationInput) (entities.Application, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, caller.UserID, opCreate) {
		return entities.Application{}, domainerrors.ErrForbidden
	}

	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Application{}, err
	}
	now := s.Clock.Now().UTC()
	app := entities.Application{
		ID:          id,
		OwnerID:     caller.UserID,
		Category:    strings.TrimSpace(input.Category),
		SubType:     strings.TrimSpace(input.SubType),
		AwardType:   strings.TrimSpace(input.AwardType),
		AwardLevel:  strings.TrimSpace(input.AwardLevel),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		OccurredAt:  input.OccurredAt,
		Attachments: append([]entities.Attachment(nil), input.Attachments...),
		Status:      entities.InitialStatus,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !app.ValidateCreate() || input.OccurredAt.IsZero() {
		return entities.Application{}, domainerrors.ErrInvalidApplicationInput
	}
	if err := s.Repo.CreateApplication(ctx, app); err != nil {
		return entities.Application{}, err
	}

	ResolveLogger(s.Logger).Info("application created",
		"event", "application_created",
		"module", "evaluation/application-service",
		"layer", "application",
		"application_id", app.ID,
		"owner_id", app.OwnerID,
		"category", app.Category,
	)
	return app, nil
}

func (s Service) List(ctx context.Context, caller ports.Caller, query ListQuery) (ListResult, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, caller.UserID, opList) {
		return ListResult{}, domainerrors.ErrForbidden
	}
	status, err := parseStatusFilter(query.Status)
	if err != nil {
		return ListResult{}, err
	}

	page := clampPage(query.Page)
	size := clampSize(query.Size)
	items, total, err := s.Repo.ListApplications(ctx, ports.ListFilter{
		OwnerID:   caller.UserID,
		Status:    status,
		AwardType: strings.TrimSpace(query.AwardType),
		Category:  strings.TrimSpace(query.Category),
		Keyword:   strings.TrimSpace(query.Keyword),
	}, page, size)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Page: page, Size: size, Total: total, Items: items}, nil
}

func (s Service) GetDetail(ctx context.Context, caller ports.Caller, id string) (entities.Application, error) {
	app, err := s.Repo.GetApplication(ctx, strings.TrimSpace(id))
	if err != nil {
		return entities.Application{}, err
	}
	if app.IsDeleted {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	if !s.Policy.Allow(caller.Role, caller.UserID, app.OwnerID, opView) {
		return entities.Application{}, domainerrors.ErrForbidden
	}
	return app, nil
}

func (s Service) Update(ctx context.Context, caller ports.Caller, id string, input UpdateApplicationInput) (entities.Application, error) {
	app, err := s.loadLive(ctx, id)
	if err != nil {
		return entities.Application{}, err
	}
	if !s.Policy.Allow(caller.Role, caller.UserID, app.OwnerID, opUpdate) {
		return entities.Application{}, domainerrors.ErrForbidden
	}
	if !app.Status.Editable() {
		return entities.Application{}, domainerrors.ErrStatusNotEditable
	}
	if input.ExpectedVersion != app.Version {
		return entities.Application{}, domainerrors.ErrVersionConflict
	}

	expected := app.Version
	app.Category = strings.TrimSpace(input.Category)
	app.SubType = strings.TrimSpace(input.SubType)
	app.AwardType = strings.TrimSpace(input.AwardType)
	app.AwardLevel = strings.TrimSpace(input.AwardLevel)
	app.Title = strings.TrimSpace(input.Title)
	app.Description = strings.TrimSpace(input.Description)
	app.OccurredAt = input.OccurredAt
	app.Attachments = append([]entities.Attachment(nil), input.Attachments...)
	if !app.ValidateCreate() || input.OccurredAt.IsZero() {
		return entities.Application{}, domainerrors.ErrInvalidApplicationInput
	}

	// An edit keeps the current status; re-triggering review is a reserved
	// transition, not implemented.
	app.Version++
	app.UpdatedAt = s.Clock.Now().UTC()
	if err := s.Repo.SaveApplicationCAS(ctx, app, expected); err != nil {
		return entities.Application{}, err
	}

	ResolveLogger(s.Logger).Info("application updated",
		"event", "application_updated",
		"module", "evaluation/application-service",
		"layer", "application",
		"application_id", app.ID,
		"version", app.Version,
	)
	return app, nil
}

func (s Service) Withdraw(ctx context.Context, caller ports.Caller, id string) (entities.Application, error) {
	app, err := s.loadLive(ctx, id)
	if err != nil {
		return entities.Application{}, err
	}
	if !s.Policy.Allow(caller.Role, caller.UserID, app.OwnerID, opWithdraw) {
		return entities.Application{}, domainerrors.ErrForbidden
	}
	if !app.Status.Editable() || !entities.CanTransition(app.Status, entities.StatusWithdrawn) {
		return entities.Application{}, domainerrors.ErrStatusNotEditable
	}

	expected := app.Version
	app.Status = entities.StatusWithdrawn
	app.Version++
	app.UpdatedAt = s.Clock.Now().UTC()
	if err := s.Repo.SaveApplicationCAS(ctx, app, expected); err != nil {
		return entities.Application{}, err
	}

	ResolveLogger(s.Logger).Info("application withdrawn",
		"event", "application_withdrawn",
		"module", "evaluation/application-service",
		"layer", "application",
		"application_id", app.ID,
		"version", app.Version,
	)
	return app, nil
}

func (s Service) SoftDelete(ctx context.Context, caller ports.Caller, id string) error {
	app, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}
	if !s.Policy.Allow(caller.Role, caller.UserID, app.OwnerID, opDelete) {
		return domainerrors.ErrForbidden
	}

	expected := app.Version
	now := s.Clock.Now().UTC()
	app.IsDeleted = true
	app.DeletedAt = &now
	app.Version++
	app.UpdatedAt = now
	if err := s.Repo.SaveApplicationCAS(ctx, app, expected); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("application soft-deleted",
		"event", "application_deleted",
		"module", "evaluation/application-service",
		"layer", "application",
		"application_id", app.ID,
		"deleted_by", caller.UserID,
	)
	return nil
}

func (s Service) CategorySummary(ctx context.Context, caller ports.Caller, term string) (services.Summary, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, caller.UserID, opSummary) {
		return services.Summary{}, domainerrors.ErrForbidden
	}
	rows, err := s.Repo.ListOwnerApplications(ctx, caller.UserID)
	if err != nil {
		return services.Summary{}, err
	}
	return services.Summarize(rows, strings.TrimSpace(term)), nil
}

func (s Service) ListByCategory(ctx context.Context, caller ports.Caller, query ByCategoryQuery) (ByCategoryResult, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, caller.UserID, opList) {
		return ByCategoryResult{}, domainerrors.ErrForbidden
	}
	category := strings.TrimSpace(query.Category)
	if category == "" {
		return ByCategoryResult{}, domainerrors.ErrInvalidApplicationInput
	}
	status, err := parseStatusFilter(query.Status)
	if err != nil {
		return ByCategoryResult{}, err
	}

	items, _, err := s.Repo.ListApplications(ctx, ports.ListFilter{
		OwnerID:  caller.UserID,
		Category: category,
		SubType:  strings.TrimSpace(query.SubType),
		Status:   status,
	}, clampPage(query.Page), clampSize(query.Size))
	if err != nil {
		return ByCategoryResult{}, err
	}
	return ByCategoryResult{
		Category: category,
		Term:     strings.TrimSpace(query.Term),
		Items:    items,
	}, nil
}

// loadLive resolves a record for mutation; soft-deleted rows are dead and
// surface as not found.
func (s Service) loadLive(ctx context.Context, id string) (entities.Application, error) {
	app, err := s.Repo.GetApplication(ctx, strings.TrimSpace(id))
	if err != nil {
		return entities.Application{}, err
	}
	if app.IsDeleted {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func parseStatusFilter(raw string) (entities.ApplicationStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	status := entities.ApplicationStatus(raw)
	if !status.Valid() {
		return "", domainerrors.ErrInvalidApplicationInput
	}
	return status, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
