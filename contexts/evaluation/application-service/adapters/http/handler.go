package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/application"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"
	httptransport "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/transport/http"
)

const dateLayout = "2006-01-02"

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateApplicationHandler(
	ctx context.Context,
	caller ports.Caller,
	req httptransport.CreateApplicationRequest,
) (httptransport.ApplicationDetailResponse, error) {
	occurredAt, err := parseDate(req.OccurredAt)
	if err != nil {
		return httptransport.ApplicationDetailResponse{}, err
	}
	created, err := h.Service.Create(ctx, caller, application.CreateApplicationInput{
		Category:    req.Category,
		SubType:     req.SubType,
		AwardType:   req.AwardType,
		AwardLevel:  req.AwardLevel,
		Title:       req.Title,
		Description: req.Description,
		OccurredAt:  occurredAt,
		Attachments: attachmentsFromDTO(req.Attachments),
	})
	if err != nil {
		return httptransport.ApplicationDetailResponse{}, err
	}
	return detailFromEntity(created), nil
}

func (h Handler) ListApplicationsHandler(
	ctx context.Context,
	caller ports.Caller,
	query application.ListQuery,
) (httptransport.ListApplicationsResponse, error) {
	result, err := h.Service.List(ctx, caller, query)
	if err != nil {
		return httptransport.ListApplicationsResponse{}, err
	}
	resp := httptransport.ListApplicationsResponse{
		Page:  result.Page,
		Size:  result.Size,
		Total: result.Total,
		List:  make([]httptransport.ApplicationListItem, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.List = append(resp.List, httptransport.ApplicationListItem{
			ID:         item.ID,
			Category:   item.Category,
			SubType:    item.SubType,
			AwardType:  item.AwardType,
			AwardLevel: item.AwardLevel,
			Title:      item.Title,
			Status:     string(item.Status),
			ItemScore:  item.ItemScore,
			TotalScore: item.TotalScore,
			CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) GetApplicationHandler(
	ctx context.Context,
	caller ports.Caller,
	id string,
) (httptransport.ApplicationDetailResponse, error) {
	app, err := h.Service.GetDetail(ctx, caller, id)
	if err != nil {
		return httptransport.ApplicationDetailResponse{}, err
	}
	return detailFromEntity(app), nil
}

func (h Handler) UpdateApplicationHandler(
	ctx context.Context,
	caller ports.Caller,
	id string,
	req httptransport.UpdateApplicationRequest,
) (httptransport.ApplicationDetailResponse, error) {
	occurredAt, err := parseDate(req.OccurredAt)
	if err != nil {
		return httptransport.ApplicationDetailResponse{}, err
	}
	updated, err := h.Service.Update(ctx, caller, id, application.UpdateApplicationInput{
		Category:        req.Category,
		SubType:         req.SubType,
		AwardType:       req.AwardType,
		AwardLevel:      req.AwardLevel,
		Title:           req.Title,
		Description:     req.Description,
		OccurredAt:      occurredAt,
		Attachments:     attachmentsFromDTO(req.Attachments),
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return httptransport.ApplicationDetailResponse{}, err
	}
	return detailFromEntity(updated), nil
}

func (h Handler) WithdrawApplicationHandler(
	ctx context.Context,
	caller ports.Caller,
	id string,
) (httptransport.ApplicationDetailResponse, error) {
	app, err := h.Service.Withdraw(ctx, caller, id)
	if err != nil {
		return httptransport.ApplicationDetailResponse{}, err
	}
	return detailFromEntity(app), nil
}

func (h Handler) DeleteApplicationHandler(ctx context.Context, caller ports.Caller, id string) error {
	return h.Service.SoftDelete(ctx, caller, id)
}

func (h Handler) CategorySummaryHandler(
	ctx context.Context,
	caller ports.Caller,
	term string,
) (httptransport.CategorySummaryResponse, error) {
	summary, err := h.Service.CategorySummary(ctx, caller, term)
	if err != nil {
		return httptransport.CategorySummaryResponse{}, err
	}
	resp := httptransport.CategorySummaryResponse{
		Term:       summary.Term,
		Categories: make([]httptransport.CategoryBucketDTO, 0, len(summary.Categories)),
		TotalScore: summary.TotalScore,
	}
	for _, bucket := range summary.Categories {
		resp.Categories = append(resp.Categories, httptransport.CategoryBucketDTO{
			Category:      bucket.Category,
			CategoryName:  bucket.CategoryName,
			Count:         bucket.Count,
			Approved:      bucket.Approved,
			Pending:       bucket.Pending,
			Rejected:      bucket.Rejected,
			CategoryScore: bucket.CategoryScore,
		})
	}
	return resp, nil
}

func (h Handler) ListByCategoryHandler(
	ctx context.Context,
	caller ports.Caller,
	query application.ByCategoryQuery,
) (httptransport.ByCategoryResponse, error) {
	result, err := h.Service.ListByCategory(ctx, caller, query)
	if err != nil {
		return httptransport.ByCategoryResponse{}, err
	}
	resp := httptransport.ByCategoryResponse{
		Category: result.Category,
		Term:     result.Term,
		List:     make([]httptransport.ByCategoryItem, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.List = append(resp.List, httptransport.ByCategoryItem{
			ApplicationID: item.ID,
			Title:         item.Title,
			Status:        string(item.Status),
			ItemScore:     item.ItemScore,
			TotalScore:    item.TotalScore,
		})
	}
	return resp, nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidApplicationInput
	}
	return parsed.UTC(), nil
}

func attachmentsFromDTO(items []httptransport.AttachmentDTO) []entities.Attachment {
	out := make([]entities.Attachment, 0, len(items))
	for _, item := range items {
		out = append(out, entities.Attachment{
			FileID:  item.FileID,
			FileURL: item.FileURL,
		})
	}
	return out
}

func detailFromEntity(app entities.Application) httptransport.ApplicationDetailResponse {
	attachments := make([]httptransport.AttachmentDTO, 0, len(app.Attachments))
	for _, item := range app.Attachments {
		attachments = append(attachments, httptransport.AttachmentDTO{
			FileID:  item.FileID,
			FileURL: item.FileURL,
		})
	}
	return httptransport.ApplicationDetailResponse{
		ID:          app.ID,
		Category:    app.Category,
		SubType:     app.SubType,
		AwardType:   app.AwardType,
		AwardLevel:  app.AwardLevel,
		Title:       app.Title,
		Description: app.Description,
		OccurredAt:  app.OccurredAt.Format(dateLayout),
		Attachments: attachments,
		Status:      string(app.Status),
		ItemScore:   app.ItemScore,
		TotalScore:  app.TotalScore,
		Version:     app.Version,
		CreatedAt:   app.CreatedAt.UTC().Format(time.RFC3339),
	}
}
