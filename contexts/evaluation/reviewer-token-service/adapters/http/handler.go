package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/application"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"
	httptransport "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) IssueTokenHandler(
	ctx context.Context,
	caller ports.Caller,
	req httptransport.IssueTokenRequest,
) (httptransport.TokenResponse, error) {
	expiredAt, err := time.Parse(time.RFC3339, req.ExpiredAt)
	if err != nil {
		return httptransport.TokenResponse{}, domainerrors.ErrInvalidTokenInput
	}
	view, err := h.Service.Issue(ctx, caller, req.ClassIDs, expiredAt)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	// Issuance is the only response that carries the secret.
	resp := tokenResponseFromView(view)
	resp.Token = view.Token.TokenSecret
	return resp, nil
}

func (h Handler) ActivateTokenHandler(
	ctx context.Context,
	caller ports.Caller,
	req httptransport.ActivateTokenRequest,
) (httptransport.TokenResponse, error) {
	view, err := h.Service.Activate(ctx, caller, req.Token)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return tokenResponseFromView(view), nil
}

func (h Handler) ListTokensHandler(
	ctx context.Context,
	caller ports.Caller,
	statusFilter string,
	page int,
	size int,
) (httptransport.ListTokensResponse, error) {
	result, err := h.Service.List(ctx, caller, statusFilter, page, size)
	if err != nil {
		return httptransport.ListTokensResponse{}, err
	}
	resp := httptransport.ListTokensResponse{
		Page:  result.Page,
		Size:  result.Size,
		Total: result.Total,
		List:  make([]httptransport.TokenResponse, 0, len(result.Items)),
	}
	for _, view := range result.Items {
		resp.List = append(resp.List, tokenResponseFromView(view))
	}
	return resp, nil
}

func (h Handler) RevokeTokenHandler(
	ctx context.Context,
	caller ports.Caller,
	tokenID string,
) (httptransport.TokenResponse, error) {
	view, err := h.Service.Revoke(ctx, caller, tokenID)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return tokenResponseFromView(view), nil
}

func tokenResponseFromView(view application.TokenView) httptransport.TokenResponse {
	resp := httptransport.TokenResponse{
		ID:              view.Token.ID,
		Type:            view.Token.Type,
		ClassIDs:        append([]int{}, view.Token.ClassIDs...),
		Status:          string(view.Status),
		ExpiredAt:       view.Token.ExpiredAt.UTC().Format(time.RFC3339),
		CreatedAt:       view.Token.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:       view.Token.CreatedBy,
		ActivatedUserID: view.Token.ActivatedUserID,
	}
	if view.Token.ActivatedAt != nil {
		resp.ActivatedAt = view.Token.ActivatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
