package http

type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type IssueTokenRequest struct {
	ClassIDs  []int  `json:"class_ids"`
	ExpiredAt string `json:"expired_at"`
}

type ActivateTokenRequest struct {
	Token string `json:"token"`
}

type TokenResponse struct {
	ID              string `json:"id"`
	Token           string `json:"token,omitempty"`
	Type            string `json:"type"`
	ClassIDs        []int  `json:"class_ids"`
	Status          string `json:"status"`
	ExpiredAt       string `json:"expired_at"`
	CreatedAt       string `json:"created_at"`
	CreatedBy       string `json:"created_by"`
	ActivatedAt     string `json:"activated_at,omitempty"`
	ActivatedUserID string `json:"activated_user_id,omitempty"`
}

type ListTokensResponse struct {
	Page  int             `json:"page"`
	Size  int             `json:"size"`
	Total int             `json:"total"`
	List  []TokenResponse `json:"list"`
}
