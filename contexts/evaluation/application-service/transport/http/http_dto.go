package http

type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type AttachmentDTO struct {
	FileID  string `json:"file_id,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}

type CreateApplicationRequest struct {
	Category    string          `json:"category"`
	SubType     string          `json:"sub_type"`
	AwardType   string          `json:"award_type,omitempty"`
	AwardLevel  string          `json:"award_level,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	OccurredAt  string          `json:"occurred_at"`
	Attachments []AttachmentDTO `json:"attachments"`
}

type UpdateApplicationRequest struct {
	Category    string          `json:"category"`
	SubType     string          `json:"sub_type"`
	AwardType   string          `json:"award_type,omitempty"`
	AwardLevel  string          `json:"award_level,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	OccurredAt  string          `json:"occurred_at"`
	Attachments []AttachmentDTO `json:"attachments"`
	Version     int             `json:"version"`
}

type ApplicationDetailResponse struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	SubType     string          `json:"sub_type"`
	AwardType   string          `json:"award_type"`
	AwardLevel  string          `json:"award_level"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OccurredAt  string          `json:"occurred_at"`
	Attachments []AttachmentDTO `json:"attachments"`
	Status      string          `json:"status"`
	ItemScore   *float64        `json:"item_score"`
	TotalScore  *float64        `json:"total_score"`
	Version     int             `json:"version"`
	CreatedAt   string          `json:"created_at"`
}

type ApplicationListItem struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	SubType    string   `json:"sub_type"`
	AwardType  string   `json:"award_type"`
	AwardLevel string   `json:"award_level"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	ItemScore  *float64 `json:"item_score"`
	TotalScore *float64 `json:"total_score"`
	CreatedAt  string   `json:"created_at"`
}

type ListApplicationsResponse struct {
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
	Total int64                 `json:"total"`
	List  []ApplicationListItem `json:"list"`
}

type CategoryBucketDTO struct {
	Category      string  `json:"category"`
	CategoryName  string  `json:"category_name"`
	Count         int     `json:"count"`
	Approved      int     `json:"approved"`
	Pending       int     `json:"pending"`
	Rejected      int     `json:"rejected"`
	CategoryScore float64 `json:"category_score"`
}

type CategorySummaryResponse struct {
	Term       string              `json:"term,omitempty"`
	Categories []CategoryBucketDTO `json:"categories"`
	TotalScore float64             `json:"total_score"`
}

type ByCategoryItem struct {
	ApplicationID string   `json:"application_id"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	ItemScore     *float64 `json:"item_score"`
	TotalScore    *float64 `json:"total_score"`
}

type ByCategoryResponse struct {
	Category string           `json:"category"`
	Term     string           `json:"term,omitempty"`
	List     []ByCategoryItem `json:"list"`
}
