package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	applicationservice "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service"
	appservice "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/application"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"
	httptransport "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/transport/http"
	authorization "github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service"
)

func newApplicationModule() applicationservice.Module {
	return applicationservice.NewInMemoryModule(authorization.Policy{}, nil)
}

func studentCaller(id string) ports.Caller {
	return ports.Caller{UserID: id, Role: "student"}
}

func validCreateRequest() httptransport.CreateApplicationRequest {
	return httptransport.CreateApplicationRequest{
		Category:   "intellectual",
		SubType:    "competition",
		AwardType:  "provincial",
		AwardLevel: "first",
		Title:      "Provincial programming contest",
		OccurredAt: "2026-03-10",
		Attachments: []httptransport.AttachmentDTO{
			{FileID: "file-1"},
		},
	}
}

func TestApplicationLifecycleVersioning(t *testing.T) {
	module := newApplicationModule()
	owner := studentCaller("student-1")

	created, err := module.Handler.CreateApplicationHandler(context.Background(), owner, validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", created.Version)
	}
	if created.Status != "pending_ai" {
		t.Fatalf("expected pending_ai status, got %s", created.Status)
	}

	update := httptransport.UpdateApplicationRequest{
		Category:    "intellectual",
		SubType:     "competition",
		AwardType:   "national",
		AwardLevel:  "second",
		Title:       "National programming contest",
		OccurredAt:  "2026-03-10",
		Attachments: []httptransport.AttachmentDTO{{FileID: "file-1"}},
		Version:     1,
	}
	updated, err := module.Handler.UpdateApplicationHandler(context.Background(), owner, created.ID, update)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2 after update, got %d", updated.Version)
	}
	if updated.Status != "pending_ai" {
		t.Fatalf("an edit must keep the current status, got %s", updated.Status)
	}

	// Replaying the first update with the stale version must conflict.
	_, err = module.Handler.UpdateApplicationHandler(context.Background(), owner, created.ID, update)
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected version conflict on stale update, got %v", err)
	}

	withdrawn, err := module.Handler.WithdrawApplicationHandler(context.Background(), owner, created.ID)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if withdrawn.Status != "withdrawn" {
		t.Fatalf("expected withdrawn status, got %s", withdrawn.Status)
	}
	if withdrawn.Version != 3 {
		t.Fatalf("expected version 3 after withdraw, got %d", withdrawn.Version)
	}

	update.Version = withdrawn.Version
	_, err = module.Handler.UpdateApplicationHandler(context.Background(), owner, created.ID, update)
	if !errors.Is(err, domainerrors.ErrStatusNotEditable) {
		t.Fatalf("expected status-not-editable after withdraw, got %v", err)
	}
}

func TestConcurrentUpdatesSameVersionOneWins(t *testing.T) {
	module := newApplicationModule()
	owner := studentCaller("student-1")

	created, err := module.Handler.CreateApplicationHandler(context.Background(), owner, validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan int, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptransport.UpdateApplicationRequest{
				Category:    "intellectual",
				SubType:     "competition",
				Title:       "Racing edit",
				OccurredAt:  "2026-03-10",
				Attachments: []httptransport.AttachmentDTO{{FileID: "file-1"}},
				Version:     1,
			}
			if _, err := module.Handler.UpdateApplicationHandler(context.Background(), owner, created.ID, req); err == nil {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	winners := 0
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Fatalf("expected exactly one update to win, got %d", winners)
	}

	detail, err := module.Handler.GetApplicationHandler(context.Background(), owner, created.ID)
	if err != nil {
		t.Fatalf("get after race failed: %v", err)
	}
	if detail.Version != 2 {
		t.Fatalf("expected version 2 after single winning update, got %d", detail.Version)
	}
}

func TestDetailVisibilityByRole(t *testing.T) {
	module := newApplicationModule()
	owner := studentCaller("student-1")

	created, err := module.Handler.CreateApplicationHandler(context.Background(), owner, validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := module.Handler.GetApplicationHandler(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("owner must see own detail: %v", err)
	}
	if _, err := module.Handler.GetApplicationHandler(context.Background(), ports.Caller{UserID: "teacher-1", Role: "teacher"}, created.ID); err != nil {
		t.Fatalf("teacher must see detail: %v", err)
	}
	_, err = module.Handler.GetApplicationHandler(context.Background(), studentCaller("student-2"), created.ID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("another student must be rejected, got %v", err)
	}
	_, err = module.Handler.GetApplicationHandler(context.Background(), ports.Caller{UserID: "reviewer-1", Role: "reviewer"}, created.ID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("reviewer must be rejected on detail view, got %v", err)
	}
}

func TestSoftDeleteHidesRecord(t *testing.T) {
	module := newApplicationModule()
	owner := studentCaller("student-1")

	created, err := module.Handler.CreateApplicationHandler(context.Background(), owner, validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	admin := ports.Caller{UserID: "admin-1", Role: "admin"}
	if err := module.Handler.DeleteApplicationHandler(context.Background(), admin, created.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}

	_, err = module.Handler.GetApplicationHandler(context.Background(), owner, created.ID)
	if !errors.Is(err, domainerrors.ErrApplicationNotFound) {
		t.Fatalf("deleted record must read as not found, got %v", err)
	}

	list, err := module.Handler.ListApplicationsHandler(context.Background(), owner, appservice.ListQuery{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 0 || len(list.List) != 0 {
		t.Fatalf("deleted record must not appear in listings, got total=%d", list.Total)
	}

	if err := module.Handler.DeleteApplicationHandler(context.Background(), admin, created.ID); !errors.Is(err, domainerrors.ErrApplicationNotFound) {
		t.Fatalf("deleting twice must read as not found, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	module := newApplicationModule()
	owner := studentCaller("student-1")

	req := validCreateRequest()
	req.Attachments = nil
	if _, err := module.Handler.CreateApplicationHandler(context.Background(), owner, req); !errors.Is(err, domainerrors.ErrInvalidApplicationInput) {
		t.Fatalf("expected invalid input without attachments, got %v", err)
	}

	req = validCreateRequest()
	req.Title = "   "
	if _, err := module.Handler.CreateApplicationHandler(context.Background(), owner, req); !errors.Is(err, domainerrors.ErrInvalidApplicationInput) {
		t.Fatalf("expected invalid input for blank title, got %v", err)
	}

	req = validCreateRequest()
	req.OccurredAt = "15/03/2026"
	if _, err := module.Handler.CreateApplicationHandler(context.Background(), owner, req); !errors.Is(err, domainerrors.ErrInvalidApplicationInput) {
		t.Fatalf("expected invalid input for malformed date, got %v", err)
	}

	if _, err := module.Handler.CreateApplicationHandler(context.Background(), ports.Caller{UserID: "teacher-1", Role: "teacher"}, validCreateRequest()); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-student create, got %v", err)
	}
}

func TestListScopesToOwner(t *testing.T) {
	module := newApplicationModule()

	if _, err := module.Handler.CreateApplicationHandler(context.Background(), studentCaller("student-1"), validCreateRequest()); err != nil {
		t.Fatalf("create for student-1 failed: %v", err)
	}
	other := validCreateRequest()
	other.Title = "Another achievement"
	if _, err := module.Handler.CreateApplicationHandler(context.Background(), studentCaller("student-2"), other); err != nil {
		t.Fatalf("create for student-2 failed: %v", err)
	}

	list, err := module.Handler.ListApplicationsHandler(context.Background(), studentCaller("student-1"), appservice.ListQuery{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("expected only the caller's own record, got total=%d", list.Total)
	}
}

func TestCategorySummaryAggregation(t *testing.T) {
	module := newApplicationModule()
	owner := studentCaller("student-1")

	for i := 0; i < 3; i++ {
		req := validCreateRequest()
		if i == 1 {
			req.Title = "Second entry"
		}
		if i == 2 {
			req.Title = "Third entry"
		}
		if _, err := module.Handler.CreateApplicationHandler(context.Background(), owner, req); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	summary, err := module.Handler.CategorySummaryHandler(context.Background(), owner, "2025-2026-1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Term != "2025-2026-1" {
		t.Fatalf("term must be echoed, got %q", summary.Term)
	}
	if len(summary.Categories) != 1 {
		t.Fatalf("expected one category bucket, got %d", len(summary.Categories))
	}
	bucket := summary.Categories[0]
	if bucket.Category != "intellectual" {
		t.Fatalf("expected intellectual bucket, got %s", bucket.Category)
	}
	if bucket.Count != 3 || bucket.Pending != 3 || bucket.Approved != 0 || bucket.Rejected != 0 {
		t.Fatalf("unexpected bucket counts: %+v", bucket)
	}
	if summary.TotalScore != 0 {
		t.Fatalf("unscored records must not contribute score, got %v", summary.TotalScore)
	}
}
