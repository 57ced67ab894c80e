package unit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	reviewertokenservice "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/entities"
	tokenerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/errors"
	tokenports "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"
	tokenhttp "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/transport/http"
	authorization "github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service"
)

func newTokenModule(seed ...tokenports.UserProfile) reviewertokenservice.Module {
	return reviewertokenservice.NewInMemoryModule(seed, authorization.Policy{}, nil)
}

func teacherTokenCaller() tokenports.Caller {
	return tokenports.Caller{UserID: "teacher-1", Role: "teacher"}
}

func studentTokenCaller(id string, classID int) tokenports.Caller {
	return tokenports.Caller{UserID: id, Role: "student", ClassID: classID}
}

func issueToken(t *testing.T, module reviewertokenservice.Module, classIDs []int) tokenhttp.TokenResponse {
	t.Helper()
	resp, err := module.Handler.IssueTokenHandler(context.Background(), teacherTokenCaller(), tokenhttp.IssueTokenRequest{
		ClassIDs:  classIDs,
		ExpiredAt: time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	return resp
}

func TestIssueTokenValidation(t *testing.T) {
	module := newTokenModule()

	issued := issueToken(t, module, []int{101, 102})
	if !strings.HasPrefix(issued.Token, "rvw_") || len(issued.Token) != len("rvw_")+16 {
		t.Fatalf("unexpected secret format: %q", issued.Token)
	}
	if issued.Status != "active" {
		t.Fatalf("fresh token must be active, got %s", issued.Status)
	}

	_, err := module.Handler.IssueTokenHandler(context.Background(), teacherTokenCaller(), tokenhttp.IssueTokenRequest{
		ClassIDs:  nil,
		ExpiredAt: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if !errors.Is(err, tokenerrors.ErrInvalidTokenInput) {
		t.Fatalf("expected invalid input without class ids, got %v", err)
	}

	_, err = module.Handler.IssueTokenHandler(context.Background(), teacherTokenCaller(), tokenhttp.IssueTokenRequest{
		ClassIDs:  []int{101},
		ExpiredAt: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	})
	if !errors.Is(err, tokenerrors.ErrInvalidTokenInput) {
		t.Fatalf("expected invalid input for past expiry, got %v", err)
	}

	_, err = module.Handler.IssueTokenHandler(context.Background(), studentTokenCaller("student-1", 101), tokenhttp.IssueTokenRequest{
		ClassIDs:  []int{101},
		ExpiredAt: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if !errors.Is(err, tokenerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for student issuing, got %v", err)
	}
}

func TestActivateTokenPromotesStudent(t *testing.T) {
	module := newTokenModule(
		tokenports.UserProfile{UserID: "student-1", Role: "student", ClassID: 101},
		tokenports.UserProfile{UserID: "student-2", Role: "student", ClassID: 101},
	)
	issued := issueToken(t, module, []int{101})

	activated, err := module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-1", 101), tokenhttp.ActivateTokenRequest{Token: issued.Token})
	if err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if activated.ActivatedUserID != "student-1" {
		t.Fatalf("expected binding to student-1, got %q", activated.ActivatedUserID)
	}
	if activated.Token != "" {
		t.Fatal("activation response must not leak the secret")
	}

	user, ok := module.Store.UserProfile("student-1")
	if !ok || !user.IsReviewer {
		t.Fatalf("activation must flip the reviewer flag, got %+v", user)
	}

	_, err = module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-2", 101), tokenhttp.ActivateTokenRequest{Token: issued.Token})
	if !errors.Is(err, tokenerrors.ErrTokenConsumed) {
		t.Fatalf("expected consumed for second activation, got %v", err)
	}
	_, err = module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-1", 101), tokenhttp.ActivateTokenRequest{Token: issued.Token})
	if !errors.Is(err, tokenerrors.ErrTokenConsumed) {
		t.Fatalf("expected consumed even for the same user retrying, got %v", err)
	}
}

func TestActivateTokenGuards(t *testing.T) {
	module := newTokenModule(
		tokenports.UserProfile{UserID: "student-1", Role: "student", ClassID: 205},
	)
	issued := issueToken(t, module, []int{101})

	_, err := module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-1", 205), tokenhttp.ActivateTokenRequest{Token: issued.Token})
	if !errors.Is(err, tokenerrors.ErrClassNotEligible) {
		t.Fatalf("expected class mismatch rejection, got %v", err)
	}

	_, err = module.Handler.ActivateTokenHandler(context.Background(), teacherTokenCaller(), tokenhttp.ActivateTokenRequest{Token: issued.Token})
	if !errors.Is(err, tokenerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-student activation, got %v", err)
	}

	_, err = module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-1", 205), tokenhttp.ActivateTokenRequest{Token: "rvw_missingsecret00"})
	if !errors.Is(err, tokenerrors.ErrTokenNotFound) {
		t.Fatalf("expected not found for unknown secret, got %v", err)
	}
}

func TestActivateExpiredTokenConflicts(t *testing.T) {
	module := newTokenModule(
		tokenports.UserProfile{UserID: "student-1", Role: "student", ClassID: 101},
	)
	expired := entities.ReviewerToken{
		ID:          "tok-expired",
		TokenSecret: "rvw_expiredsecret00",
		Type:        entities.TokenTypeReviewer,
		ClassIDs:    []int{101},
		Status:      entities.TokenStatusActive,
		ExpiredAt:   time.Now().UTC().Add(-time.Hour),
		CreatedAt:   time.Now().UTC().Add(-48 * time.Hour),
		CreatedBy:   "teacher-1",
	}
	if err := module.Store.CreateToken(context.Background(), expired); err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	_, err := module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-1", 101), tokenhttp.ActivateTokenRequest{Token: expired.TokenSecret})
	if !errors.Is(err, tokenerrors.ErrTokenExpired) {
		t.Fatalf("expected expired rejection, got %v", err)
	}
}

func TestConcurrentActivationsOneReviewer(t *testing.T) {
	const racers = 12

	seed := make([]tokenports.UserProfile, 0, racers)
	for i := 0; i < racers; i++ {
		seed = append(seed, tokenports.UserProfile{UserID: raceUserID(i), Role: "student", ClassID: 101})
	}
	module := newTokenModule(seed...)
	issued := issueToken(t, module, []int{101})

	var wg sync.WaitGroup
	wins := make(chan string, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(candidate string) {
			defer wg.Done()
			_, err := module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller(candidate, 101), tokenhttp.ActivateTokenRequest{Token: issued.Token})
			if err == nil {
				wins <- candidate
			}
		}(raceUserID(i))
	}
	wg.Wait()
	close(wins)

	var winners []string
	for winner := range wins {
		winners = append(winners, winner)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winning activation, got %d", len(winners))
	}
	for i := 0; i < racers; i++ {
		user, _ := module.Store.UserProfile(raceUserID(i))
		if user.UserID == winners[0] {
			if !user.IsReviewer {
				t.Fatalf("winner %q must carry the reviewer flag", winners[0])
			}
			continue
		}
		if user.IsReviewer {
			t.Fatalf("loser %q must not carry the reviewer flag", user.UserID)
		}
	}
}

func TestRevokeTokenIsIdempotentAndDemotes(t *testing.T) {
	module := newTokenModule(
		tokenports.UserProfile{UserID: "student-1", Role: "student", ClassID: 101},
	)
	issued := issueToken(t, module, []int{101})

	if _, err := module.Handler.ActivateTokenHandler(context.Background(), studentTokenCaller("student-1", 101), tokenhttp.ActivateTokenRequest{Token: issued.Token}); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	revoked, err := module.Handler.RevokeTokenHandler(context.Background(), teacherTokenCaller(), issued.ID)
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.Status != "revoked" {
		t.Fatalf("expected revoked status, got %s", revoked.Status)
	}
	if revoked.ActivatedUserID != "student-1" {
		t.Fatalf("revocation must keep the activation record, got %q", revoked.ActivatedUserID)
	}
	if user, _ := module.Store.UserProfile("student-1"); user.IsReviewer {
		t.Fatal("revocation must clear the reviewer flag")
	}

	again, err := module.Handler.RevokeTokenHandler(context.Background(), teacherTokenCaller(), issued.ID)
	if err != nil {
		t.Fatalf("second revoke must succeed as no-op: %v", err)
	}
	if again.Status != "revoked" {
		t.Fatalf("expected revoked status on repeat, got %s", again.Status)
	}

	_, err = module.Handler.RevokeTokenHandler(context.Background(), studentTokenCaller("student-1", 101), issued.ID)
	if !errors.Is(err, tokenerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for student revoking, got %v", err)
	}
}

func TestListTokensDerivesStatus(t *testing.T) {
	module := newTokenModule()
	issueToken(t, module, []int{101})

	expired := entities.ReviewerToken{
		ID:          "tok-expired",
		TokenSecret: "rvw_expiredsecret01",
		Type:        entities.TokenTypeReviewer,
		ClassIDs:    []int{101},
		Status:      entities.TokenStatusActive,
		ExpiredAt:   time.Now().UTC().Add(-time.Hour),
		CreatedAt:   time.Now().UTC().Add(-48 * time.Hour),
		CreatedBy:   "teacher-1",
	}
	if err := module.Store.CreateToken(context.Background(), expired); err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	all, err := module.Handler.ListTokensHandler(context.Background(), teacherTokenCaller(), "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected two tokens, got %d", all.Total)
	}

	expiredOnly, err := module.Handler.ListTokensHandler(context.Background(), teacherTokenCaller(), "expired", 1, 10)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if expiredOnly.Total != 1 || expiredOnly.List[0].ID != "tok-expired" {
		t.Fatalf("expected only the expired token, got %+v", expiredOnly)
	}
	if expiredOnly.List[0].Status != "expired" {
		t.Fatalf("expiry must be derived at read time, got %s", expiredOnly.List[0].Status)
	}

	_, err = module.Handler.ListTokensHandler(context.Background(), teacherTokenCaller(), "bogus", 1, 10)
	if !errors.Is(err, tokenerrors.ErrInvalidTokenInput) {
		t.Fatalf("expected invalid status filter rejection, got %v", err)
	}
}

func raceUserID(i int) string {
	return "student-" + string(rune('a'+i))
}
