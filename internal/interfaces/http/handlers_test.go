package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/insurhub/underwriter/internal/application/service"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/workflow"
)

type stubUnderwritingService struct {
	submitFunc func(ctx context.Context, userID int64, req service.ApplicationRequest) (*entity.Application, error)
	decideFunc func(ctx context.Context, id int64, decision workflow.Decision, notes string) (*entity.Application, error)
}

func (s *stubUnderwritingService) SubmitApplication(ctx context.Context, userID int64, req service.ApplicationRequest) (*entity.Application, error) {
	if s.submitFunc != nil {
		return s.submitFunc(ctx, userID, req)
	}
	return &entity.Application{ID: 1, UserID: userID, Status: entity.ApplicationActive}, nil
}

func (s *stubUnderwritingService) Decide(ctx context.Context, id int64, decision workflow.Decision, notes string) (*entity.Application, error) {
	if s.decideFunc != nil {
		return s.decideFunc(ctx, id, decision, notes)
	}
	return &entity.Application{ID: id, Status: entity.ApplicationActive}, nil
}

func (s *stubUnderwritingService) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	return &entity.Application{ID: id, Status: entity.ApplicationPendingApproval}, nil
}

func (s *stubUnderwritingService) ListPending(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	return []*entity.Application{}, nil
}

type stubClaimService struct {
	submitFunc func(ctx context.Context, userID int64, req service.ClaimRequest) (*entity.Claim, error)
	decideFunc func(ctx context.Context, claimID, adminID int64, decision workflow.Decision, notes string) (*entity.Claim, error)
	listFunc   func(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error)
}

func (s *stubClaimService) SubmitClaim(ctx context.Context, userID int64, req service.ClaimRequest) (*entity.Claim, error) {
	if s.submitFunc != nil {
		return s.submitFunc(ctx, userID, req)
	}
	return &entity.Claim{ID: 1, SubmittedBy: userID, Status: entity.ClaimApproved}, nil
}

func (s *stubClaimService) Decide(ctx context.Context, claimID, adminID int64, decision workflow.Decision, notes string) (*entity.Claim, error) {
	if s.decideFunc != nil {
		return s.decideFunc(ctx, claimID, adminID, decision, notes)
	}
	return &entity.Claim{ID: claimID, Status: entity.ClaimApproved}, nil
}

func (s *stubClaimService) Reanalyze(ctx context.Context, claimID int64) (*entity.Claim, error) {
	return &entity.Claim{ID: claimID, Status: entity.ClaimPendingAdminReview}, nil
}

func (s *stubClaimService) MarkPaid(ctx context.Context, claimID int64) (*entity.Claim, error) {
	return &entity.Claim{ID: claimID, Status: entity.ClaimPaid}, nil
}

func (s *stubClaimService) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	return &entity.Claim{ID: id, Status: entity.ClaimUnderReview}, nil
}

func (s *stubClaimService) GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error) {
	return &entity.Claim{ID: 1, ClaimNumber: number}, nil
}

func (s *stubClaimService) ListPending(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, status, limit, offset)
	}
	return []*entity.Claim{}, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(uw service.UnderwritingService, cs service.ClaimService) *Server {
	if uw == nil {
		uw = &stubUnderwritingService{}
	}
	if cs == nil {
		cs = &stubClaimService{}
	}
	return NewServer(DefaultServerConfig(), uw, cs, nil, nopLogger{})
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func userHeaders() map[string]string {
	return map[string]string{"X-User-ID": "7"}
}

func adminHeaders() map[string]string {
	return map[string]string{"X-User-ID": "1", "X-Role": "ADMIN"}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealthCheck(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil), http.MethodGet, "/health", nil, nil)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp := decodeResponse(t, rec); !resp.Success {
		t.Error("expected success response")
	}
}

func TestIdentityMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing user header", nil, http.StatusUnauthorized},
		{"malformed user id", map[string]string{"X-User-ID": "abc"}, http.StatusUnauthorized},
		{"invalid role", map[string]string{"X-User-ID": "7", "X-Role": "SUPERUSER"}, http.StatusUnauthorized},
		{"valid user", userHeaders(), http.StatusOK},
		{"role defaults to user", map[string]string{"X-User-ID": "7"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, newTestServer(nil, nil), http.MethodGet, "/api/applications/1", nil, tt.headers)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/applications/pending"},
		{http.MethodPost, "/api/applications/3/decision"},
		{http.MethodGet, "/api/claims/pending"},
		{http.MethodPost, "/api/claims/3/decision"},
		{http.MethodPost, "/api/claims/3/reanalyze"},
		{http.MethodPost, "/api/claims/3/paid"},
	}

	srv := newTestServer(nil, nil)
	for _, p := range paths {
		rec := doRequest(t, srv, p.method, p.path, nil, userHeaders())
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d, want %d", p.method, p.path, rec.Code, http.StatusForbidden)
		}
	}
}

func TestSubmitApplicationPassesCallerIdentity(t *testing.T) {
	var gotUserID int64
	uw := &stubUnderwritingService{
		submitFunc: func(ctx context.Context, userID int64, req service.ApplicationRequest) (*entity.Application, error) {
			gotUserID = userID
			return &entity.Application{ID: 42, UserID: userID, Status: entity.ApplicationActive}, nil
		},
	}

	body := service.ApplicationRequest{PolicyID: 1, Age: 30, AnnualSalaryCents: 600_000_00}
	rec := doRequest(t, newTestServer(uw, nil), http.MethodPost, "/api/applications", body, userHeaders())

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if gotUserID != 7 {
		t.Errorf("userID = %d, want 7", gotUserID)
	}
}

func TestSubmitApplicationRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-User-ID", "7")

	rec := httptest.NewRecorder()
	newTestServer(nil, nil).Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", entity.ErrValidation, http.StatusBadRequest},
		{"not found", entity.ErrNotFound, http.StatusNotFound},
		{"duplicate", entity.ErrDuplicateApplication, http.StatusConflict},
		{"conflict", entity.ErrConflict, http.StatusConflict},
		{"already decided", workflow.ErrAlreadyDecided, http.StatusConflict},
		{"invalid transition", workflow.ErrInvalidTransition, http.StatusConflict},
		{"inactive application", entity.ErrPolicyNotActive, http.StatusUnprocessableEntity},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uw := &stubUnderwritingService{
				submitFunc: func(ctx context.Context, userID int64, req service.ApplicationRequest) (*entity.Application, error) {
					return nil, tt.err
				},
			}
			body := service.ApplicationRequest{PolicyID: 1, Age: 30, AnnualSalaryCents: 600_000_00}
			rec := doRequest(t, newTestServer(uw, nil), http.MethodPost, "/api/applications", body, userHeaders())

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp := decodeResponse(t, rec); resp.Success {
				t.Error("expected failure response")
			}
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	uw := &stubUnderwritingService{
		submitFunc: func(ctx context.Context, userID int64, req service.ApplicationRequest) (*entity.Application, error) {
			return nil, context.DeadlineExceeded
		},
	}
	body := service.ApplicationRequest{PolicyID: 1, Age: 30, AnnualSalaryCents: 600_000_00}
	rec := doRequest(t, newTestServer(uw, nil), http.MethodPost, "/api/applications", body, userHeaders())

	resp := decodeResponse(t, rec)
	if resp.Error != "internal server error" {
		t.Errorf("error = %q, want generic message", resp.Error)
	}
}

func TestDecideClaimPassesAdminIdentity(t *testing.T) {
	var gotAdminID int64
	var gotDecision workflow.Decision
	cs := &stubClaimService{
		decideFunc: func(ctx context.Context, claimID, adminID int64, decision workflow.Decision, notes string) (*entity.Claim, error) {
			gotAdminID = adminID
			gotDecision = decision
			return &entity.Claim{ID: claimID, Status: entity.ClaimApproved}, nil
		},
	}

	body := map[string]string{"decision": "APPROVE", "notes": "verified documents"}
	rec := doRequest(t, newTestServer(nil, cs), http.MethodPost, "/api/claims/5/decision", body, adminHeaders())

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAdminID != 1 {
		t.Errorf("adminID = %d, want 1", gotAdminID)
	}
	if gotDecision != workflow.DecisionApprove {
		t.Errorf("decision = %q, want APPROVE", gotDecision)
	}
}

func TestListPendingClaimsDefaultsAndPaging(t *testing.T) {
	var gotStatus entity.ClaimStatus
	var gotLimit, gotOffset int
	cs := &stubClaimService{
		listFunc: func(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error) {
			gotStatus = status
			gotLimit = limit
			gotOffset = offset
			return []*entity.Claim{}, nil
		},
	}
	srv := newTestServer(nil, cs)

	doRequest(t, srv, http.MethodGet, "/api/claims/pending", nil, adminHeaders())
	if gotStatus != entity.ClaimPendingAdminReview {
		t.Errorf("status = %q, want %q", gotStatus, entity.ClaimPendingAdminReview)
	}
	if gotLimit != 20 || gotOffset != 0 {
		t.Errorf("paging = (%d, %d), want (20, 0)", gotLimit, gotOffset)
	}

	doRequest(t, srv, http.MethodGet, "/api/claims/pending?status=UNDER_REVIEW&limit=50&offset=10", nil, adminHeaders())
	if gotStatus != entity.ClaimUnderReview {
		t.Errorf("status = %q, want %q", gotStatus, entity.ClaimUnderReview)
	}
	if gotLimit != 50 || gotOffset != 10 {
		t.Errorf("paging = (%d, %d), want (50, 10)", gotLimit, gotOffset)
	}

	// Oversized limits fall back to the default.
	doRequest(t, srv, http.MethodGet, "/api/claims/pending?limit=5000", nil, adminHeaders())
	if gotLimit != 20 {
		t.Errorf("limit = %d, want 20", gotLimit)
	}
}

func TestInvalidPathID(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil), http.MethodGet, "/api/claims/abc", nil, userHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
