package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/api/middleware"
	"github.com/vendora/vendora-backend/internal/withdrawals"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

type fakeWithdrawalService struct {
	requested  []withdrawals.RequestInput
	requestErr error
	approved   []uuid.UUID
}

func (f *fakeWithdrawalService) Request(_ context.Context, input withdrawals.RequestInput) (*models.Withdrawal, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	f.requested = append(f.requested, input)
	return &models.Withdrawal{
		ID:          uuid.New(),
		BusinessID:  input.BusinessID,
		AmountMinor: input.AmountMinor,
		Status:      enums.WithdrawalStatusPending,
	}, nil
}

func (f *fakeWithdrawalService) Approve(_ context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	f.approved = append(f.approved, withdrawalID)
	return &models.Withdrawal{ID: withdrawalID, Status: enums.WithdrawalStatusApproved}, nil
}

func (f *fakeWithdrawalService) Reject(_ context.Context, withdrawalID uuid.UUID, note string) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: withdrawalID, Status: enums.WithdrawalStatusRejected, Note: note}, nil
}

func (f *fakeWithdrawalService) MarkPaid(_ context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: withdrawalID, Status: enums.WithdrawalStatusPaid}, nil
}

func (f *fakeWithdrawalService) GetWithdrawal(_ context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: withdrawalID}, nil
}

func (f *fakeWithdrawalService) ListForBusiness(context.Context, uuid.UUID, int) ([]models.Withdrawal, error) {
	return nil, nil
}

func (f *fakeWithdrawalService) ListPending(context.Context, int) ([]models.Withdrawal, error) {
	return nil, nil
}

func vendorRequest(method, target, body string, businessID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithBusinessID(req.Context(), businessID.String())
	return req.WithContext(ctx)
}

func TestVendorWithdrawalRequestCreates(t *testing.T) {
	svc := &fakeWithdrawalService{}
	businessID := uuid.New()
	req := vendorRequest(http.MethodPost, "/api/v1/withdrawals",
		`{"amount_minor":50000,"currency":"NGN","payout_details":{"bank":"044"}}`, businessID)
	resp := httptest.NewRecorder()
	VendorWithdrawalRequest(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if len(svc.requested) != 1 {
		t.Fatalf("expected one request, got %d", len(svc.requested))
	}
	input := svc.requested[0]
	if input.BusinessID != businessID || input.AmountMinor != 50000 || input.Currency != enums.CurrencyNGN {
		t.Fatalf("unexpected input %+v", input)
	}
}

func TestVendorWithdrawalRequestRejectsMissingBusiness(t *testing.T) {
	svc := &fakeWithdrawalService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals",
		strings.NewReader(`{"amount_minor":50000,"currency":"NGN","payout_details":{}}`))
	resp := httptest.NewRecorder()
	VendorWithdrawalRequest(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if len(svc.requested) != 0 {
		t.Fatal("request should not reach the service")
	}
}

func TestVendorWithdrawalRequestSurfacesInsufficientBalance(t *testing.T) {
	svc := &fakeWithdrawalService{requestErr: withdrawals.ErrInsufficientBalance}
	req := vendorRequest(http.MethodPost, "/api/v1/withdrawals",
		`{"amount_minor":50000,"currency":"NGN","payout_details":{}}`, uuid.New())
	resp := httptest.NewRecorder()
	VendorWithdrawalRequest(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestVendorWithdrawalRequestValidatesBody(t *testing.T) {
	svc := &fakeWithdrawalService{}
	req := vendorRequest(http.MethodPost, "/api/v1/withdrawals",
		`{"amount_minor":0,"currency":"NGN","payout_details":{}}`, uuid.New())
	resp := httptest.NewRecorder()
	VendorWithdrawalRequest(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminWithdrawalApprove(t *testing.T) {
	svc := &fakeWithdrawalService{}
	withdrawalID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/withdrawals/"+withdrawalID.String()+"/approve", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("withdrawalId", withdrawalID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	AdminWithdrawalApprove(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.approved) != 1 || svc.approved[0] != withdrawalID {
		t.Fatalf("expected approve call for %s, got %v", withdrawalID, svc.approved)
	}
}
