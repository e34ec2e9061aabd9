package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	statushttp "vitrine/contexts/merchant-onboarding/onboarding-status/transport/http"
)

func TestOnboardingStatusRequiresAuthorization(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/v1/complete", nil)
	req.Header.Set("X-User-Id", "user_1")

	rr := serve(server, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body statushttp.StatusResponse
	decodeBody(t, rr, &body)
	if body.Success || body.ErrorCode != statushttp.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized error code, got %+v", body)
	}
	if server.status.Store.Writes() != 0 {
		t.Fatalf("expected no status writes")
	}
}

func TestOnboardingStatusWithoutStoreReturnsNoStore(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/v1/skip", nil)
	authorize(req, "user_orphan")

	rr := serve(server, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body statushttp.StatusResponse
	decodeBody(t, rr, &body)
	if body.ErrorCode != statushttp.ErrorCodeNoStore {
		t.Fatalf("expected no_store, got %+v", body)
	}
}

func TestOnboardingStatusRejectsUnknownStatus(t *testing.T) {
	server := newTestServer()
	server.status.Store.SeedStore("user_1", "store_1", "")
	req := httptest.NewRequest(http.MethodPut, "/api/onboarding/v1/status", strings.NewReader(`{"status":"finished"}`))
	authorize(req, "user_1")

	rr := serve(server, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body statushttp.StatusResponse
	decodeBody(t, rr, &body)
	if body.ErrorCode != statushttp.ErrorCodeInvalidStatus {
		t.Fatalf("expected invalid_status, got %+v", body)
	}
}

func TestOnboardingCompleteThenGatingHidesOnboarding(t *testing.T) {
	server := newTestServer()
	server.status.Store.SeedStore("user_1", "store_1", "in_progress")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/onboarding/v1/complete", nil)
		authorize(req, "user_1")
		rr := serve(server, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 on attempt %d, got %d body=%s", i+1, rr.Code, rr.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding/v1/status", nil)
	authorize(req, "user_1")
	rr := serve(server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body statushttp.StatusResponse
	decodeBody(t, rr, &body)
	if body.Status != "completed" || body.ShowsOnboarding == nil || *body.ShowsOnboarding {
		t.Fatalf("expected completed and hidden onboarding, got %+v", body)
	}
}
