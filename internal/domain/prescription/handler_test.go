package prescription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

func newTestContext(method, path, body string, ident auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	if body == "" {
		body = "{}"
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestHandlerCreate(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	until := time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	body := fmt.Sprintf(`{"patient_id":%q,"kind":"medication","title":"Dipirona 1g","valid_until":%q}`,
		f.patient.ID, until)
	c, rec := newTestContext(http.MethodPost, "/api/receitas/", body, f.doctor)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var p Prescription
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.CurrentlyValid {
		t.Errorf("expected currently_valid in response")
	}
}

func TestHandlerListWithFilters(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	if _, err := f.svc.Create(context.Background(), f.doctor, f.validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/api/receitas/?status=active&kind=medication", "", f.admin)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

func TestHandlerListBadPatientFilter(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newTestContext(http.MethodGet, "/api/receitas/?patient_id=abc", "", f.admin)
	err := h.List(c)
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apperr.StatusOf(err))
	}
}

func TestHandlerSuspendFinalize(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	seeded, err := f.svc.Create(context.Background(), f.doctor, f.validInput())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	c, rec := newTestContext(http.MethodPatch, "/api/receitas/"+seeded.ID.String()+"/suspender/", "", f.doctor)
	c.SetParamNames("id")
	c.SetParamValues(seeded.ID.String())
	if err := h.Suspend(c); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	c, _ = newTestContext(http.MethodPatch, "/api/receitas/"+seeded.ID.String()+"/finalizar/", "", f.doctor)
	c.SetParamNames("id")
	c.SetParamValues(seeded.ID.String())
	if err := h.Finalize(c); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// Now terminal.
	c, _ = newTestContext(http.MethodPatch, "/api/receitas/"+seeded.ID.String()+"/suspender/", "", f.doctor)
	c.SetParamNames("id")
	c.SetParamValues(seeded.ID.String())
	err = h.Suspend(c)
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apperr.StatusOf(err))
	}
}
