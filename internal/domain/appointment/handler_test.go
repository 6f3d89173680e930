package appointment

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

func newTestContext(f *fixture, method, path, body string, ident auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestHandlerCreate(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	when := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"doctor_id":%q,"scheduled_at":%q,"modality":"telemedicine"}`,
		f.doctor.ID, when)
	c, rec := newTestContext(f, http.MethodPost, "/api/agendamentos/", body, f.patient)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.PatientID != f.patient.ID {
		t.Errorf("patient id = %s, want caller", a.PatientID)
	}
	if a.Modality != ModalityTelemedicine {
		t.Errorf("modality = %s", a.Modality)
	}
}

func TestHandlerCreateInvalidBody(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newTestContext(f, http.MethodPost, "/api/agendamentos/", `{"scheduled_at":`, f.patient)
	err := h.Create(c)
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apperr.StatusOf(err))
	}
}

func TestHandlerGetBadID(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newTestContext(f, http.MethodGet, "/api/agendamentos/abc/", "", f.admin)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apperr.StatusOf(err))
	}
}

func TestHandlerCancel(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	a, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	c, rec := newTestContext(f, http.MethodPatch, "/api/agendamentos/"+a.ID.String()+"/cancelar/",
		`{"reason":"imprevisto"}`, f.patient)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var cancelled Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestHandlerListPaginated(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	if _, err := f.svc.Create(context.Background(), f.admin, f.validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c, rec := newTestContext(f, http.MethodGet, "/api/agendamentos/?limit=10", "", f.admin)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
	if resp.Limit != 10 {
		t.Errorf("limit = %d, want 10", resp.Limit)
	}
}

func TestHandlerUnauthenticated(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	req := httptest.NewRequest(http.MethodGet, "/api/agendamentos/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.List(c)
	if apperr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", apperr.StatusOf(err))
	}
}
