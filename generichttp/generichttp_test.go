package generichttp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetFloatEncodesPayload(t *testing.T) {
	h := GetFloat(func() (float64, error) { return 3.5, nil })
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"f64":3.5}` {
		t.Errorf("unexpected body %q", body)
	}
}

func TestSetFloatDecodesPayload(t *testing.T) {
	var got float64
	h := SetFloat(func(f float64) error { got = f; return nil })
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"f64":-2.25}`))
	h(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got != -2.25 {
		t.Errorf("expected -2.25, got %g", got)
	}
}

func TestSetFloatRejectsGarbage(t *testing.T) {
	h := SetFloat(func(float64) error { return nil })
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("not json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCallSurfacesErrors(t *testing.T) {
	h := Call(func() error { return errors.New("interlock open") })
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "interlock open") {
		t.Errorf("error text lost: %q", w.Body.String())
	}
}

func TestGetStringEncodesPayload(t *testing.T) {
	h := GetString(func() (string, error) { return "LSCI,MODEL211", nil })
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if body := strings.TrimSpace(w.Body.String()); body != `{"str":"LSCI,MODEL211"}` {
		t.Errorf("unexpected body %q", body)
	}
}
