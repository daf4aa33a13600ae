package httpjson

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status: want %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type: %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "nope" {
		t.Fatalf("error: want %q, got %q", "nope", body["error"])
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","extra":1}`))
	if err := Decode(req, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Email != "a@b.com" {
		t.Fatalf("email: %q", v.Email)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := Decode(req, &v); err == nil {
		t.Fatalf("expected error on empty body")
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := Decode(req, &v); err == nil {
		t.Fatalf("expected error on invalid json")
	}
}
