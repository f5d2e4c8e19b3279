package classifications_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/colefield/sift/internal/classifications"
)

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("email_id", "12")
	values.Set("run_id", "run-abc")
	values.Set("model", "llama3.1:8b")
	values.Set("status", "completed")
	values.Set("responsive", "true")

	f := classifications.FiltersFromQuery(values)

	if f.EmailID == nil || *f.EmailID != 12 {
		t.Errorf("email_id = %v, want 12", f.EmailID)
	}
	if f.RunID == nil || *f.RunID != "run-abc" {
		t.Errorf("run_id = %v", f.RunID)
	}
	if f.Model == nil || *f.Model != "llama3.1:8b" {
		t.Errorf("model = %v", f.Model)
	}
	if f.Status == nil || *f.Status != "completed" {
		t.Errorf("status = %v", f.Status)
	}
	if f.Responsive == nil || !*f.Responsive {
		t.Errorf("responsive = %v", f.Responsive)
	}
}

func TestFiltersFromQueryInvalidValuesIgnored(t *testing.T) {
	values := url.Values{}
	values.Set("email_id", "twelve")
	values.Set("responsive", "maybe")

	f := classifications.FiltersFromQuery(values)

	if f.EmailID != nil {
		t.Errorf("invalid email_id should be ignored, got %v", f.EmailID)
	}
	if f.Responsive != nil {
		t.Errorf("invalid responsive should be ignored, got %v", f.Responsive)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", classifications.ErrNotFound, http.StatusNotFound},
		{"duplicate", classifications.ErrDuplicate, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifications.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
