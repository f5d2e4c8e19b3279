package reviews_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/colefield/sift/internal/reviews"
)

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("email_id", "3")
	values.Set("reviewer", "jdoe")
	values.Set("final_responsive", "false")
	values.Set("changed_from_pred", "true")

	f := reviews.FiltersFromQuery(values)

	if f.EmailID == nil || *f.EmailID != 3 {
		t.Errorf("email_id = %v, want 3", f.EmailID)
	}
	if f.Reviewer == nil || *f.Reviewer != "jdoe" {
		t.Errorf("reviewer = %v", f.Reviewer)
	}
	if f.FinalResponsive == nil || *f.FinalResponsive {
		t.Errorf("final_responsive = %v, want false", f.FinalResponsive)
	}
	if f.ChangedFromPred == nil || !*f.ChangedFromPred {
		t.Errorf("changed_from_pred = %v, want true", f.ChangedFromPred)
	}
}

func TestFiltersFromQueryEmpty(t *testing.T) {
	f := reviews.FiltersFromQuery(url.Values{})

	if f.EmailID != nil || f.Reviewer != nil || f.FinalResponsive != nil || f.ChangedFromPred != nil {
		t.Errorf("empty query should leave all filters nil: %+v", f)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", reviews.ErrNotFound, http.StatusNotFound},
		{"duplicate", reviews.ErrDuplicate, http.StatusConflict},
		{"invalid reviewer", reviews.ErrInvalidReviewer, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reviews.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
