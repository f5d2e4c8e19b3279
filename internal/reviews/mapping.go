package reviews

import (
	"net/url"
	"strconv"

	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reviews", "rv").
	Project("id", "ID").
	Project("email_id", "EmailID").
	Project("reviewer", "Reviewer").
	Project("final_responsive", "FinalResponsive").
	Project("note", "Note").
	Project("changed_from_pred", "ChangedFromPred").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for review queries.
// Nil fields are ignored.
type Filters struct {
	EmailID         *int64  `json:"email_id,omitempty"`
	Reviewer        *string `json:"reviewer,omitempty"`
	FinalResponsive *bool   `json:"final_responsive,omitempty"`
	ChangedFromPred *bool   `json:"changed_from_pred,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("EmailID", f.EmailID).
		WhereEquals("Reviewer", f.Reviewer).
		WhereEquals("FinalResponsive", f.FinalResponsive).
		WhereEquals("ChangedFromPred", f.ChangedFromPred)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if eid := values.Get("email_id"); eid != "" {
		if v, err := strconv.ParseInt(eid, 10, 64); err == nil {
			f.EmailID = &v
		}
	}

	if rv := values.Get("reviewer"); rv != "" {
		f.Reviewer = &rv
	}

	if fr := values.Get("final_responsive"); fr != "" {
		if v, err := strconv.ParseBool(fr); err == nil {
			f.FinalResponsive = &v
		}
	}

	if ch := values.Get("changed_from_pred"); ch != "" {
		if v, err := strconv.ParseBool(ch); err == nil {
			f.ChangedFromPred = &v
		}
	}

	return f
}

func scanReview(s repository.Scanner) (Review, error) {
	var r Review
	err := s.Scan(
		&r.ID,
		&r.EmailID,
		&r.Reviewer,
		&r.FinalResponsive,
		&r.Note,
		&r.ChangedFromPred,
		&r.CreatedAt,
	)
	return r, err
}
