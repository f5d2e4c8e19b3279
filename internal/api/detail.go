package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/colefield/sift/internal/classifications"
	"github.com/colefield/sift/internal/emails"
	"github.com/colefield/sift/internal/reviews"
	"github.com/colefield/sift/pkg/handlers"
	"github.com/colefield/sift/pkg/routes"
)

// EmailDetail is the review surface for a single email: the email itself,
// its most recent classification, and its most recent human review. The
// classification and review are null when none exist yet.
type EmailDetail struct {
	Email          *emails.Email                   `json:"email"`
	Classification *classifications.Classification `json:"classification"`
	Review         *reviews.Review                 `json:"review"`
}

type detailHandler struct {
	emails          emails.System
	classifications classifications.System
	reviews         reviews.System
	logger          *slog.Logger
}

func newDetailHandler(
	em emails.System,
	cl classifications.System,
	rv reviews.System,
	logger *slog.Logger,
) *detailHandler {
	return &detailHandler{
		emails:          em,
		classifications: cl,
		reviews:         rv,
		logger:          logger.With("handler", "detail"),
	}
}

func (h *detailHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/emails",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/detail", Handler: h.detail},
		},
	}
}

func (h *detailHandler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			http.StatusBadRequest, errors.New("invalid email id"),
		)
		return
	}

	email, err := h.emails.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			emails.MapHTTPStatus(err), err,
		)
		return
	}

	detail := EmailDetail{Email: email}

	classification, err := h.classifications.LatestByEmail(r.Context(), id)
	switch {
	case err == nil:
		detail.Classification = classification
	case !errors.Is(err, classifications.ErrNotFound):
		handlers.RespondError(
			w, h.logger,
			classifications.MapHTTPStatus(err), err,
		)
		return
	}

	review, err := h.reviews.LatestByEmail(r.Context(), id)
	switch {
	case err == nil:
		detail.Review = review
	case !errors.Is(err, reviews.ErrNotFound):
		handlers.RespondError(
			w, h.logger,
			reviews.MapHTTPStatus(err), err,
		)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, detail)
}
