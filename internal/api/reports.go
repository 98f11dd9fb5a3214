package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/report"
	"github.com/edgard/chatinsight/internal/service"
)

// SummarizeRequest is the body of POST /api/summarize. An empty summary type means total.
type SummarizeRequest struct {
	GroupName   string `json:"group_name"   validate:"required"`
	SummaryType string `json:"summary_type"`
	StartDate   string `json:"start_date"   validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date"     validate:"omitempty,datetime=2006-01-02"`
	User        string `json:"user"`
}

// ActivityRequest is the body of POST /api/activity.
type ActivityRequest struct {
	GroupName       string `json:"group_name"       validate:"required"`
	SpecificDate    string `json:"specific_date"    validate:"omitempty,datetime=2006-01-02"`
	WeekStart       string `json:"week_start"       validate:"omitempty,datetime=2006-01-02"`
	WeekEnd         string `json:"week_end"         validate:"omitempty,datetime=2006-01-02"`
	StartDate       string `json:"start_date"       validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"end_date"         validate:"omitempty,datetime=2006-01-02"`
	User            string `json:"user"`
	IncludeMessages bool   `json:"include_messages"`
}

// SentimentRequest is the body of POST /api/sentiment.
type SentimentRequest struct {
	GroupName string `json:"group_name" validate:"required"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"omitempty,datetime=2006-01-02"`
}

// bindReport decodes and validates a report body, returning the client
// message when it is unusable.
func bindReport(c echo.Context, req any) (string, bool) {
	if err := c.Bind(req); err != nil {
		return "Invalid JSON data", false
	}
	if err := c.Validate(req); err != nil {
		return validationMessage(err), false
	}
	return "", true
}

// parseDates parses optional ISO dates in order, stopping at the first bad one.
func parseDates(values ...string) ([]*query.Date, error) {
	out := make([]*query.Date, len(values))
	for i, v := range values {
		d, err := optionalDate(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// handleSummarize builds a summary of a stored group.
// POST /api/summarize
func (s *Server) handleSummarize(c echo.Context) error {
	var req SummarizeRequest
	if msg, ok := bindReport(c, &req); !ok {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	dates, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	sum, err := s.svc.Summarize(c.Request().Context(), req.GroupName, service.SummaryRequest{
		Kind:  report.Kind(req.SummaryType),
		User:  req.User,
		Start: dates[0],
		End:   dates[1],
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// handleActivity breaks down the activity of a stored group.
// POST /api/activity
func (s *Server) handleActivity(c echo.Context) error {
	var req ActivityRequest
	if msg, ok := bindReport(c, &req); !ok {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	dates, err := parseDates(req.SpecificDate, req.WeekStart, req.WeekEnd, req.StartDate, req.EndDate)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	a, err := s.svc.Activity(c.Request().Context(), req.GroupName, report.ActivityRequest{
		Day:             dates[0],
		WeekStart:       dates[1],
		WeekEnd:         dates[2],
		Start:           dates[3],
		End:             dates[4],
		User:            req.User,
		IncludeMessages: req.IncludeMessages,
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// handleSentiment reports the mood of a stored group.
// POST /api/sentiment
func (s *Server) handleSentiment(c echo.Context) error {
	var req SentimentRequest
	if msg, ok := bindReport(c, &req); !ok {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	dates, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	o, err := s.svc.Sentiment(c.Request().Context(), req.GroupName, dates[0], dates[1])
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
