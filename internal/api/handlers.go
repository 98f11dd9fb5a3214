package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edgard/chatinsight/internal/database"
	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/report"
	"github.com/edgard/chatinsight/internal/service"
)

// AskRequest is the body of POST /api/ask. Dates are inclusive ISO calendar dates.
type AskRequest struct {
	GroupName string `json:"group_name" validate:"required"`
	Question  string `json:"question"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"omitempty,datetime=2006-01-02"`
}

// AskResponse is the answer to POST /api/ask.
type AskResponse struct {
	Answer         string               `json:"answer"`
	Source         query.Source         `json:"source"`
	Intent         query.Intent         `json:"intent"`
	Classification query.Classification `json:"classification"`
	Data           query.Result         `json:"data"`
}

// UploadResponse is the answer to a transcript upload.
type UploadResponse struct {
	Success      bool   `json:"success"`
	GroupName    string `json:"group_name"`
	MessageCount int    `json:"message_count"`
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// writeError maps service and engine errors onto HTTP statuses.
func (s *Server) writeError(c echo.Context, err error) error {
	var qerr *query.Error
	switch {
	case errors.Is(err, database.ErrGroupNotFound):
		return errorJSON(c, http.StatusNotFound, "Group not found")
	case errors.Is(err, query.ErrInternal):
		s.log.ErrorContext(c.Request().Context(), "Question failed", "error", err)
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	case errors.As(err, &qerr):
		return errorJSON(c, http.StatusBadRequest, qerr.Message)
	case errors.Is(err, database.ErrEmptyTranscript):
		return errorJSON(c, http.StatusBadRequest, "No messages found in the uploaded file")
	case errors.Is(err, database.ErrGroupConflict):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoDates):
		return errorJSON(c, http.StatusBadRequest, "No valid dates")
	case errors.Is(err, report.ErrNoMessages), errors.Is(err, report.ErrUnknownKind), errors.Is(err, report.ErrUserRequired):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, report.ErrNoAnalyzer):
		return errorJSON(c, http.StatusServiceUnavailable, "Sentiment analysis is not available")
	default:
		s.log.ErrorContext(c.Request().Context(), "Request failed", "path", c.Path(), "error", err)
		return errorJSON(c, http.StatusInternalServerError, "internal server error")
	}
}

// handleAsk answers a question over a stored group.
// POST /api/ask
func (s *Server) handleAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}

	qreq := query.Request{Question: req.Question}
	var err error
	if qreq.Start, err = optionalDate(req.StartDate); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if qreq.End, err = optionalDate(req.EndDate); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	resp, err := s.svc.Ask(c.Request().Context(), req.GroupName, qreq)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, AskResponse{
		Answer:         resp.Answer,
		Source:         resp.Source,
		Intent:         resp.Classification.Intent,
		Classification: resp.Classification,
		Data:           resp.Result,
	})
}

func optionalDate(s string) (*query.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := query.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// handleListGroups lists stored groups.
// GET /api/groups
func (s *Server) handleListGroups(c echo.Context) error {
	groups, err := s.svc.Groups(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	if groups == nil {
		groups = []database.Group{}
	}
	return c.JSON(http.StatusOK, map[string]any{"groups": groups})
}

// handleGroupDates reports the dated span of a group.
// GET /api/groups/:name/dates
func (s *Server) handleGroupDates(c echo.Context) error {
	span, err := s.svc.Dates(c.Request().Context(), c.Param("name"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, span)
}

// handleUpload imports a WhatsApp export sent as the multipart field "file".
// POST /api/groups/:name/upload names the group explicitly; POST /api/upload derives it from the filename.
func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "No file provided")
	}
	if fh.Filename == "" || fh.Filename == "undefined" {
		return errorJSON(c, http.StatusBadRequest, "Invalid file name")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".txt") {
		return errorJSON(c, http.StatusBadRequest, "Only .txt files are supported")
	}
	if s.cfg.MaxUploadBytes > 0 && fh.Size > s.cfg.MaxUploadBytes {
		return errorJSON(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", s.cfg.MaxUploadBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return s.writeError(c, fmt.Errorf("failed to open upload: %w", err))
	}
	defer f.Close()

	group, err := s.svc.Import(c.Request().Context(), service.TransportHTTP, fh.Filename, strings.TrimSpace(c.Param("name")), f)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, UploadResponse{Success: true, GroupName: group.Name, MessageCount: group.MessageCount})
}

// handleDeleteGroup removes a group.
// DELETE /api/groups/:name
func (s *Server) handleDeleteGroup(c echo.Context) error {
	if err := s.svc.DeleteGroup(c.Request().Context(), c.Param("name")); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// exampleQuestions groups sample questions by what they exercise.
var exampleQuestions = map[string][]string{
	"user_activity": {
		"Who are the most active users?",
		"Who are the least active users?",
		"What did [User Name] say?",
		"List messages from [Phone Number]",
	},
	"time_based": {
		"What was said from 3:30 PM to 4:30 PM?",
		"What was said between 2 PM and 5 PM?",
		"What happened at 4:00 PM?",
		"Show messages on 7th March",
	},
	"analytics": {
		"How many messages are there?",
		"Show message statistics",
		"What's the total message count?",
	},
	"content_analysis": {
		"What topics were discussed?",
		"What was the mood of the group?",
		"What decisions were made?",
		"What files were shared?",
	},
}

// handleExampleQuestions returns sample questions for clients.
// GET /api/example-questions
func (s *Server) handleExampleQuestions(c echo.Context) error {
	return c.JSON(http.StatusOK, exampleQuestions)
}

// validationMessage turns validator output into a short client message.
func validationMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "GroupName"):
		return "Invalid group name"
	case strings.Contains(msg, "StartDate"), strings.Contains(msg, "EndDate"),
		strings.Contains(msg, "SpecificDate"), strings.Contains(msg, "WeekStart"), strings.Contains(msg, "WeekEnd"):
		return "Dates must use the YYYY-MM-DD format"
	default:
		return "Invalid request"
	}
}
