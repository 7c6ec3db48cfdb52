package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/spektr-org/salesq/chat"
	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/format"
	"github.com/spektr-org/salesq/helpers"
	"github.com/spektr-org/salesq/translator"
)

// --- REQUEST / RESPONSE BODIES ---

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Spec     engine.QuerySpec `json:"spec"`
	Result   *engine.Result   `json:"result"`
	Response format.Response  `json:"response"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

type datasetResponse struct {
	Summary    dataset.Summary    `json:"summary"`
	Vocabulary dataset.Vocabulary `json:"vocabulary"`
}

type errorResponse struct {
	Error       string   `json:"error"`
	Kind        string   `json:"kind"`
	Message     string   `json:"message,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Candidates  []string `json:"candidates,omitempty"`
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"rows":   h.assistant.Store().Len(),
	})
}

func (h *Handler) Dataset(c echo.Context) error {
	store := h.assistant.Store()
	return c.JSON(http.StatusOK, datasetResponse{
		Summary:    store.Summary(),
		Vocabulary: store.Vocabulary(),
	})
}

func (h *Handler) Examples(c echo.Context) error {
	return c.JSON(http.StatusOK, chat.Examples())
}

func (h *Handler) CreateSession(c echo.Context) error {
	s := h.sessions.Create()
	return c.JSON(http.StatusCreated, sessionResponse{ID: s.ID()})
}

func (h *Handler) Ask(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ans, err := s.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return h.turnError(c, err)
	}
	return c.JSON(http.StatusOK, askResponse{
		Spec:     ans.Spec,
		Result:   ans.Result,
		Response: ans.Response,
	})
}

func (h *Handler) History(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Answers())
}

func (h *Handler) Export(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	ans, ok := s.LastTable()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no tabular answer to export yet")
	}

	name := helpers.ExportFilename(ans.Question, h.now())
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().WriteHeader(http.StatusOK)
	return helpers.WriteCSV(c.Response(), ans.Response.Export)
}

func (h *Handler) ClearSession(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.Clear()
	h.sessions.Delete(s.ID())
	return c.NoContent(http.StatusNoContent)
}

// --- ERRORS ---

func (h *Handler) session(c echo.Context) (*chat.Session, error) {
	s, err := h.sessions.Get(c.Param("id"))
	if errors.Is(err, chat.ErrSessionNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return s, err
}

// turnError maps a failed turn to a status code and a described problem.
func (h *Handler) turnError(c echo.Context, err error) error {
	problem := chat.Describe(err)
	outcome := chat.Classify(err)
	body := errorResponse{
		Error:      err.Error(),
		Kind:       string(outcome),
		Message:    problem.Message,
		Suggestion: problem.Suggestion,
	}

	var (
		unknown   *translator.UnknownValueError
		ambiguous *translator.AmbiguousQueryError
	)
	status := http.StatusInternalServerError
	switch outcome {
	case chat.OutcomeUnknownValue:
		status = http.StatusBadRequest
		if errors.As(err, &unknown) {
			body.Suggestions = unknown.Suggestions
		}
	case chat.OutcomeAmbiguous:
		status = http.StatusUnprocessableEntity
		if errors.As(err, &ambiguous) {
			body.Candidates = ambiguous.Candidates
		}
	case chat.OutcomeInvalid:
		status = http.StatusBadRequest
	case chat.OutcomeService:
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, body)
}

func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		h.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: msg, Kind: "http"})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to write error response")
	}
}
