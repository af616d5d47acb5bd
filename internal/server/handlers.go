package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/cognicore/meiyo/internal/htmltext"
	"github.com/cognicore/meiyo/internal/logging"
	"github.com/cognicore/meiyo/internal/sentiment"
	"github.com/cognicore/meiyo/pkg/meiyo/history"
	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
)

// sentimentTimeout bounds the advisory classifier call.
const sentimentTimeout = 3 * time.Second

type checkRequest struct {
	Text   string `json:"text"`
	Format string `json:"format"` // "text" (default) or "html"
}

type checkResponse struct {
	RequestID         string          `json:"request_id"`
	Verdict           string          `json:"verdict"`
	Detail            string          `json:"detail"`
	Terms             []string        `json:"terms,omitempty"`
	DictionaryVersion string          `json:"dictionary_version"`
	Sentiment         sentiment.Label `json:"sentiment,omitempty"`
	QueryCount        int64           `json:"query_count,omitempty"`
}

func (s *Server) handleCheck(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	text := req.Text
	switch strings.ToLower(req.Format) {
	case "", "text":
	case "html":
		text = htmltext.ExtractString(text)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be text or html")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	if utf8.RuneCountInString(text) > s.maxTextLen {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			"text longer than "+strconv.Itoa(s.maxTextLen)+" characters")
	}

	ctx := c.Request().Context()
	log := logging.FromContext(ctx)

	start := time.Now()
	res := s.engine.Evaluate(text)
	s.metrics.ObserveEvaluation(res.Verdict, time.Since(start))

	resp := checkResponse{
		RequestID:         c.Response().Header().Get(echo.HeaderXRequestID),
		Verdict:           string(res.Verdict),
		Detail:            res.Detail,
		Terms:             res.Terms,
		DictionaryVersion: s.engine.Snapshot().Version(),
	}

	if s.history != nil {
		n, err := s.history.IncrementQuery(ctx, text)
		if err != nil {
			log.Warn("query count not recorded", "error", err)
		}
		resp.QueryCount = n
	}

	if s.sentiment != nil {
		sctx, cancel := context.WithTimeout(ctx, sentimentTimeout)
		label, err := s.sentiment.Classify(sctx, text)
		cancel()
		if err != nil {
			s.metrics.SentimentErrors.Inc()
			log.Warn("sentiment classifier failed", "error", err)
		} else {
			resp.Sentiment = label
		}
	}

	log.Debug("text evaluated", "verdict", res.Verdict, "terms", len(res.Terms))
	return c.JSON(http.StatusOK, resp)
}

type reportRequest struct {
	Text      string `json:"text"`
	Judgement string `json:"judgement"`
	Verdict   string `json:"verdict"`
}

func (s *Server) handleAddReport(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "report history disabled")
	}
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := s.history.AddReport(c.Request().Context(), history.Report{
		Text:      req.Text,
		Judgement: req.Judgement,
		Verdict:   req.Verdict,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) handleListReports(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "report history disabled")
	}
	limit, err := intParam(c, "limit", 50, 500)
	if err != nil {
		return err
	}
	reports, err := s.history.Reports(c.Request().Context(), limit)
	if err != nil {
		return mapError(err)
	}
	if reports == nil {
		reports = []history.Report{}
	}
	return c.JSON(http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleTopQueries(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "query history disabled")
	}
	k, err := intParam(c, "k", 10, 100)
	if err != nil {
		return err
	}
	top, err := s.history.TopQueries(c.Request().Context(), k)
	if err != nil {
		return mapError(err)
	}
	if top == nil {
		top = []history.QueryCount{}
	}
	return c.JSON(http.StatusOK, map[string]any{"queries": top})
}

func (s *Server) handleReload(c echo.Context) error {
	if s.loader == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no dictionary sources configured")
	}
	if err := s.engine.Reload(s.loader); err != nil {
		logging.FromContext(c.Request().Context()).Error("dictionary reload failed", "error", err)
		return mapError(err)
	}
	st := s.engine.Snapshot().Stats()
	return c.JSON(http.StatusOK, map[string]any{
		"dictionary_version": st.Version,
		"terms":              st.Terms,
		"whitelist":          st.WhitelistSize,
		"surnames":           st.Surnames,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	st := s.engine.Snapshot().Stats()
	return c.JSON(http.StatusOK, map[string]any{
		"status":             "healthy",
		"dictionary_version": st.Version,
		"terms":              st.Terms,
	})
}

// intParam reads a positive integer query parameter, clamped to max.
func intParam(c echo.Context, name string, def, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return min(n, max), nil
}

// mapError converts a domain error into an echo.HTTPError.
func mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, internalerr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, internalerr.ErrMissingResource),
		errors.Is(err, internalerr.ErrMalformedEntry):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
