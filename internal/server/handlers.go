package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/market"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/version"
)

const (
	sessionKey      = "session"
	defaultJournalN = 50
	maxJournalLimit = 500
)

type createSessionResponse struct {
	SessionID string         `json:"session_id"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Snapshot  swipe.Snapshot `json:"snapshot"`
}

type eventResponse struct {
	Applied  bool           `json:"applied"`
	Snapshot swipe.Snapshot `json:"snapshot"`
}

type dragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type actionRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  version.GetBuildInfo(),
		"sessions": s.sessions.len(),
	})
}

// #region sessions

func (s *Server) handleCreateSession(c *gin.Context) {
	items, err := s.deps.News.Fetch(c.Request.Context())
	if err != nil {
		writeError(c, fmt.Errorf("failed to load news: %w", err))
		return
	}

	deck := swipe.NewDeck(uuid.NewString(), items, s.deps.Callbacks, s.swipeOptions()...)
	token, expires, err := s.deps.Issuer.Issue(deck.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	s.sessions.add(deck)

	c.JSON(http.StatusCreated, createSessionResponse{
		SessionID: deck.ID,
		Token:     token,
		ExpiresAt: expires,
		Snapshot:  deck.Snapshot(),
	})
}

// requireSession checks the bearer token (or the token query parameter, for
// browser websocket clients) against the :id path parameter.
func (s *Server) requireSession(c *gin.Context) {
	id := c.Param("id")
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if err := s.deps.Issuer.VerifySession(token, id); err != nil {
		writeError(c, err)
		return
	}
	sess, err := s.sessions.get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func currentSession(c *gin.Context) *session {
	return c.MustGet(sessionKey).(*session)
}

func (s *Server) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).deck.Snapshot())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.sessions.remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) applyEvent(c *gin.Context, ev swipe.Event) {
	applied, snap, err := currentSession(c).apply(ev)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventResponse{Applied: applied, Snapshot: snap})
}

func (s *Server) handleDragStart(c *gin.Context) {
	s.applyEvent(c, swipe.Event{Type: swipe.EventDragStart})
}

func (s *Server) handleDragMove(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.applyEvent(c, swipe.Event{Type: swipe.EventDragMove, DX: req.DX, DY: req.DY})
}

func (s *Server) handleDragEnd(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.applyEvent(c, swipe.Event{Type: swipe.EventDragEnd, DX: req.DX, DY: req.DY})
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	outcome, err := types.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(c, err)
		return
	}
	s.applyEvent(c, swipe.Event{Type: swipe.EventAction, Outcome: outcome})
}

func (s *Server) handleSettle(c *gin.Context) {
	s.applyEvent(c, swipe.Event{Type: swipe.EventSettle})
}

// #endregion

// #region markets

func (s *Server) handleMarkets(c *gin.Context) {
	if s.deps.Markets == nil {
		writeError(c, fmt.Errorf("markets: %w", errUnavailable))
		return
	}
	tab, err := market.ParseTab(c.Query("tab"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	markets, err := s.deps.Markets.Markets(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markets": market.Filter(markets, tab, c.Query("q"))})
}

func (s *Server) handleMarket(c *gin.Context) {
	if s.deps.Markets == nil {
		writeError(c, fmt.Errorf("markets: %w", errUnavailable))
		return
	}
	m, err := s.deps.Markets.Market(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleChart(c *gin.Context) {
	if s.deps.Markets == nil {
		writeError(c, fmt.Errorf("markets: %w", errUnavailable))
		return
	}
	tf, err := market.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	chartType := market.ChartType(c.DefaultQuery("type", string(market.ChartArea)))

	m, err := s.deps.Markets.Market(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	candles := market.Aggregate(s.charts.next(m.Symbol, m.BasePrice, time.Now()), tf)
	var buf bytes.Buffer
	if err := market.RenderChart(&buf, m.Symbol, candles, chartType); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// #endregion

// #region portfolio

func (s *Server) handlePortfolio(c *gin.Context) {
	if s.deps.Portfolio == nil {
		writeError(c, fmt.Errorf("portfolio: %w", errUnavailable))
		return
	}
	summary, err := s.deps.Portfolio.Summary()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleClosePosition(c *gin.Context) {
	if s.deps.Portfolio == nil {
		writeError(c, fmt.Errorf("portfolio: %w", errUnavailable))
		return
	}
	if err := s.deps.Portfolio.Close(c.Param("symbol")); err != nil {
		writeError(c, err)
		return
	}
	s.handlePortfolio(c)
}

func (s *Server) handleReopenPositions(c *gin.Context) {
	if s.deps.Portfolio == nil {
		writeError(c, fmt.Errorf("portfolio: %w", errUnavailable))
		return
	}
	if err := s.deps.Portfolio.ReopenAll(); err != nil {
		writeError(c, err)
		return
	}
	s.handlePortfolio(c)
}

// #endregion

func (s *Server) handleJournal(c *gin.Context) {
	if s.deps.Journal == nil {
		writeError(c, fmt.Errorf("journal: %w", errUnavailable))
		return
	}
	limit := defaultJournalN
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, maxJournalLimit)
	}

	ctx := c.Request.Context()
	decisions, err := s.deps.Journal.List(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := s.deps.Journal.Stats(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions, "stats": stats})
}

func (s *Server) handlePool(c *gin.Context) {
	if s.deps.Pool == nil {
		writeError(c, fmt.Errorf("pool: %w", errUnavailable))
		return
	}
	ctx := c.Request.Context()
	metrics, err := s.deps.Pool.PoolMetrics(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	paused, err := s.deps.Pool.Paused(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "paused": paused})
}
