// Package server exposes swipe sessions, markets, the portfolio and the
// decision journal over HTTP and websocket.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/NationIndexProtocol/nation-index-sdk/internal/journal"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/auth"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/news"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/portfolio"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Markets is the market snapshot provider.
type Markets interface {
	Markets(ctx context.Context) ([]types.MarketData, error)
	Market(ctx context.Context, idOrSymbol string) (types.MarketData, error)
}

// Portfolio is the holdings view.
type Portfolio interface {
	Summary() (portfolio.Summary, error)
	Close(symbol string) error
	ReopenAll() error
}

// Journal is the read side of the decision log.
type Journal interface {
	List(ctx context.Context, limit int) ([]types.Decision, error)
	Stats(ctx context.Context) (journal.Stats, error)
}

// Pool reads liquidity pool state.
type Pool interface {
	PoolMetrics(ctx context.Context) (*types.PoolMetrics, error)
	Paused(ctx context.Context) (bool, error)
}

// Deps are the collaborators the server routes to. Markets, Portfolio, Journal
// and Pool are optional; their routes answer 503 when unset.
type Deps struct {
	News      news.Source
	Issuer    *auth.Issuer
	Callbacks swipe.Callbacks
	Markets   Markets
	Portfolio Portfolio
	Journal   Journal
	Pool      Pool
}

// Options tune session behaviour.
type Options struct {
	Addr           string
	ReducedMotion  bool
	ViewportWidth  float64
	ExitTransition bool
	SessionTTL     time.Duration
}

// Server is the HTTP front end.
type Server struct {
	deps     Deps
	opts     Options
	sessions *sessionStore
	charts   *chartCache
	upgrader websocket.Upgrader
	router   *gin.Engine
}

// New builds the router. News and Issuer are required.
func New(deps Deps, opts Options) (*Server, error) {
	if deps.News == nil || deps.Issuer == nil {
		return nil, errors.New("server: news source and token issuer are required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = auth.DefaultTTL
	}

	s := &Server{
		deps:     deps,
		opts:     opts,
		sessions: newSessionStore(),
		charts:   newChartCache(time.Now().UnixNano()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.POST("/sessions", s.handleCreateSession)

	sess := api.Group("/sessions/:id", s.requireSession)
	sess.GET("", s.handleGetSession)
	sess.DELETE("", s.handleDeleteSession)
	sess.POST("/drag/start", s.handleDragStart)
	sess.POST("/drag/move", s.handleDragMove)
	sess.POST("/drag/end", s.handleDragEnd)
	sess.POST("/action", s.handleAction)
	sess.POST("/settle", s.handleSettle)
	sess.GET("/ws", s.handleWebsocket)

	api.GET("/markets", s.handleMarkets)
	api.GET("/markets/:id", s.handleMarket)
	api.GET("/markets/:id/chart", s.handleChart)

	api.GET("/portfolio", s.handlePortfolio)
	api.POST("/portfolio/close/:symbol", s.handleClosePosition)
	api.POST("/portfolio/reopen", s.handleReopenPositions)

	api.GET("/journal", s.handleJournal)
	api.GET("/pool", s.handlePool)
	return r
}

// Run serves until ctx is cancelled and prunes expired sessions meanwhile.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 HTTP server listening on %s", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-ticker.C:
			if n := s.sessions.prune(time.Now().Add(-s.opts.SessionTTL)); n > 0 {
				log.Printf("🔄 Pruned %d expired session(s)", n)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.sessions.closeAllSessions()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		}
	}
}

func (s *Server) swipeOptions() []swipe.Option {
	opts := []swipe.Option{swipe.WithReducedMotion(s.opts.ReducedMotion)}
	if s.opts.ViewportWidth > 0 {
		opts = append(opts, swipe.WithViewportWidth(s.opts.ViewportWidth))
	}
	if s.opts.ExitTransition {
		opts = append(opts, swipe.WithExitTransition())
	}
	return opts
}

// writeError maps err to a status and a JSON body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrSessionNotFound),
		errors.Is(err, types.ErrCountryNotFound),
		errors.Is(err, journal.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, types.ErrUnknownOutcome),
		errors.Is(err, swipe.ErrUnknownEvent),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

var (
	errBadRequest  = errors.New("bad request")
	errUnavailable = errors.New("not configured")
)
