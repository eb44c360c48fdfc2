package http

import (
	"net/http"

	"github.com/mkrogh/kickerledger/internal/config"
	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/metrics"
	"github.com/mkrogh/kickerledger/internal/notifier"
	"github.com/mkrogh/kickerledger/internal/pubsub"
)

func NewServer(store ledger.LedgerStore, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		PubSub:         pubsub,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/players", Chain(s.PlayersHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("/seasons", Chain(s.ListSeasonsHandler(), paramsMiddleware))
	s.Router.Handle("/season/close", Chain(s.CloseSeasonHandler(), paramsMiddleware))
	s.Router.Handle("/match", Chain(s.SessionStateHandler(), paramsMiddleware))
	s.Router.Handle("/match/start", Chain(s.StartMatchHandler(), paramsMiddleware))
	s.Router.Handle("/match/goal", Chain(s.RecordGoalHandler(), paramsMiddleware))
	s.Router.Handle("/match/undo", Chain(s.UndoGoalHandler(), paramsMiddleware))
	s.Router.Handle("/match/swap-positions", Chain(s.SwapPositionsHandler(), paramsMiddleware))
	s.Router.Handle("/match/swap-sides", Chain(s.SwapSidesHandler(), paramsMiddleware))
	s.Router.Handle("/match/confirm", Chain(s.ConfirmWinHandler(), paramsMiddleware))
	s.Router.Handle("/match/commit", Chain(s.CommitMatchHandler(), paramsMiddleware))
	s.Router.Handle("/match/abandon", Chain(s.AbandonMatchHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
