package api

import (
	"context"
	"net/http"
	"time"

	"blockballot/lib/logger"
	a "blockballot/modules/aggregate"
	"blockballot/modules/results"
	"blockballot/modules/voting"

	"github.com/chebyrash/promise"
	"github.com/gin-gonic/gin"
)

// ===== constants =====

const shutdownTimeout = 5 * time.Second

// ===== types =====

type apiServer struct {
	server  *http.Server
	engine  *gin.Engine
	conf    ApiConfig
	auth    AuthService
	voting  *voting.Voting
	results *results.Aggregator
	log     logger.Logger
}

// ===== interface assertion =====

var _ a.Plugin = &apiServer{}

// ===== implementing the a.Plugin interface =====

func New(conf ApiConfig, auth AuthService, voting *voting.Voting, results *results.Aggregator, log logger.Logger) *apiServer {
	return &apiServer{
		conf:    conf,
		auth:    auth,
		voting:  voting,
		results: results,
		log:     log,
	}
}

func (s *apiServer) Init() error {
	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())

	v1 := s.engine.Group("/api/v1")
	v1.POST("/elections/:electionId/votes", s.castVote)
	v1.GET("/elections/:electionId/results", s.getResults)

	s.server = &http.Server{
		Addr:    s.conf.Get().ListenAddr,
		Handler: s.engine,
	}
	return nil
}

func (s *apiServer) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		s.log.Debug("gateway api listening on", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			reject(err)
		}

		resolve(nil)
	})
}

func (s *apiServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *apiServer) Handler() http.Handler {
	return s.engine
}
