package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/docsift/docsift/config"
	"github.com/docsift/docsift/db/metadb"
	"github.com/docsift/docsift/db/searchdb"
	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/index"
	"github.com/docsift/docsift/services/search"
	"github.com/docsift/docsift/validation"
	"github.com/gin-gonic/gin"
)

type server struct {
	router        *gin.Engine
	httpServer    *http.Server
	metaDB        metadb.DB
	searchDB      searchdb.DB
	indexService  *index.Service
	searchService *search.Service
	validator     *validation.Validator
	logger        logger.Logger
	cfg           *config.Config
}

func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)

	defer cancel()

	s := &server{
		logger: logger.New(),
		cfg:    cfg,
	}
	if err := s.setupDependencies(); err != nil {
		return err
	}
	s.setupRouter()
	s.setupHTTPServer()
	s.setupGracefulShutdown(ctx)

	return nil
}

func (s *server) setupDependencies() error {
	var err error
	s.metaDB, err = metadb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating metadata DB", "err", err.Error())
		return err
	}
	s.searchDB, err = searchdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating search DB", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}

	registry := index.NewRegistry(index.RegistryConfig{
		Command:   s.cfg.GetExtractCommand(),
		ScriptDir: s.cfg.GetExtractScriptDir(),
		Timeout:   s.cfg.GetExtractTimeout(),
	})

	s.indexService = index.New(s.logger, s.searchDB, s.metaDB, registry, index.Options{
		VerifyUnchanged: s.cfg.GetVerifyUnchanged(),
		ProgressBuffer:  s.cfg.GetProgressBufferSize(),
		ProgressTimeout: s.cfg.GetProgressTimeout(),
	})
	s.searchService = search.New(s.logger, s.searchDB)

	return nil
}

func (s *server) setupRouter() {
	router := newRouter()

	router.Use(loggingMiddleware(s.logger))

	setupRoutes(router, s.logger, s.indexService, s.searchService, s.validator)

	s.router = router
}

func (s *server) setupHTTPServer() {

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}
	s.httpServer = httpServer
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
}

func (s *server) setupGracefulShutdown(ctx context.Context) {

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.logger.Info("starting to shut down http server")
		shutdownCtx := context.Background()
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer cancel()
		s.metaDB.Close()
		s.searchDB.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down http server", "err", err)
			return
		}
		s.logger.Info("shut down http server successfully")
	}()

	wg.Wait()
}
