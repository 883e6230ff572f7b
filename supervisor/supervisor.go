// Package supervisor owns the process lifecycle (§4.7): it wires every
// other component together in the order grapher.go's NewGrapher wires its
// database handlers, then runs until told to shut down.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/ladybug-space/ladybug/appconfig"
	"github.com/ladybug-space/ladybug/configtracker"
	"github.com/ladybug-space/ladybug/embedclient"
	"github.com/ladybug-space/ladybug/graphstore"
	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/hybrid"
	"github.com/ladybug-space/ladybug/mdparser"
	"github.com/ladybug-space/ladybug/rpc"
	"github.com/ladybug-space/ladybug/toolserver"
	"github.com/ladybug-space/ladybug/watcher"
)

const (
	watcherStopGrace = 5 * time.Second
	grpcStopGrace    = 2 * time.Second
)

// Supervisor holds every long-lived component started for one `serve` run.
type Supervisor struct {
	cfg appconfig.Config

	db       *helper.Database
	store    *graphstore.Store
	parser   *mdparser.Parser
	embedder embedclient.Provider
	search   *hybrid.Searcher
	tracker  *configtracker.Tracker
	watch    *watcher.Watcher
	grpc     *rpc.GRPCServer
	tools    *toolserver.Server

	logger *slog.Logger
}

// New builds every component per §4.7 steps 1-3 (open graph store, init
// schema, construct parser/hybrid search) but does not start anything yet.
func New(cfg appconfig.Config, logger *slog.Logger) (*Supervisor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var embedder embedclient.Provider
	embeddingDim := 0
	if cfg.EnableEmbeddings {
		var err error
		embedder, err = embedclient.New(embedclient.Config{
			Kind:      cfg.EmbeddingProvider,
			APIKey:    os.Getenv("EMBEDDING_API_KEY"),
			BaseURL:   os.Getenv("EMBEDDING_BASE_URL"),
			Model:     os.Getenv("EMBEDDING_MODEL"),
			ModelName: os.Getenv("EMBEDDING_MODEL"),
		})
		if err != nil {
			return nil, helper.WrapKind("construct embedding provider", helper.ErrProviderUnavailable, err)
		}
		embeddingDim = embedder.Dimension()
	}

	db := helper.NewDatabase("ladybug", helper.DatabaseConfigurationFromEnv(), logger)

	store, err := graphstore.New(db, embeddingDim, cfg.EnableEmbeddings, false)
	if err != nil {
		return nil, helper.WrapKind("open graph store", helper.ErrStoreError, err)
	}

	parser := mdparser.New(logger)
	search := hybrid.New(store, embedder, logger)
	tracker := configtracker.New(cfg.DBPath, logger)

	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		return nil, helper.WrapKind("create db directory", helper.ErrConfigError, err)
	}

	watch, err := watcher.New(watcher.Config{
		Root:          cfg.SpacePath,
		Parser:        parser,
		Store:         store,
		Embedder:      embedder,
		ConfigHandler: tracker,
		Logger:        logger,
	})
	if err != nil {
		return nil, helper.WrapKind("construct watcher", helper.ErrConfigError, err)
	}

	handlers := rpc.New(cfg.SpacePath, "_Proposals", store, search, embedder, parser, logger)

	return &Supervisor{
		cfg:      cfg,
		db:       db,
		store:    store,
		parser:   parser,
		embedder: embedder,
		search:   search,
		tracker:  tracker,
		watch:    watch,
		grpc:     rpc.NewGRPCServer(logger),
		tools:    toolserver.New(fmt.Sprintf(":%d", cfg.MCPPort), handlers, logger),
		logger:   logger,
	}, nil
}

// Run executes §4.7 steps 4-7: reindex, start every server, then block
// until ctx is cancelled (by a caught SIGTERM/SIGINT), and shut down the
// watcher, the gRPC server, the tool server and the database, in that order.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.watch.ReindexAll(ctx); err != nil {
		return helper.WrapKind("initial reindex", helper.ErrStoreError, err)
	}
	s.logger.Info("initial reindex complete")

	if err := s.watch.Start(ctx); err != nil {
		return helper.WrapKind("start watcher", helper.ErrStoreError, err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.GRPCPort))
	if err != nil {
		return helper.WrapKind("listen grpc port", helper.ErrConfigError, err)
	}
	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- s.grpc.Serve(lis) }()

	toolsErrCh := make(chan error, 1)
	go func() { toolsErrCh <- s.tools.Start() }()

	s.logger.Info("supervisor running",
		slog.Int("grpc_port", s.cfg.GRPCPort),
		slog.Int("mcp_port", s.cfg.MCPPort))

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	case err := <-grpcErrCh:
		s.logger.Error("grpc server exited", slog.String("error", fmt.Sprint(err)))
	case err := <-toolsErrCh:
		s.logger.Error("tool server exited", slog.String("error", fmt.Sprint(err)))
	}

	return s.shutdown()
}

func (s *Supervisor) shutdown() error {
	s.watch.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), grpcStopGrace)
	defer cancel()
	s.grpc.Stop(stopCtx)

	toolCtx, toolCancel := context.WithTimeout(context.Background(), watcherStopGrace)
	defer toolCancel()
	if err := s.tools.Stop(toolCtx); err != nil {
		s.logger.Warn("tool server shutdown error", slog.String("error", err.Error()))
	}

	if s.db != nil && s.db.Instance != nil {
		if err := s.db.Instance.Close(); err != nil {
			return helper.WrapKind("close database", helper.ErrStoreError, err)
		}
	}
	s.logger.Info("supervisor stopped")
	return nil
}
