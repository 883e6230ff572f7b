package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ladybug-space/ladybug/appconfig"
	"github.com/ladybug-space/ladybug/embedclient"
	"github.com/ladybug-space/ladybug/graphstore"
	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/mdparser"
)

var (
	initIndexRebuild      bool
	initIndexSpacePath    string
	initIndexDBPath       string
	initIndexNoEmbeddings bool
)

var initIndexCmd = &cobra.Command{
	Use:   "init-index",
	Short: "Build (or rebuild) the graph index for a space",
	RunE:  runInitIndex,
}

func init() {
	initIndexCmd.Flags().BoolVar(&initIndexRebuild, "rebuild", false, "clear all graph data and reload the schema before indexing")
	initIndexCmd.Flags().StringVar(&initIndexSpacePath, "space-path", "", "override SPACE_PATH")
	initIndexCmd.Flags().StringVar(&initIndexDBPath, "db-path", "", "override DB_PATH")
	initIndexCmd.Flags().BoolVar(&initIndexNoEmbeddings, "no-embeddings", false, "skip embedding generation")
}

func runInitIndex(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := appconfig.FromEnv()
	if initIndexSpacePath != "" {
		cfg.SpacePath = initIndexSpacePath
	}
	if initIndexDBPath != "" {
		cfg.DBPath = initIndexDBPath
	}
	if initIndexNoEmbeddings {
		cfg.EnableEmbeddings = false
	}

	var embedder embedclient.Provider
	embeddingDim := 0
	if cfg.EnableEmbeddings {
		var err error
		embedder, err = embedclient.New(embedclient.Config{Kind: cfg.EmbeddingProvider})
		if err != nil {
			return helper.WrapKind("construct embedding provider", helper.ErrProviderUnavailable, err)
		}
		embeddingDim = embedder.Dimension()
	}

	db := helper.NewDatabase("ladybug", helper.DatabaseConfigurationFromEnv(), logger)
	defer db.Instance.Close()

	store, err := graphstore.New(db, embeddingDim, cfg.EnableEmbeddings, initIndexRebuild)
	if err != nil {
		return helper.WrapKind("open graph store", helper.ErrStoreError, err)
	}

	parser := mdparser.New(logger)
	ctx := context.Background()

	if initIndexRebuild {
		if err := store.ClearAll(ctx); err != nil {
			return helper.WrapKind("clear graph for rebuild", helper.ErrStoreError, err)
		}
	}

	chunks, err := parser.ParseTree(cfg.SpacePath, true)
	if err != nil {
		return helper.WrapKind("parse space", helper.ErrParseError, err)
	}

	if embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return helper.WrapKind("embed chunks", helper.ErrProviderUnavailable, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	if err := store.UpsertChunks(ctx, chunks); err != nil {
		return helper.WrapKind("upsert chunks", helper.ErrStoreError, err)
	}

	folders, err := parser.GetFolderPaths(cfg.SpacePath)
	if err != nil {
		return helper.WrapKind("list folders", helper.ErrParseError, err)
	}
	indexPages, err := parser.GetFolderIndexPages(cfg.SpacePath)
	if err != nil {
		return helper.WrapKind("list folder index pages", helper.ErrParseError, err)
	}
	if err := store.UpsertFolders(ctx, folders, indexPages); err != nil {
		return helper.WrapKind("upsert folders", helper.ErrStoreError, err)
	}

	logger.Info("index build complete", slog.Int("chunks_indexed", len(chunks)))
	return nil
}
