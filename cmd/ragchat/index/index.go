// Package indexcmder provides the index command that builds the vector index
// snapshot from the knowledge base text.
package indexcmder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragchat/pkg/chunker"
	"github.com/papercomputeco/ragchat/pkg/cliui"
	"github.com/papercomputeco/ragchat/pkg/config"
	"github.com/papercomputeco/ragchat/pkg/credentials"
	embeddingutils "github.com/papercomputeco/ragchat/pkg/embeddings/utils"
	"github.com/papercomputeco/ragchat/pkg/logger"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

type indexCommander struct {
	indexPath     string
	source        string
	chunkSize     int
	chunkOverlap  int
	embedProvider string
	embedTarget   string
	embedModel    string
	embedDims     uint

	debug  bool
	cfg    *config.Config
	dotdir string
}

var indexFlags = []string{
	config.FlagIndexPath,
	config.FlagIndexSource,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

const indexLongDesc string = `Build the vector index snapshot from a knowledge base text file.

The text is split into overlapping word windows, each window is embedded, and
the result is written to the snapshot file (default: <dotdir>/index.json).
An existing snapshot is replaced atomically, so a server started with --watch
picks up the new index without a restart.

Examples:
  ragchat index data/cape_town.txt
  ragchat index --source data/cape_town.txt --chunk-size 300 --chunk-overlap 30
  ragchat index data/cape_town.txt --embedding-provider ollama --embedding-model nomic-embed-text --embedding-dimensions 768`

const indexShortDesc string = "Build the vector index snapshot"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index [source]",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dotdir, err := config.Resolve(cmd, indexFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.dotdir = dotdir
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.cfg.Index.Source = args[0]
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagIndexPath, &cmder.indexPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexSource, &cmder.source)
	config.AddIntFlag(cmd, config.Flags, config.FlagChunkSize, &cmder.chunkSize)
	config.AddIntFlag(cmd, config.Flags, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)

	return cmd
}

func (c *indexCommander) run(ctx context.Context) error {
	cfg := c.cfg
	if cfg.Index.Source == "" {
		return errors.New("no knowledge base source: pass a file or set index.source")
	}

	// The spinner owns stdout, so logs only go to stderr in debug mode.
	log := logger.Nop()
	if c.debug {
		log = logger.New(logger.WithDebug(true), logger.WithPretty(true), logger.WithWriter(os.Stderr))
	}

	cliui.DisableColorUnlessTerminal(os.Stdout)

	var text []byte
	err := cliui.Step(os.Stdout, "Reading "+cfg.Index.Source, func() error {
		var err error
		text, err = os.ReadFile(cfg.Index.Source)
		return err
	})
	if err != nil {
		return err
	}

	creds, err := credentials.NewManager(c.dotdir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.ResolveKey(cfg.Embedding.Provider)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		APIKey:       apiKey,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	var ix *vector.Index
	msg := fmt.Sprintf("Embedding with %s %s", cfg.Embedding.Provider, cfg.Embedding.Model)
	err = cliui.Step(os.Stdout, msg, func() error {
		var err error
		ix, err = vector.Build(ctx, string(text), embedder, vector.BuildOptions{
			Chunking: chunker.Options{Size: cfg.Index.ChunkSize, Overlap: cfg.Index.ChunkOverlap},
			Progress: func(done, total int) {
				log.Debug("embedded chunk", "done", done, "total", total)
			},
			Logger: log,
		})
		return err
	})
	if err != nil {
		return err
	}

	path := cfg.IndexPath(c.dotdir)
	if err := cliui.Step(os.Stdout, "Writing "+path, func() error {
		return vector.Save(ix, path)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s %s %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprintf("%d chunks", ix.Len())),
		cliui.DimStyle.Render(fmt.Sprintf("(%d dimensions)", ix.Dimensions())),
	)
	return nil
}
