// Package toolscmder provides the command that runs the auxiliary tool server.
package toolscmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragchat/pkg/config"
	"github.com/papercomputeco/ragchat/pkg/logger"
	"github.com/papercomputeco/ragchat/toolserver"
)

type toolsCommander struct {
	listen   string
	timezone string
	logFile  string
	debug    bool
	cfg      *config.Config
}

var toolsFlags = []string{
	config.FlagToolServerListen,
	config.FlagToolServerTZ,
	config.FlagLogFile,
}

const toolsLongDesc string = `Run the auxiliary tool server.

The tool server answers the chat server's tool calls over HTTP:
  POST /tools/get_current_time     Current date and time in Cape Town
  POST /tools/get_timezone_info    South African timezone details

The same tools are served to MCP clients over streamable HTTP at /mcp.

Examples:
  ragchat serve tools
  ragchat serve tools --listen :5001 --timezone Africa/Johannesburg`

const toolsShortDesc string = "Run the auxiliary tool server"

func NewToolsCmd() *cobra.Command {
	cmder := &toolsCommander{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: toolsShortDesc,
		Long:  toolsLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Resolve(cmd, toolsFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagToolServerListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagToolServerTZ, &cmder.timezone)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFile, &cmder.logFile)

	return cmd
}

func (c *toolsCommander) run() error {
	log, logCloser, err := logger.Tee(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true)),
		c.cfg.Log.File,
		logger.WithDebug(c.debug),
	)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	server, err := toolserver.NewServer(toolserver.Config{
		ListenAddr: c.cfg.ToolServer.Listen,
		Timezone:   c.cfg.ToolServer.Timezone,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating tool server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("tool server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
