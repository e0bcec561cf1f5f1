// Package ragchatcmder is the root ragchat command.
package ragchatcmder

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/ragchat/cmd/ragchat/auth"
	chatcmder "github.com/papercomputeco/ragchat/cmd/ragchat/chat"
	configcmder "github.com/papercomputeco/ragchat/cmd/ragchat/config"
	indexcmder "github.com/papercomputeco/ragchat/cmd/ragchat/index"
	searchcmder "github.com/papercomputeco/ragchat/cmd/ragchat/search"
	servecmder "github.com/papercomputeco/ragchat/cmd/ragchat/serve"
	versioncmder "github.com/papercomputeco/ragchat/cmd/version"
)

const ragchatLongDesc string = `ragchat is a Cape Town travel assistant that answers from a local
knowledge base.

Run services using:
  ragchat serve          Run the chat API server
  ragchat serve tools    Run the auxiliary tool server

Work with the knowledge base and a running server:
  ragchat index          Build the vector index snapshot
  ragchat search         Search the knowledge base
  ragchat chat           Chat in the terminal`

const ragchatShortDesc string = "ragchat - Cape Town RAG chat"

func NewRagchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ragchat",
		Short:        ragchatShortDesc,
		Long:         ragchatLongDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ragchat/ directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

// loadDotEnv reads ./.env into the environment, typically for
// OPENAI_API_KEY. Variables already set win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading .env: %w", err)
}
