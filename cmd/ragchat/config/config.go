// Package configcmder provides the config command for managing persistent
// ragchat configuration stored in the .ragchat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragchat/pkg/config"
)

const configLongDesc string = `Manage persistent ragchat configuration.

Configuration is stored as config.toml in the .ragchat/ directory and provides
default values for command flags. CLI flags and RAGCHAT_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  llm.provider, llm.model, llm.temperature,
  embedding.provider, embedding.model, embedding.dimensions,
  index.source, index.chunk_size, retrieval.top_k,
  tools.target, api.listen, client.api_target

Use subcommands to get, set, or list configuration values:
  ragchat config set <key> <value>    Set a configuration value
  ragchat config get <key>            Get a configuration value
  ragchat config list                 List all configuration values

Examples:
  ragchat config set llm.provider ollama
  ragchat config set llm.model llama3.2
  ragchat config get retrieval.top_k
  ragchat config list`

const configShortDesc string = "Manage persistent ragchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
