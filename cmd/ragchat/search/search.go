// Package searchcmder provides the search command for querying the
// knowledge base of a running ragchat server.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragchat/api"
	"github.com/papercomputeco/ragchat/pkg/cliui"
	"github.com/papercomputeco/ragchat/pkg/config"
)

var rankStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

type searchCommander struct {
	query     string
	topK      int
	quiet     bool
	apiTarget string
}

var searchFlags = []string{
	config.FlagAPITarget,
	config.FlagTopK,
}

const searchLongDesc string = `Search the knowledge base via the ragchat API.

Returns the chunks most similar to the query text, ranked by cosine
similarity. Requires a running ragchat server.

Use --quiet to print only the chunk text, one result per line.

Examples:
  ragchat search "wine farms near Stellenbosch"
  ragchat search "beaches for swimming" --top-k 5
  ragchat search "cable car" --api-target http://localhost:8000 --quiet`

const searchShortDesc string = "Search the knowledge base"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Resolve(cmd, searchFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.apiTarget = cfg.Client.APITarget
			cmder.topK = cfg.Retrieval.TopK
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddIntFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print only chunk text, one result per line")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, out io.Writer) error {
	cliui.DisableColorUnlessTerminal(os.Stdout)

	resp, err := SearchAPI(ctx, c.apiTarget, c.query, c.topK)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		if !c.quiet {
			fmt.Fprintln(out, "No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, r := range resp.Results {
			fmt.Fprintln(out, strings.Join(strings.Fields(r.Text), " "))
		}
		return nil
	}

	fmt.Fprintf(out, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		cliui.KeyStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	width := cliui.Width(os.Stdout) - 4
	for i, r := range resp.Results {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", i+1)),
			cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
			cliui.DimStyle.Render(fmt.Sprintf("chunk %d", r.ChunkIndex)),
		)
		preview := strings.Join(strings.Fields(r.Text), " ")
		fmt.Fprintf(out, "  %s\n\n", cliui.ValueStyle.Render(cliui.Truncate(preview, width)))
	}

	return nil
}

// SearchAPI calls GET /api/rag/search on the ragchat server at apiTarget.
func SearchAPI(ctx context.Context, apiTarget, query string, topK int) (*api.SearchResponse, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/api/rag/search"
	q := searchURL.Query()
	q.Set("query", query)
	if topK > 0 {
		q.Set("top_k", strconv.Itoa(topK))
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ragchat API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out api.SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &out, nil
}
