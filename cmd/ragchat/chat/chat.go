// Package chatcmder provides the chat command for an interactive terminal
// conversation with a running ragchat server.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragchat/api"
	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/cliui"
	"github.com/papercomputeco/ragchat/pkg/config"
	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/dotdir"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	apiTarget   string
	newChat     bool
	render      bool
	showSources bool
	transcript  string
	configDir   string

	client  *http.Client
	dotdirs *dotdir.Manager
	session *dotdir.SessionState
	out     io.Writer
}

var chatFlags = []string{
	config.FlagAPITarget,
}

const chatLongDesc string = `Start an interactive chat with a running ragchat server.

Each message is answered from the knowledge base; the reply streams into the
terminal as it is generated. The conversation is saved on the server and
"ragchat chat" continues it next time. Use --new, or type /new, to start a
fresh conversation.

Commands inside the chat:
  /new     Start a new conversation
  /exit    Quit (Ctrl+D also works)

Examples:
  ragchat chat
  ragchat chat --new --sources
  ragchat chat --render --transcript session.sse`

const chatShortDesc string = "Chat with a running ragchat server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Resolve(cmd, chatFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.apiTarget = cfg.Client.APITarget
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), os.Stdin)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVar(&cmder.newChat, "new", false, "Start a new conversation instead of continuing the last one")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render each reply as markdown once it is complete")
	cmd.Flags().BoolVar(&cmder.showSources, "sources", false, "Show the knowledge base passages used for each reply")
	cmd.Flags().StringVar(&cmder.transcript, "transcript", "", "Append the raw event stream to this file")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliui.DisableColorUnlessTerminal(os.Stdout)
	c.out = os.Stdout
	c.dotdirs = dotdir.NewManager()
	// Replies may take as long as the server's language model timeout.
	c.client = &http.Client{Timeout: 5 * time.Minute}

	if c.newChat {
		if err := c.dotdirs.ClearSession(c.configDir); err != nil {
			return err
		}
	} else {
		session, err := c.dotdirs.LoadSession(c.configDir)
		if err != nil {
			return err
		}
		c.session = session
	}

	var transcript io.Writer
	if c.transcript != "" {
		f, err := os.OpenFile(c.transcript, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer f.Close()
		transcript = f
	}

	fmt.Fprintln(c.out)
	c.printSessionHeader()
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.NameStyle.Render(c.apiTarget),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new starts over, /exit or Ctrl+D quits."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			if err := c.dotdirs.ClearSession(c.configDir); err != nil {
				return err
			}
			c.session = nil
			fmt.Fprintf(c.out, "  %s New conversation\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		if err := c.turn(ctx, input, transcript); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(c.out)
				return nil
			}
			fmt.Fprintf(os.Stderr, "\n  %s %v\n\n", cliui.FailMark, err)
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) printSessionHeader() {
	if c.session == nil {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
		return
	}

	title := c.session.Title
	if title == "" {
		title = conversation.DefaultTitle
	}
	fmt.Fprintf(c.out, "  %s Continuing %s %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(title),
		cliui.DimStyle.Render(c.session.ChatID),
	)
}

// turn sends one message, prints the reply and records the conversation in
// the session file.
func (c *chatCommander) turn(ctx context.Context, input string, transcript io.Writer) error {
	req := api.ChatRequest{Message: input}
	if c.session != nil {
		req.ChatID = c.session.ChatID
	}

	handlers := turnHandlers{
		OnTool: func(p chat.ToolResultPayload) {
			fmt.Fprintf(c.out, "  %s %s\n", cliui.DimStyle.Render(p.Tool+":"), cliui.DimStyle.Render(p.Result))
		},
	}
	if c.showSources {
		handlers.OnSources = c.printSources
	}
	if !c.render {
		started := false
		handlers.OnToken = func(tok string) {
			if !started {
				fmt.Fprint(c.out, assistantPrompt)
				started = true
			}
			fmt.Fprint(c.out, tok)
		}
	}

	result, err := sendTurn(ctx, c.client, c.apiTarget, req, transcript, handlers)
	if err != nil {
		return err
	}

	if c.render {
		rendered, err := cliui.RenderMarkdown(result.Content, cliui.Width(os.Stdout))
		if err != nil {
			rendered = result.Content
		}
		fmt.Fprint(c.out, assistantPrompt)
		fmt.Fprint(c.out, rendered)
	}
	fmt.Fprint(c.out, "\n\n")

	if c.session == nil || c.session.ChatID != result.ChatID {
		c.session = &dotdir.SessionState{
			ChatID: result.ChatID,
			Title:  conversation.TitleFromMessage(input),
		}
		if err := c.dotdirs.SaveSession(c.session, c.configDir); err != nil {
			return err
		}
	}

	return nil
}

func (c *chatCommander) printSources(sources []conversation.Source) {
	if len(sources) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("(no knowledge base passages)"))
		return
	}

	width := cliui.Width(os.Stdout) - 20
	for i, s := range sources {
		text := strings.Join(strings.Fields(s.Text), " ")
		fmt.Fprintf(c.out, "  %s %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("[%d]", i+1)),
			cliui.ScoreStyle.Render(fmt.Sprintf("%.2f", s.Score)),
			cliui.DimStyle.Render(cliui.Truncate(text, width)),
		)
	}
}
