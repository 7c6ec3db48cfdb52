package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/spektr-org/salesq/chat"
)

const chatPrompt = "salesq> "

func newChatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. Follow-up questions such as
"what about February?" reuse the context of earlier answers.

Type .help for commands, .quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newAssistant(cmd.Context(), c.cfg, nil)
			if err != nil {
				return err
			}
			return runREPL(cmd, a.NewSession("repl"))
		},
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "salesq")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

func runREPL(cmd *cobra.Command, s *chat.Session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    dotCompleter,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "💬 Ask me about sales, active stores, comparisons and rankings.")
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, s, line); quit {
				return nil
			}
			continue
		}

		ask(cmd.Context(), cmd, s, line)
		_, _ = fmt.Fprintln(out)
	}
}

// ask runs one turn. A failed turn is reported and the loop goes on.
func ask(ctx context.Context, cmd *cobra.Command, s *chat.Session, question string) {
	ans, err := s.Ask(ctx, question)
	if err != nil {
		renderProblem(cmd.OutOrStdout(), err)
		return
	}
	renderAnswer(cmd.OutOrStdout(), ans)
}

var dotCompleter = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".history"),
	readline.PcItem(".examples"),
	readline.PcItem(".export"),
	readline.PcItem(".clear"),
	readline.PcItem(".quit"),
)

// handleDotCommand runs a REPL command and reports whether to quit.
func handleDotCommand(cmd *cobra.Command, s *chat.Session, line string) bool {
	out := cmd.OutOrStdout()
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)

	case ".examples":
		renderExamples(out)

	case ".history":
		turns := s.History()
		if len(turns) == 0 {
			_, _ = fmt.Fprintln(out, "(no questions yet)")
		}
		for i, t := range turns {
			_, _ = fmt.Fprintf(out, "%2d. %s\n", i+1, t.Question)
		}

	case ".export":
		ans, ok := s.LastTable()
		if !ok {
			_, _ = fmt.Fprintln(out, "Nothing to export yet: ask for a breakdown, ranking or comparison first.")
			return false
		}
		var path string
		if len(parts) > 1 {
			path = parts[1]
		}
		written, err := exportAnswer(path, ans, time.Now())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(out, "📄 CSV written to %s\n", written)

	case ".clear":
		s.Clear()
		_, _ = fmt.Fprintln(out, "🗑️ Conversation cleared")

	default:
		_, _ = fmt.Fprintf(out, "Unknown command %s (try .help)\n", parts[0])
	}
	return false
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, `Commands:
  .help            show this help
  .examples        show example questions
  .history         list the questions answered so far
  .export [file]   save the last table as CSV
  .clear           forget the conversation
  .quit            exit

Anything else is a question, e.g. "Top 3 brands by active stores".`)
}
