package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"finbot/internal/bot"
	"finbot/internal/log"
)

var (
	consoleUser int64
	consoleName string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Talk to the bot from the terminal",
	Long: `Read messages from stdin as a single user and print the replies.

A line starting with "!" presses the button with that data, for example
"!list_operations" or "!edit_op_3". An empty line exits.

Example:
  finbot console --user 42 --name Ann`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().Int64Var(&consoleUser, "user", 1, "user id to act as")
	consoleCmd.Flags().StringVar(&consoleName, "name", "", "first name used in greetings")
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger.WithComponent(log.ComponentConsole))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Failure(ctx, "Failed to close resources", log.OpShutdown, err)
		}
	}()

	out := cmd.OutOrStdout()
	printReply(out, a.dispatcher.Handle(ctx, bot.Event{UserID: consoleUser, Text: "/start", FirstName: consoleName}))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		printReply(out, a.dispatcher.Handle(ctx, consoleEvent(line)))
	}
	return scanner.Err()
}

func consoleEvent(line string) bot.Event {
	ev := bot.Event{UserID: consoleUser, FirstName: consoleName}
	if data, ok := strings.CutPrefix(line, "!"); ok {
		ev.Button = data
	} else {
		ev.Text = line
	}
	return ev
}

func printReply(w io.Writer, r bot.Reply) {
	if len(r.Image) > 0 {
		fmt.Fprintf(w, "[chart, %d bytes]\n", len(r.Image))
	}
	fmt.Fprintln(w, r.Text)
	for _, row := range r.Keyboard {
		keys := make([]string, len(row))
		for i, b := range row {
			keys[i] = fmt.Sprintf("[%s !%s]", b.Label, b.Data)
		}
		fmt.Fprintln(w, "  "+strings.Join(keys, " "))
	}
	fmt.Fprintln(w)
}
