package tui

import (
	"fmt"
	"strings"
)

type CommandKind int

const (
	CmdChat CommandKind = iota
	CmdHelp
	CmdQuit
	CmdClear
	CmdToken
	CmdDisconnect
	CmdPages
)

// Command is one parsed line of user input.
type Command struct {
	Kind CommandKind
	// Arg is the chat message, the token for /token, or the cursor for /pages.
	Arg string
}

// ParseCommand turns an input line into a Command. Lines not starting with
// "/" are chat messages and are passed through unchanged.
func ParseCommand(input string) (Command, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CmdChat, Arg: input}, nil
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/help":
		return Command{Kind: CmdHelp}, nil
	case "/quit", "/exit":
		return Command{Kind: CmdQuit}, nil
	case "/clear":
		return Command{Kind: CmdClear}, nil
	case "/token":
		if arg == "" {
			return Command{}, fmt.Errorf("usage: /token <notion-integration-token>")
		}
		return Command{Kind: CmdToken, Arg: arg}, nil
	case "/disconnect":
		return Command{Kind: CmdDisconnect}, nil
	case "/pages":
		return Command{Kind: CmdPages, Arg: arg}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %s (try /help)", name)
	}
}

func formatHelp() string {
	var b strings.Builder
	b.WriteString(Brand.Render("Commands:\n"))
	fmt.Fprintf(&b, "  %s  %s\n", Keyword.Render("/help"), Muted.Render("Show help"))
	fmt.Fprintf(&b, "  %s  %s\n", Keyword.Render("/quit"), Muted.Render("Exit chat"))
	fmt.Fprintf(&b, "  %s  %s\n", Keyword.Render("/clear"), Muted.Render("Clear chat history"))
	fmt.Fprintf(&b, "  %s  %s\n", Keyword.Render("/token <token>"), Muted.Render("Connect a Notion workspace"))
	fmt.Fprintf(&b, "  %s  %s\n", Keyword.Render("/disconnect"), Muted.Render("Forget the Notion token"))
	fmt.Fprintf(&b, "  %s  %s\n", Keyword.Render("/pages [cursor]"), Muted.Render("Browse workspace pages"))
	b.WriteString(Dim("  Any other text is sent to the assistant"))
	return b.String()
}
