package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"scoreboard/internal/cli/command"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	env      *command.Env
	commands map[string]command.Command
	prompt   string
	history  string
}

func New(env *command.Env, commands map[string]command.Command, prompt, historyFile string) *Session {
	return &Session{
		env:      env,
		commands: commands,
		prompt:   prompt,
		history:  historyFile,
	}
}

// Run reads lines until exit, EOF or an interrupt on an empty line.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt,
		HistoryFile:     s.history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer rl.Close()
	s.env.Out = rl.Stdout()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		if !s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs one line and reports whether the session should go on.
func (s *Session) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		s.printLine("error: parse command failed: %v", err)
		return true
	}
	if len(tokens) == 0 {
		return true
	}
	switch tokens[0] {
	case "exit", "quit":
		s.printLine("bye")
		return false
	case "help":
		s.printHelp()
		return true
	case "set":
		s.handleSet(tokens[1:])
		return true
	}

	cmd, ok := s.commands[tokens[0]]
	if !ok {
		s.printLine("error: unknown command %q, try help", tokens[0])
		return true
	}
	args := tokens[1:]
	if err := cmd.Check(args); err != nil {
		s.printLine("error: %v", err)
		return true
	}
	if err := cmd.Run(ctx, s.env, args); err != nil {
		s.printLine("error: %v", err)
	}
	return true
}

func (s *Session) handleSet(args []string) {
	if len(args) != 2 {
		s.printLine("usage: set base|timeout <value>")
		return
	}
	switch args[0] {
	case "base":
		s.env.BaseURL = args[1]
		s.printLine("base set to %s", args[1])
	case "timeout":
		dur, err := time.ParseDuration(args[1])
		if err != nil {
			s.printLine("invalid duration: %v", err)
			return
		}
		s.env.Timeout = dur
		s.printLine("timeout set to %s", dur)
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) printHelp() {
	for _, name := range command.Names(s.commands) {
		cmd := s.commands[name]
		s.printLine("  %-28s %s", cmd.Usage, cmd.Summary)
	}
	s.printLine("  %-28s %s", "set base|timeout <value>", "change the server connection")
	s.printLine("  %-28s %s", "help", "show this list")
	s.printLine("  %-28s %s", "exit", "leave the console")
}

func (s *Session) completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(s.commands)+3)
	for _, name := range command.Names(s.commands) {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("set", readline.PcItem("base"), readline.PcItem("timeout")))
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))
	return readline.NewPrefixCompleter(items...)
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.env.Out, format+"\n", args...)
}
