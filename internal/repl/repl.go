// Package repl is the interactive terminal front end: natural-language
// instructions go to the processor, colon-commands inspect local state.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	prompt "github.com/c-bata/go-prompt"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"keeper/internal/agent"
	"keeper/internal/domain"
	"keeper/internal/resolve"
	"keeper/internal/tooling"
)

var commandSuggestions = []prompt.Suggest{
	{Text: ":help", Description: "Show available commands"},
	{Text: ":tools", Description: "List the tools exposed to the model"},
	{Text: ":items", Description: "List items"},
	{Text: ":members", Description: "List members"},
	{Text: ":as", Description: "Act as a member (:as zhangsan)"},
	{Text: ":trace", Description: "Toggle agent trace output"},
	{Text: ":quit", Description: "Exit"},
}

type promptExit struct{}

// REPL wires the processor to an interactive prompt.
type REPL struct {
	processor *agent.Processor
	repo      domain.Reader
	registry  *tooling.Registry
	render    *glamour.TermRenderer
	isTTY     bool

	actorID   string
	actorName string
	showTrace bool
}

func New(processor *agent.Processor, repo domain.Reader, registry *tooling.Registry) *REPL {
	r := &REPL{
		processor: processor,
		repo:      repo,
		registry:  registry,
		isTTY:     term.IsTerminal(int(os.Stdin.Fd())),
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(0),
		); err == nil {
			r.render = renderer
		}
	}
	return r
}

// ActAs sets the acting member by username or name before Run.
func (r *REPL) ActAs(ref string) error {
	member, err := resolve.MemberByRef(r.repo.Snapshot(), ref)
	if err != nil {
		return err
	}
	r.actorID = member.ID
	r.actorName = member.Name
	return nil
}

// Run blocks reading instructions until the user exits.
func (r *REPL) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !r.isTTY {
		return r.runNonInteractive(ctx)
	}

	fmt.Println("Keeper ready. Type an instruction, or :help for commands.")

	var restore func()
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if state, err := term.GetState(fd); err == nil {
			restore = func() { _ = term.Restore(fd, state) }
		}
	}
	if restore != nil {
		defer restore()
	}

	var exitRequested atomic.Bool
	defer func() {
		if rec := recover(); rec != nil {
			if _, ok := rec.(promptExit); !ok {
				panic(rec)
			}
		}
	}()

	executor := func(in string) {
		if exitRequested.Load() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(in)
		if line == "" {
			return
		}
		if exit := r.handleLine(ctx, line); exit {
			exitRequested.Store(true)
			cancel()
			panic(promptExit{})
		}
	}

	p := prompt.New(
		executor,
		r.completer,
		prompt.OptionTitle("Keeper"),
		prompt.OptionLivePrefix(func() (string, bool) {
			who := r.actorName
			if who == "" {
				who = "guest"
			}
			return fmt.Sprintf("[%s] > ", who), true
		}),
		prompt.OptionAddKeyBind(
			prompt.KeyBind{
				Key: prompt.ControlD,
				Fn: func(buf *prompt.Buffer) {
					if buf.Text() == "" {
						exitRequested.Store(true)
						cancel()
						panic(promptExit{})
					}
				},
			},
		),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
			return exitRequested.Load() || ctx.Err() != nil
		}),
	)
	p.Run()
	return nil
}

func (r *REPL) runNonInteractive(ctx context.Context) error {
	scanner := bufio.NewReader(os.Stdin)
	for {
		line, err := scanner.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			if exit := r.handleLine(ctx, line); exit {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (r *REPL) completer(doc prompt.Document) []prompt.Suggest {
	prefix := strings.TrimLeft(doc.TextBeforeCursor(), " \t")
	if !strings.HasPrefix(prefix, ":") {
		return nil
	}
	return prompt.FilterHasPrefix(commandSuggestions, doc.GetWordBeforeCursor(), true)
}

// handleLine dispatches one input line; true means exit.
func (r *REPL) handleLine(ctx context.Context, line string) bool {
	if strings.HasPrefix(line, ":") {
		return r.handleCommand(line)
	}

	result, err := r.processor.Process(ctx, line, r.actorID)
	if err != nil {
		fmt.Printf("错误：%v\n", err)
		return false
	}
	r.print(formatResult(result, r.showTrace))
	return false
}

func (r *REPL) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":exit", ":q":
		return true
	case ":help":
		for _, s := range commandSuggestions {
			fmt.Printf("  %-10s %s\n", s.Text, s.Description)
		}
	case ":tools":
		fmt.Println(r.registry.Catalog())
	case ":items":
		snap := r.repo.Snapshot()
		for _, item := range snap.Items {
			fmt.Printf("  %s (%s, %s)\n", item.Name, item.Status, item.Visibility)
		}
		if len(snap.Items) == 0 {
			fmt.Println("  (none)")
		}
	case ":members":
		snap := r.repo.Snapshot()
		for _, m := range snap.Members {
			fmt.Printf("  %s (@%s)\n", m.Name, m.Username)
		}
		if len(snap.Members) == 0 {
			fmt.Println("  (none)")
		}
	case ":as":
		if len(fields) < 2 {
			fmt.Println("usage: :as <username>")
			return false
		}
		member, err := resolve.MemberByRef(r.repo.Snapshot(), fields[1])
		if err != nil {
			fmt.Printf("未找到成员：%v\n", err)
			return false
		}
		r.actorID = member.ID
		r.actorName = member.Name
		fmt.Printf("现在以 %s 的身份操作。\n", member.Name)
	case ":trace":
		r.showTrace = !r.showTrace
		fmt.Printf("trace output: %v\n", r.showTrace)
	default:
		fmt.Printf("unknown command %s (try :help)\n", fields[0])
	}
	return false
}

func (r *REPL) print(markdown string) {
	if r.render != nil {
		if out, err := r.render.Render(markdown); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(markdown)
}
