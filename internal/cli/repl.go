package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"odootest/internal/lens"
	"odootest/internal/session"
	"odootest/internal/workflow"
	"odootest/pkg/logging"
)

var errExit = errors.New("exit")

// Dispatcher runs actions by id.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, args []string) (workflow.Execution, error)
	LastInvocation() (session.Invocation, bool)
	History() *workflow.History
	State() *lens.UIState
}

// LensSource returns the lenses of a file.
type LensSource interface {
	File(ctx context.Context, path string) ([]lens.Lens, error)
}

// REPLOptions configures a REPL.
type REPLOptions struct {
	Dispatcher Dispatcher
	Lenses     LensSource
	Out        io.Writer
	Format     OutputFormat
	// HistoryFile keeps the readline history; empty uses the temp directory.
	HistoryFile string
}

// REPL reads actions from the terminal and dispatches them in one session,
// so that rerun and the lens toggles carry over between lines.
type REPL struct {
	d           Dispatcher
	lenses      LensSource
	out         io.Writer
	printer     Printer
	historyFile string

	wg sync.WaitGroup
	mu sync.Mutex
	// last listing, for "click"
	shown []lens.Lens
}

// NewREPL creates a REPL.
func NewREPL(o REPLOptions) *REPL {
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	hist := o.HistoryFile
	if hist == "" {
		hist = filepath.Join(os.TempDir(), ".odoo_test_history")
	}
	return &REPL{
		d:           o.Dispatcher,
		lenses:      o.Lenses,
		out:         out,
		printer:     Printer{Out: out, Format: o.Format},
		historyFile: hist,
	}
}

func (r *REPL) completer() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("actions"),
		readline.PcItem("state"),
		readline.PcItem("history"),
		readline.PcItem("last"),
		readline.PcItem("lenses", readline.PcItemDynamic(listFiles)),
		readline.PcItem("click"),
	}
	for _, a := range session.Actions() {
		items = append(items, readline.PcItem(a.ID))
	}
	return readline.NewPrefixCompleter(items...)
}

// listFiles completes Python file paths relative to the working directory.
func listFiles(line string) []string {
	fields := strings.Fields(line)
	dir := "."
	if len(fields) > 1 {
		dir = filepath.Dir(fields[len(fields)-1])
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			out = append(out, p+string(filepath.Separator))
		} else if strings.HasSuffix(e.Name(), ".py") {
			out = append(out, p)
		}
	}
	return out
}

func (r *REPL) prompt() string {
	st := r.d.State().Snapshot()
	mode := string(st.RunMode)
	if st.HotTest {
		mode = "hot"
	}
	return fmt.Sprintf("odoo-test [%s] » ", mode)
}

// Run reads lines until EOF, exit or ctx is done. A running hot test
// session is waited for before Run returns.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            r.prompt(),
		HistoryFile:       r.historyFile,
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	r.d.State().OnChange(func(lens.State) {
		rl.SetPrompt(r.prompt())
		rl.Refresh()
	})

	logging.Info("REPL", "Type 'help' for available commands. Use TAB for completion.")
	defer r.wg.Wait()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("readline error: %w", err)
		}

		if err := r.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintln(r.out, FormatError(err))
		}
	}
}

// Execute runs one input line.
func (r *REPL) Execute(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	name, args := parts[0], parts[1:]

	switch strings.ToLower(name) {
	case "exit", "quit":
		return errExit
	case "help", "?":
		r.help()
		return nil
	case "actions":
		return r.printer.Print(session.Actions(), ActionTable(session.Actions()))
	case "state":
		st := r.d.State().Snapshot()
		return r.printer.Print(st, Table{
			Headers: []string{"runMode", "layer", "buttons", "hotTest", "logSql"},
			Rows: [][]string{{
				string(st.RunMode), strconv.Itoa(st.Layer), strings.Join(st.Buttons, ","),
				strconv.FormatBool(st.HotTest), strconv.FormatBool(st.LogSQL),
			}},
		})
	case "history":
		execs := r.d.History().List()
		return r.printer.Print(execs, HistoryTable(execs))
	case "last":
		last, ok := r.d.LastInvocation()
		if !ok {
			fmt.Fprintln(r.out, "No previous command.")
			return nil
		}
		fmt.Fprintln(r.out, last.String())
		return nil
	case "lenses":
		return r.showLenses(ctx, args)
	case "click":
		return r.click(ctx, args)
	}
	return r.dispatch(ctx, name, args)
}

func (r *REPL) showLenses(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: lenses <file>")
	}
	lenses, err := r.lenses.File(ctx, args[0])
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.shown = lenses
	r.mu.Unlock()
	return r.printer.Print(lenses, LensTable(lenses))
}

// click dispatches the n-th lens of the last listing.
func (r *REPL) click(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: click <lens number>")
	}
	n, err := strconv.Atoi(args[0])
	r.mu.Lock()
	shown := r.shown
	r.mu.Unlock()
	if err != nil || n < 1 || n > len(shown) {
		return fmt.Errorf("no lens %s, list them with 'lenses <file>' first", args[0])
	}
	l := shown[n-1]
	return r.dispatch(ctx, l.Action, l.Args)
}

func (r *REPL) dispatch(ctx context.Context, id string, args []string) error {
	if id == session.ActionStartHotTest {
		// the hot session blocks until odoo exits
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if _, err := r.d.Dispatch(ctx, id, args); err != nil {
				logging.Error("REPL", err, "Hot test session ended")
			}
		}()
		return nil
	}
	exec, err := r.d.Dispatch(ctx, id, args)
	if err != nil {
		return err
	}
	logging.Debug("REPL", "%s %s in %dms", exec.Action, exec.Status, exec.DurationMs)
	return nil
}

func (r *REPL) help() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  lenses <file>     list the lenses of a file")
	fmt.Fprintln(r.out, "  click <n>         run the n-th lens of the last listing")
	fmt.Fprintln(r.out, "  actions           list the actions")
	fmt.Fprintln(r.out, "  state             show the run mode, button layer and hot test toggles")
	fmt.Fprintln(r.out, "  history           list the actions run in this session")
	fmt.Fprintln(r.out, "  last              show the action rerun would repeat")
	fmt.Fprintln(r.out, "  <action> [args]   run an action, e.g. runTest sale TestSale test_confirm")
	fmt.Fprintln(r.out, "  exit              leave")
}
