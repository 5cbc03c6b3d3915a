// internal/repl/repl.go
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"reckon/internal/object"
	"reckon/internal/settings"
)

// Start runs the interactive loop: each line is evaluated as RPL and
// the visible stack levels are printed back.
func Start(ctx *object.Context, store *settings.Store) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if !interactive {
		return pipe(ctx)
	}

	history := filepath.Join(os.TempDir(), ".reckon_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     history,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("reckon | RPN calculator | type 'exit' to quit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			ctx.RT.Interrupt()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		evalAndPrint(ctx, line, os.Stdout)
		if store != nil {
			store.Save(ctx.Cfg)
		}
	}
}

// pipe evaluates stdin line by line, for non-interactive use.
func pipe(ctx *object.Context) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		evalAndPrint(ctx, line, os.Stdout)
	}
	return nil
}

// evalAndPrint runs one line and shows the error or the stack top.
func evalAndPrint(ctx *object.Context, line string, w io.Writer) {
	ctx.RT.ClearError()
	ctx.RT.SaveUndo()
	if err := object.EvalLine(ctx, line); err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		ctx.RT.ClearError()
		return
	}
	depth := ctx.RT.Depth()
	show := depth
	if show > 4 {
		show = 4
	}
	for i := show - 1; i >= 0; i-- {
		ref := ctx.RT.Stack(i)
		fmt.Fprintf(w, "%d: %s\n", i+1, object.Render(ctx, ref))
	}
}
