// cmd/reckon/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reckon/internal/object"
	"reckon/internal/repl"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

const version = "0.1.0"

func main() {
	var memSize int
	var configPath string

	root := &cobra.Command{
		Use:     "reckon",
		Short:   "reckon is an RPN scientific calculator kernel",
		Version: version,
	}
	root.PersistentFlags().IntVar(&memSize, "mem", runtime.DefaultSize,
		"arena size in bytes")
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(),
		"settings database path")

	newContext := func() (*object.Context, *settings.Store) {
		cfg := settings.Default()
		var store *settings.Store
		if configPath != "" {
			if st, err := settings.Open(configPath); err == nil {
				store = st
				st.Load(cfg)
			}
		}
		rt := runtime.New(memSize)
		return object.NewContext(rt, cfg), store
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive calculator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, store := newContext()
			if store != nil {
				defer store.Close()
			}
			return repl.Start(ctx, store)
		},
	}

	evalCmd := &cobra.Command{
		Use:   "eval <line...>",
		Short: "Evaluate RPL source and print the stack top",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, store := newContext()
			if store != nil {
				defer store.Close()
			}
			for _, line := range args {
				if err := object.EvalLine(ctx, line); err != nil {
					return err
				}
			}
			if ctx.RT.Depth() > 0 {
				fmt.Println(object.Render(ctx, ctx.RT.Top()))
			}
			return nil
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the persistent settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, store := newContext()
			if store != nil {
				defer store.Close()
			}
			cfg := ctx.Cfg
			fmt.Printf("precision:  %d\n", cfg.Precision)
			fmt.Printf("display:    %s %d\n", cfg.Display, cfg.DisplayDigits)
			fmt.Printf("angle mode: %s\n", cfg.Angle)
			fmt.Printf("base:       %d (word size %d)\n", cfg.Base, cfg.WordSize)
			fmt.Printf("hw float:   %v\n", cfg.HardwareFloatingPoint)
			return nil
		},
	}

	root.AddCommand(replCmd, evalCmd, settingsCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".reckon.db")
}
