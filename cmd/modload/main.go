// Command modload runs a module graph from an entry file or URL.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/module-loader/config"
	"github.com/wippyai/module-loader/runtime"
)

type options struct {
	configFile  string
	paths       []string
	debug       int
	noData      bool
	interactive bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "modload [entry]",
		Short: "Load and run a module graph",
		Long: `modload loads the entry module and everything it requires.

Bare specifiers are searched in --path entries, then MODLOAD_PATH, then
$HOME/.modload_libraries. The entry may be a file or an http(s) URL.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			entry := ""
			if len(args) == 1 {
				entry = args[0]
			}
			if opts.interactive {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("interactive mode needs a terminal")
				}
				console := &bytes.Buffer{}
				rt, err := newRuntime(ctx, opts, console, console)
				if err != nil {
					return err
				}
				defer rt.Close(context.Background())
				return runInteractive(rt, entry, console)
			}
			if entry == "" {
				return fmt.Errorf("an entry module is required")
			}
			return run(ctx, opts, entry, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (toml, yaml or json)")
	flags.StringSliceVarP(&opts.paths, "path", "p", nil, "directories searched before MODLOAD_PATH")
	flags.IntVar(&opts.debug, "debug", -1, "debug level, overrides MODLOAD_DEBUG")
	flags.BoolVar(&opts.noData, "no-data", false, "disable json/toml/yaml/hcl/cue data modules")
	root.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the module graph in a TUI")

	root.AddCommand(newResolveCmd(opts))
	return root
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <specifier>...",
		Short: "Print the id and location each specifier loads from",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(commandContext(cmd), opts, io.Discard, io.Discard)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			out := cmd.OutOrStdout()
			for _, spec := range args {
				id, loc, err := rt.Locate(spec)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", spec, id, loc)
			}
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func run(ctx context.Context, opts *options, entry string, stdout, stderr io.Writer) error {
	rt, err := newRuntime(ctx, opts, stdout, stderr)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	_, err = rt.RunMain(ctx, entry)
	return err
}

func newRuntime(ctx context.Context, opts *options, stdout, stderr io.Writer) (*runtime.Runtime, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: opts.configFile})
	if err != nil {
		return nil, err
	}
	if opts.debug >= 0 {
		cfg.Debug = opts.debug
	}

	logger, err := config.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	runtime.SetLogger(logger)

	searchPath := append(append([]string(nil), opts.paths...), cfg.SearchPath()...)
	return runtime.New(ctx, runtime.Options{
		SearchPath:     searchPath,
		HTTPTimeout:    cfg.HTTPTimeout,
		MaxInflight:    int64(cfg.MaxInflight),
		Stdout:         stdout,
		Stderr:         stderr,
		DataTransforms: !opts.noData,
	})
}
