package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamabridge/internal/bridge"
	"llamabridge/internal/common/fsutil"
	"llamabridge/internal/config"
	"llamabridge/pkg/types"
)

const (
	defaultAddr      = ":8080"
	defaultModelsDir = "~/models/llm"
)

// newEngine builds the native engine. Tests swap it for a fake.
var newEngine = bridge.NewLlamaEngine

// options is the merged result of defaults, config file and flags.
type options struct {
	ConfigPath string
	config.Config
	logger zerolog.Logger
}

func defaultOptions() *options {
	o := &options{Config: config.Config{
		Addr:      defaultAddr,
		ModelsDir: defaultModelsDir,
		LogLevel:  "info",
		LogFormat: "console",
	}}
	if v := os.Getenv("LLAMABRIDGE_ADDR"); v != "" {
		o.Addr = v
	}
	o.ConfigPath = os.Getenv("LLAMABRIDGE_CONFIG")
	return o
}

func buildRootCmd() *cobra.Command { return buildRootCmdWith(defaultOptions()) }

// buildRootCmdWith constructs the command tree around o.
func buildRootCmdWith(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "llamabridge",
		Short:         "Serve and drive a single llama.cpp session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.ConfigPath, "config", o.ConfigPath, "Config file (.yaml|.yml|.json|.toml; defaults LLAMABRIDGE_CONFIG)")
	pf.String("log-level", o.LogLevel, "Log level: debug|info|warn|error")
	pf.String("log-format", o.LogFormat, "Log format: console|json")
	pf.String("models-dir", o.ModelsDir, "Directory to scan for *.gguf model files")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := o.merge(cmd); err != nil {
			return err
		}
		logger, err := newLogger(o.LogLevel, o.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		o.logger = logger
		return nil
	}

	root.AddCommand(
		newServeCmd(o),
		newGenerateCmd(o),
		newModelsCmd(o),
		newInfoCmd(o),
		newCompletionCmd(root),
	)
	return root
}

// merge applies the config file, then any flag the user set explicitly.
func (o *options) merge(cmd *cobra.Command) error {
	if o.ConfigPath != "" {
		fc, err := config.Load(o.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.overlay(fc)
	}
	flags := cmd.Flags()
	for _, name := range []string{"log-level", "log-format", "models-dir", "addr", "model"} {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		v := f.Value.String()
		switch name {
		case "log-level":
			o.LogLevel = v
		case "log-format":
			o.LogFormat = v
		case "models-dir":
			o.ModelsDir = v
		case "addr":
			o.Addr = v
		case "model":
			o.Model = v
		}
	}
	return nil
}

// overlay copies the non-zero values of fc onto o.
func (o *options) overlay(fc config.Config) {
	if fc.Addr != "" {
		o.Addr = fc.Addr
	}
	if fc.ModelsDir != "" {
		o.ModelsDir = fc.ModelsDir
	}
	if fc.Model != "" {
		o.Model = fc.Model
	}
	if fc.QueueDepth > 0 {
		o.QueueDepth = fc.QueueDepth
	}
	if fc.LogLevel != "" {
		o.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		o.LogFormat = fc.LogFormat
	}
	if fc.MaxBodyBytes > 0 {
		o.MaxBodyBytes = fc.MaxBodyBytes
	}
	o.Load = fc.Load
	if fc.CORS.Enabled {
		o.CORS = fc.CORS
	}
}

// loadDefaults turns the config file's load section into engine defaults.
func (o *options) loadDefaults() *bridge.LoadConfig {
	lc := bridge.DefaultLoadConfig()
	d := o.Load
	if d.Threads != nil {
		lc.Threads = *d.Threads
	}
	if d.GPULayers != nil {
		lc.GPULayers = *d.GPULayers
	}
	if d.ContextSize != nil {
		lc.ContextSize = *d.ContextSize
	}
	if d.BatchSize != nil {
		lc.BatchSize = *d.BatchSize
	}
	if d.UseGPU != nil {
		lc.UseGPU = *d.UseGPU
	}
	if d.Verbose != nil {
		lc.Verbose = *d.Verbose
	}
	return &lc
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want console|json)", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	return completionCmd
}

// loadRequestFor treats ref as a file path when it names a readable file and
// as a registry id otherwise.
func loadRequestFor(ref string) types.LoadRequest {
	if p, err := fsutil.ResolveReadable(ref); err == nil {
		return types.LoadRequest{ModelPath: p}
	}
	return types.LoadRequest{Model: ref}
}

// splitCSV splits a comma separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
