package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"llamabridge/internal/bridge"
	"llamabridge/pkg/types"
)

func newGenerateCmd(o *options) *cobra.Command {
	var (
		temperature, topP, repeatPenalty float64
		topK, maxTokens                  int
		threads, gpuLayers, contextSize  int
	)
	cmd := &cobra.Command{
		Use:     "generate <prompt>",
		Short:   "Load a model and stream one completion to stdout",
		Example: "  llamabridge generate --model ~/models/llm/tinyllama-1.1b.Q4_K_M.gguf \"Write a haiku about the ocean.\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.Model == "" {
				return fmt.Errorf("--model is required")
			}
			fl := cmd.Flags()
			load := loadRequestFor(o.Model)
			if fl.Changed("threads") {
				load.Threads = &threads
			}
			if fl.Changed("gpu-layers") {
				load.GPULayers = &gpuLayers
			}
			if fl.Changed("context-size") {
				load.ContextSize = &contextSize
			}

			gen := types.GenerateRequest{Prompt: strings.Join(args, " ")}
			if fl.Changed("temperature") {
				gen.Temperature = &temperature
			}
			if fl.Changed("top-p") {
				gen.TopP = &topP
			}
			if fl.Changed("top-k") {
				gen.TopK = &topK
			}
			if fl.Changed("max-tokens") {
				gen.MaxTokens = &maxTokens
			}
			if fl.Changed("repeat-penalty") {
				gen.RepeatPenalty = &repeatPenalty
			}

			// Ctrl+C stops the generation; what was produced is kept
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runGenerate(ctx, o, load, gen, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.String("model", "", "Model path or registry id")
	f.Float64Var(&temperature, "temperature", bridge.DefaultTemperature, "Sampling temperature")
	f.Float64Var(&topP, "top-p", bridge.DefaultTopP, "Nucleus sampling probability")
	f.IntVar(&topK, "top-k", bridge.DefaultTopK, "Top-K sampling")
	f.IntVar(&maxTokens, "max-tokens", bridge.DefaultMaxTokens, "Maximum new tokens")
	f.Float64Var(&repeatPenalty, "repeat-penalty", bridge.DefaultRepeatPenalty, "Repeat penalty")
	f.IntVar(&threads, "threads", bridge.DefaultThreads, "CPU threads")
	f.IntVar(&gpuLayers, "gpu-layers", bridge.DefaultGPULayers, "Layers offloaded to the GPU")
	f.IntVar(&contextSize, "context-size", bridge.DefaultContextSize, "Context window in tokens")
	return cmd
}

// runGenerate loads the model, streams one completion into w and unloads.
func runGenerate(ctx context.Context, o *options, load types.LoadRequest, gen types.GenerateRequest, w io.Writer) error {
	log := o.logger
	sess := newSession(o)
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sess.Close(cctx); err != nil {
			log.Warn().Err(err).Msg("session close error")
		}
	}()

	if err := sess.Load(ctx, load); err != nil {
		return err
	}
	sub, err := sess.Subscribe()
	if err != nil {
		return err
	}

	var res bridge.GenerationResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// a rejected stream never closes the subscription itself
		defer sub.Close()
		var err error
		res, err = sess.GenerateStream(gctx, gen)
		return err
	})

	for ev := range sub.Events() {
		if ev.Token != "" {
			fmt.Fprint(w, ev.Token)
		}
	}
	fmt.Fprintln(w)
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().
		Int("tokens", res.TokensGenerated).
		Dur("elapsed", res.Elapsed).
		Bool("stopped", res.Stopped).
		Msg("generation finished")
	return nil
}
