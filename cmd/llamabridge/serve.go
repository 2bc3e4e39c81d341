package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"llamabridge/internal/bridge"
	"llamabridge/internal/httpapi"
	"llamabridge/internal/registry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(o *options) *cobra.Command {
	var corsOrigins string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  llamabridge serve --addr :8080 --model tinyllama-1.1b.Q4_K_M.gguf",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if origins := splitCSV(corsOrigins); len(origins) > 0 {
				o.CORS.Enabled = true
				o.CORS.AllowedOrigins = origins
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", o.Addr)
			if err != nil {
				return err
			}
			return serve(ctx, o, ln)
		},
	}
	cmd.Flags().String("addr", o.Addr, "HTTP listen address, e.g. :8080 (defaults LLAMABRIDGE_ADDR)")
	cmd.Flags().String("model", "", "Model path or registry id to load at startup")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma separated CORS origins; enables CORS when set")
	return cmd
}

// newSession builds a session over the models found in o.ModelsDir. A missing
// models directory is not fatal: explicit paths still load.
func newSession(o *options) *bridge.Session {
	log := o.logger
	reg, err := registry.LoadDir(o.ModelsDir)
	if err != nil {
		log.Warn().Err(err).Str("models_dir", o.ModelsDir).Msg("model discovery failed")
	}
	return bridge.New(bridge.Config{
		Engine:       newEngine(),
		Registry:     reg,
		LoadDefaults: o.loadDefaults(),
		QueueDepth:   o.QueueDepth,
		Logger:       &log,
		Publisher:    bridge.LogPublisher{Logger: log},
	})
}

// serve runs the API on ln until ctx ends, then drains and closes the session.
func serve(ctx context.Context, o *options, ln net.Listener) error {
	log := o.logger
	sess := newSession(o)

	g, gctx := errgroup.WithContext(ctx)
	httpapi.SetLogger(log)
	httpapi.SetBaseContext(gctx)
	httpapi.SetMaxBodyBytes(o.MaxBodyBytes)
	httpapi.SetCORSOptions(o.CORS.Enabled, o.CORS.AllowedOrigins, o.CORS.AllowedMethods, o.CORS.AllowedHeaders)

	srv := &http.Server{
		Handler:           httpapi.NewMux(httpapi.FromSession(sess)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("models_dir", o.ModelsDir).Bool("llama", bridge.LlamaBuilt).Msg("llamabridge listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if o.Model != "" {
		g.Go(func() error {
			req := loadRequestFor(o.Model)
			if err := sess.Load(gctx, req); err != nil {
				// keep serving; the model can still be loaded over HTTP
				log.Error().Err(err).Str("model", o.Model).Msg("autoload failed")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs error
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
			errs = multierr.Append(errs, err)
		}
		if err := sess.Close(sctx); err != nil {
			log.Warn().Err(err).Msg("session close error")
			errs = multierr.Append(errs, err)
		}
		log.Info().Msg("llamabridge stopped")
		return errs
	})

	return g.Wait()
}
