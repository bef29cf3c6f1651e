package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/api"
	"github.com/yourname/sleeptoggle/internal/auth"
	"github.com/yourname/sleeptoggle/internal/config"
	"github.com/yourname/sleeptoggle/internal/service"
)

type CLI struct {
	EnvFile string `short:"e" help:"Env file to load before reading the environment" default:".env"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Serve struct {
		Addr string `help:"Listen address (overrides HTTP_ADDR)"`
	} `cmd:"" help:"Serve the HTTP API"`

	Status struct{} `cmd:"" help:"Show the current in-bed and asleep state"`

	Toggle struct {
		Kind   string `arg:"" enum:"bed,sleep" help:"Which toggle to flip (bed or sleep)"`
		Review string `short:"r" enum:"submit,discard" default:"submit" help:"What to do with a closed interval (submit or discard)"`
	} `cmd:"" help:"Flip the in-bed or asleep toggle"`

	Authorize struct {
		Deny bool `help:"Refuse sharing sleep samples with the health store"`
	} `cmd:"" help:"Allow (or refuse) sharing sleep samples with the health store"`

	Samples struct{} `cmd:"" help:"List submitted samples"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("sleeptoggle"),
		kong.Description("Mark in-bed and asleep periods and record them as sleep samples."),
	)

	cfg, err := config.Load(cli.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	level := cfg.LogLevel
	if cli.Verbose {
		level = "debug"
	}
	logger, err := internal.NewLogger(level, cfg.LogFormat, "sleeptoggle")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx.Command(), &cli, cfg, logger, os.Stdout); err != nil {
		logger.Errorf("%s failed: %v", kctx.Command(), err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cli *CLI, cfg *config.Config, logger internal.Logger, out io.Writer) error {
	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	switch command {
	case "serve":
		addr := cfg.HTTPAddr
		if cli.Serve.Addr != "" {
			addr = cli.Serve.Addr
		}
		return serve(ctx, app, addr)
	case "status":
		printStatus(out, app.Sleep().Status(ctx))
		return nil
	case "toggle <kind>":
		return toggle(ctx, app.Sleep(), cli.Toggle.Kind, cli.Toggle.Review, out)
	case "authorize":
		status, err := app.Sleep().RequestAuthorization(ctx, !cli.Authorize.Deny)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Health data sharing: %s\n", status)
		return nil
	case "samples":
		samples, err := app.Sleep().ListSamples(ctx)
		if err != nil {
			return err
		}
		for _, s := range samples {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", s.Kind, s.StartTime.Local().Format(time.RFC3339), s.EndTime.Local().Format(time.RFC3339), s.EndTime.Sub(s.StartTime).Round(time.Minute))
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func toggle(ctx context.Context, svc *service.SleepService, kindArg, review string, out io.Writer) error {
	if err := svc.Blocking(ctx); err != nil {
		return err
	}
	kind := internal.KindInBed
	if kindArg == "sleep" {
		kind = internal.KindAsleep
	}

	res, err := svc.Toggle(ctx, kind)
	if res == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "warning: %v\n", err)
	}
	printLabels(out, res.Labels)
	if res.Review == nil {
		return nil
	}

	iv := res.Review.Interval
	fmt.Fprintf(out, "Closed %s interval: %s → %s (%s)\n", iv.Kind, iv.StartTime.Local().Format(time.Kitchen), iv.EndTime.Local().Format(time.Kitchen), iv.Duration().Round(time.Second))
	sample, err := svc.Decide(ctx, res.Review.ID, &service.ReviewDecision{Action: review})
	if err != nil {
		return err
	}
	if sample == nil {
		fmt.Fprintln(out, "Discarded.")
		return nil
	}
	fmt.Fprintf(out, "Saved sample %s.\n", sample.ID)
	return nil
}

func printLabels(out io.Writer, l internal.StatusLabels) {
	fmt.Fprintf(out, "%s, %s  [%s] [%s]\n", l.Bed, l.Sleep, l.BedButton, l.SleepButton)
}

func printStatus(out io.Writer, st service.Status) {
	printLabels(out, st.Labels)
	fmt.Fprintf(out, "Health data sharing: %s\n", st.Authorization)
	if st.Notice != nil {
		fmt.Fprintf(out, "Notice: %s\n", st.Notice.Message)
	}
}

func serve(ctx context.Context, app *application, addr string) error {
	if app.cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	provider := auth.NewProvider(app.cfg.Env, app.cfg.APIToken, app.cfg.AuthServiceURL, app.logger)
	router := api.NewRouter(app, auth.AuthMiddleware(provider, app.cfg.Env))

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		app.logger.Infof("Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	app.logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
