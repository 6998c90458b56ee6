package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sesh/internal/repositories"
	"github.com/desertthunder/sesh/internal/services"
	"github.com/desertthunder/sesh/internal/session"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The backend client, stores and metrics are built on first use.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	api        *services.AuthAPI
	stores     *repositories.Stores
	registry   *prometheus.Registry
	metrics    *session.Metrics

	// redirects tracks login redirects scheduled by teardown so the process outlives them.
	redirects sync.WaitGroup
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Stores     *repositories.Stores
	Registry   *prometheus.Registry
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		stores:     opts.Stores,
		registry:   opts.Registry,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "sesh",
		Usage:    "Hold an access/refresh token session against a cookie-authenticated backend",
		Version:  "0.3.0",
		Flags:    configFlags(),
		Before:   r.configure,
		After:    r.shutdown,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, requestCommand, eventsCommand, monitorCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the file named by --config, when present, and applies the log level.
// A missing file leaves the defaults in place; `setup database` creates it.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		conf, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = conf
		r.logger.Debug("config loaded", "path", path)
	} else if cmd.IsSet("config") {
		r.logger.Warn("config file not found, using defaults", "path", path)
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)
	return ctx, nil
}

// shutdown waits for pending login redirects and releases the stores.
func (r *Runner) shutdown(ctx context.Context, cmd *cli.Command) error {
	r.redirects.Wait()
	if r.stores == nil {
		return nil
	}
	err := r.stores.Close()
	r.stores = nil
	return err
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) authAPI() (*services.AuthAPI, error) {
	if r.api != nil {
		return r.api, nil
	}

	client := r.httpClient
	if client == nil {
		var err error
		if client, err = services.NewHTTPClient(r.config.API.RequestTimeout.Duration); err != nil {
			return nil, err
		}
	}

	api, err := services.NewAuthAPI(r.config.API.BaseURL, client, services.EndpointsFromConfig(r.config.API))
	if err != nil {
		return nil, err
	}
	r.api = api
	return api, nil
}

func (r *Runner) openStores(ctx context.Context) (*repositories.Stores, error) {
	if r.stores != nil {
		return r.stores, nil
	}
	stores, err := repositories.Open(ctx, r.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	r.stores = stores
	return stores, nil
}

func (r *Runner) sessionMetrics() (*session.Metrics, error) {
	if r.metrics != nil {
		return r.metrics, nil
	}
	m, err := session.NewMetrics(r.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	r.metrics = m
	return m, nil
}

// session builds a controller over the configured backend and store and restores persisted expiries.
//
// A nil notifier or redirector falls back to logging; session.open_browser swaps the redirector for the
// system browser.
func (r *Runner) session(ctx context.Context, notifier session.Notifier, redirector session.Redirector) (*session.Controller, error) {
	api, err := r.authAPI()
	if err != nil {
		return nil, err
	}
	stores, err := r.openStores(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := r.sessionMetrics()
	if err != nil {
		return nil, err
	}

	if redirector == nil && r.config.Session.OpenBrowser {
		redirector = session.NewBrowserRedirector()
	}

	ctrl, err := session.New(session.Options{
		Backend:         api,
		Store:           stores.Expiry,
		Events:          stores.Recorder(),
		Notifier:        notifier,
		Redirector:      redirector,
		Metrics:         metrics,
		Logger:          r.logger,
		RefreshTimeout:  r.config.Session.RefreshTimeout.Duration,
		MonitorInterval: r.config.Session.MonitorInterval.Duration,
		RedirectDelay:   r.config.Session.RedirectDelay.Duration,
		LoginURL:        r.loginURL(api),
		AfterFunc:       r.afterFunc,
	})
	if err != nil {
		return nil, err
	}

	if err := ctrl.Restore(ctx); err != nil {
		r.logger.Warn("failed to restore session", "error", err)
	}
	return ctrl, nil
}

// loginURL resolves session.login_page against the backend base URL.
func (r *Runner) loginURL(api *services.AuthAPI) string {
	page, err := url.Parse(r.config.Session.LoginPage)
	if err != nil {
		return r.config.Session.LoginPage
	}
	return api.BaseURL().ResolveReference(page).String()
}

func (r *Runner) afterFunc(d time.Duration, f func()) {
	r.redirects.Add(1)
	time.AfterFunc(d, func() {
		defer r.redirects.Done()
		f()
	})
}

// login signs ctrl in when credentials were passed on the command line.
func (r *Runner) login(ctx context.Context, cmd *cli.Command, ctrl *session.Controller) error {
	if cmd.String("login") == "" && cmd.String("password") == "" {
		return nil
	}
	creds, err := loginCredentials(cmd)
	if err != nil {
		return err
	}
	res, err := ctrl.Login(ctx, creds)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
