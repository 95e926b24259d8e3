package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/config"
	"github.com/fjmerc/studiodesk/internal/device"
	"github.com/fjmerc/studiodesk/internal/logger"
	"github.com/fjmerc/studiodesk/internal/metrics"
	"github.com/fjmerc/studiodesk/internal/resources"
	"github.com/fjmerc/studiodesk/internal/upload"
)

const drainTimeout = 30 * time.Second

// globalFlags override values loaded from the environment.
type globalFlags struct {
	url         string
	dataDir     string
	logLevel    string
	metricsAddr string
	envFile     string
}

// app is everything a command needs, built once per invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg     *config.Config
	logger  *slog.Logger
	store   device.Store
	client  *apiclient.Client
	api     *resources.API
	tracker *upload.Tracker
	metrics *http.Server
}

// setup loads configuration and builds the client stack.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(a.flags.envFile)
	if err != nil {
		return err
	}
	if a.flags.url != "" {
		cfg.APIURL = a.flags.url
	}
	if a.flags.dataDir != "" {
		cfg.DataDir = a.flags.dataDir
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.flags.logLevel)
	}
	if a.flags.metricsAddr != "" {
		cfg.MetricsAddr = a.flags.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.NewWithWriter(a.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.logger = log

	store, err := device.OpenStore(cfg.DeviceStore, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening device store: %w", err)
	}
	a.store = store

	pageBase := apiclient.OneBased
	if cfg.PageBase == 0 {
		pageBase = apiclient.ZeroBased
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:  cfg.APIURL,
		Device:   device.NewIdentity(store, log),
		Logger:   log,
		PageBase: pageBase,
		Sessions: func(reason apiclient.TerminationReason) {
			fmt.Fprintf(a.stderr, "Session ended (%s). Please sign in again.\n", reason)
		},
	}, apiclient.WithTracker(a.tracker))
	if err != nil {
		return err
	}
	a.client = client

	a.api = resources.New(client, resources.WithRetry(apiclient.RetryOptions{
		MaxRetries: retriesOption(cfg.MaxRetries),
		RetryDelay: cfg.RetryDelay,
	}))

	if cfg.MetricsAddr != "" {
		a.startMetrics(cfg.MetricsAddr)
	}

	log.Debug("client ready", "client", client.String(), "device_store", cfg.DeviceStore)
	return nil
}

// retriesOption maps the configured retry count onto RetryOptions, where the
// zero value means the default.
func retriesOption(n int) int {
	if n == 0 {
		return apiclient.NoRetries
	}
	return n
}

// startMetrics serves Prometheus metrics for the lifetime of the command.
func (a *app) startMetrics(addr string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewUploadsCollector(func() metrics.UploadSnapshot {
		count, bytes := a.tracker.Totals()
		return metrics.UploadSnapshot{Count: count, Bytes: bytes}
	}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, registry},
		promhttp.HandlerOpts{},
	))

	a.metrics = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "addr", addr)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// close releases resources opened by setup.
func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.metrics.Shutdown(ctx)
	}
	if closer, ok := a.store.(io.Closer); ok {
		closer.Close()
	}
}

// drain refuses new uploads and waits for in-flight ones.
func (a *app) drain(ctx context.Context) {
	a.tracker.BeginShutdown()

	if count, _ := a.tracker.Totals(); count > 0 {
		fmt.Fprintf(a.stderr, "\nWaiting for %d upload(s) to finish (Ctrl+C again to abort)...\n", count)
	}

	waitCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if !a.tracker.Wait(waitCtx) {
		fmt.Fprintf(a.stderr, "Gave up waiting on %d upload(s)\n", len(a.tracker.Active()))
	}
}

// envelopeError turns a failed envelope into a command error.
func envelopeError[T any](env apiclient.Envelope[T]) error {
	if env.Success {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "request failed (%d): %s", env.StatusCode, env.Message)
	for _, fe := range env.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", fe.Field, fe.Message)
	}
	return errors.New(b.String())
}
