// Command ticketd runs the ticketline server.
//
// Flags may also be supplied as environment variables with the TICKETD_
// prefix, e.g. TICKETD_REDIS_ADDR=redis:6379.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ticketline/ticketline"
	"github.com/ticketline/ticketline/metrics"
)

func main() {
	pflag.StringP("host", "h", "127.0.0.1", "address to bind")
	pflag.IntP("port", "p", 8080, "port to listen on")
	pflag.BoolP("debug", "d", false, "enable debug logging")
	pflag.Bool("memory", false, "use the in-process store instead of Redis")
	pflag.String("redis-addr", "localhost:6379", "Redis server address")
	pflag.String("redis-password", "", "Redis password")
	pflag.Int("redis-db", 0, "Redis logical database")
	pflag.String("metrics-addr", "", "address for the Prometheus /metrics endpoint (empty disables it)")
	pflag.Parse()

	v := viper.New()
	v.SetEnvPrefix("TICKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if v.GetBool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	opts := []ticketline.Option{
		ticketline.WithListenAddr(net.JoinHostPort(v.GetString("host"), strconv.Itoa(v.GetInt("port")))),
		ticketline.WithLogger(logger),
		ticketline.WithMetrics(appMetrics),
	}
	if v.GetBool("memory") {
		opts = append(opts, ticketline.WithMemoryStorage())
	} else {
		opts = append(opts,
			ticketline.WithRedis(v.GetString("redis-addr")),
			ticketline.WithRedisAuth(v.GetString("redis-password")),
			ticketline.WithRedisDB(v.GetInt("redis-db")),
		)
	}

	svc, err := ticketline.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure service: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("ticketd started",
		slog.String("addr", svc.Addr()),
		slog.String("version", ticketline.Version),
		slog.Bool("memory_store", v.GetBool("memory")),
	)

	if addr := v.GetString("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics endpoint listening", slog.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics endpoint failed", slog.String("error", err.Error()))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	if err := svc.Close(); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
