package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/canopyhq/canopy/pkg/adapters/backend"
	"github.com/canopyhq/canopy/pkg/adapters/httpserver"
	"github.com/canopyhq/canopy/pkg/adapters/memory"
	"github.com/canopyhq/canopy/pkg/adapters/redis"
	"github.com/canopyhq/canopy/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the compile and run proxy server",
	Long: `Starts an HTTP server exposing graph compilation and run streaming,
backed by the run backend. Run records persist in memory by default, or
in Redis when --redis is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		port, _ := cmd.Flags().GetString("port")
		backendURL, _ := cmd.Flags().GetString("backend")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisTTL, _ := cmd.Flags().GetDuration("redis-ttl")

		client := backend.New(backendURL)

		var store ports.RunStore
		if redisAddr != "" {
			store = redis.New(redisAddr, "", 0, redis.WithTTL(redisTTL))
		} else {
			store = memory.NewStore()
		}

		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector())

		server := httpserver.New(client,
			httpserver.WithStore(store),
			httpserver.WithLogger(logger),
			httpserver.WithPrometheus(promReg),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Canopy Server on %s\n", srv.Addr)
			fmt.Printf("Proxying runs to: %s\n", backendURL)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Canopy Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8090", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for run persistence (empty = in-memory)")
	serveCmd.Flags().Duration("redis-ttl", 24*time.Hour, "Expiration for persisted runs in Redis")
}
