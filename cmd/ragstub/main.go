// Command ragstub serves canned /chat, /scrape, /cleanup and
// /vector-db-status responses for running ragconsole without the real
// retrieval backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ragconsole/internal/config"
	"ragconsole/internal/logger"
	"ragconsole/internal/stub"
)

const logModule = "ragstub"

func main() {
	env, dotenv := config.Load()
	flag.StringVar(&env.Stub.Addr, "addr", env.Stub.Addr, "Listen address")
	flag.BoolVar(&env.Stub.Seed, "seed", env.Stub.Seed, "Preload a demo source")
	flag.StringVar(&env.Log.FilePath, "log-file", "", "Log file path (empty disables file logging)")
	flag.BoolVar(&env.Log.Verbose, "verbose", env.Log.Verbose, "Log to stderr")
	flag.Parse()
	env.Normalize()

	log := logger.New(logger.Options{FilePath: env.Log.FilePath, Console: env.Log.Verbose, Debug: env.Log.Verbose})
	defer func() { _ = log.Sync() }()

	srv := stub.NewServer(log)
	if env.Stub.Seed {
		srv.Seed("kcc-faq", "https://docs.example/kcc-faq",
			"The Kisan Credit Card offers short term credit for crop cultivation at 7% interest.",
			"Farmers who repay on time receive a further 3% interest subvention.",
		)
	}
	app := srv.App()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error(logModule, "shutdown", map[string]interface{}{"error": err})
		}
	}()

	log.Info(logModule, "listening", map[string]interface{}{"addr": env.Stub.Addr, "seeded": env.Stub.Seed, "dotenv": dotenv})
	fmt.Fprintf(os.Stderr, "ragstub listening on http://%s\n", env.Stub.Addr)
	if err := app.Listen(env.Stub.Addr); err != nil {
		log.Error(logModule, "listen failed", map[string]interface{}{"error": err})
		fmt.Fprintf(os.Stderr, "ragstub: %v\n", err)
		os.Exit(1)
	}
}
