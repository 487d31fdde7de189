package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexkasa/gateway-harness/config"
	"github.com/nexkasa/gateway-harness/diag"
	"github.com/nexkasa/gateway-harness/gateway"
	chihandlers "github.com/nexkasa/gateway-harness/internal/http/chi"
	"github.com/nexkasa/gateway-harness/metrics"
	"github.com/nexkasa/gateway-harness/webhooklog"
	"github.com/nexkasa/gateway-harness/webhooklog/memory"
	logredis "github.com/nexkasa/gateway-harness/webhooklog/redis"
)

const TIMEOUT = 30 * time.Second

/* main é a porta de entrada e saída da aplicação: é aqui que as
 * dependências são iniciadas e amarradas, sempre importando para baixo
 * (entrypoint -> negócio -> armazenamento)
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	var repo webhooklog.Repository
	switch cfg.LogBackend {
	case "redis":
		repo, err = logredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fmt.Println(err)
			return
		}
	default:
		repo = memory.NewRepository()
	}
	defer repo.Close(ctx)

	recorder, err := metrics.NewRecorder()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer recorder.Shutdown(ctx)

	logs := webhooklog.NewService(repo)
	dispatcher := gateway.NewDispatcher(logs, gateway.NewHTTPDeliverer(cfg.CallbackSecret), slog.Default(), recorder)
	sim := gateway.NewSimulator(dispatcher)
	if cfg.ScenariosFile != "" {
		rules, err := gateway.LoadRules(cfg.ScenariosFile)
		if err != nil {
			fmt.Println(err)
			return
		}
		sim.PrependRules(rules)
	}
	runner := diag.NewRunner(diag.NewClient())

	r := chihandlers.Handlers(ctx, runner, sim, logs, recorder)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
