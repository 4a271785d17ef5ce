package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	assistantx "github.com/thanarat/shopagent/agent/assistant"
	catalogx "github.com/thanarat/shopagent/agent/catalog"
	enginex "github.com/thanarat/shopagent/agent/engine"
	promptx "github.com/thanarat/shopagent/agent/prompt"
	threadx "github.com/thanarat/shopagent/agent/thread"
	toolx "github.com/thanarat/shopagent/agent/tool"
	configx "github.com/thanarat/shopagent/pkg/config"
	_ "github.com/thanarat/shopagent/pkg/logger/autoload"
	openrouterx "github.com/thanarat/shopagent/pkg/openrouter"
	serverx "github.com/thanarat/shopagent/server"
)

type AppConfig struct {
	Addr        string `envconfig:"ADDR" split_words:"true" default:":8080"`
	CatalogPath string `envconfig:"CATALOG_PATH" split_words:"true"`
	// HistoryLimit caps stored turns per thread; 0 keeps everything.
	HistoryLimit int  `envconfig:"HISTORY_LIMIT" split_words:"true" default:"200"`
	Preflight    bool `envconfig:"PREFLIGHT" split_words:"true" default:"true"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("APP")
	agentCfg := configx.MustNew[assistantx.Config]("AGENT")
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")

	if appCfg.Preflight {
		if err := openrouterx.Preflight(ctx, *openRouterCfg); err != nil {
			log.Fatal().Err(err).Msg("openrouter preflight failed")
		}
	}

	var (
		store *catalogx.Store
		err   error
	)
	if appCfg.CatalogPath != "" {
		store, err = catalogx.NewStoreFromFile(appCfg.CatalogPath)
	} else {
		store, err = catalogx.NewSeededStore()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}

	executor, err := toolx.NewExecutor(store)
	if err != nil {
		log.Fatal().Err(err).Msg("create tool executor")
	}

	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}
	eng, err := enginex.New(ctx, chatModel, promptx.System(), openRouterCfg.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("create reasoning engine")
	}

	threads := threadx.NewStore(appCfg.HistoryLimit)
	agent, err := assistantx.New(eng, executor, threads, *agentCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create assistant")
	}

	srv := serverx.New(appCfg.Addr, agent, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}
}
