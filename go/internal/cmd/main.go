package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/clients/judgeapi"
	"github.com/hackmate/judgesync/go/internal/channel"
	"github.com/hackmate/judgesync/go/internal/schedule"
	"github.com/hackmate/judgesync/go/internal/timer"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	store := timer.NewStore()
	api := judgeapi.New(cfg.Backend.APIURL, cfg.Judge.ID)

	reconciler := schedule.NewReconciler(api, store, clock, cfg.SchedulePollInterval())

	chCfg := channel.DefaultConfig()
	chCfg.EndpointURL = cfg.Backend.WSURL
	chCfg.JudgeID = cfg.Judge.ID
	if d := cfg.BackoffStep(); d > 0 {
		chCfg.BackoffStep = d
	}
	if d := cfg.MaxBackoff(); d > 0 {
		chCfg.MaxBackoff = d
	}
	client := channel.NewClient(chCfg, store, reconciler, clock)

	monitor := newRoomMonitor(store, clock)

	log.Info().
		Str("judge_id", cfg.Judge.ID).
		Str("api_url", cfg.Backend.APIURL).
		Msg("judgesync starting")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		reconciler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := client.Run(ctx); err != nil {
			log.Error().Err(err).Msg("realtime channel exited with error")
		}
	}()
	go func() {
		defer wg.Done()
		monitor.run(ctx)
	}()

	wg.Wait()
	log.Info().Msg("judgesync shut down")
}
