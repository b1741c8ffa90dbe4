package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/config"
	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/prayertimes"
	"github.com/mihrab-app/mihrab/internal/qada"
	"github.com/mihrab-app/mihrab/internal/scheduler"
	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/syncqueue"
	"github.com/mihrab-app/mihrab/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if migrator, ok := st.(store.Migrator); ok {
		if err := migrator.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("db migrate failed")
		}
	}

	// Prayer-time calculation collaborator, redis-cached when configured.
	var calc prayertimes.Calculator
	client, err := prayertimes.NewClient(cfg.PrayerAPIURL)
	if err != nil {
		log.Fatal().Err(err).Msg("bad prayer API configuration")
	}
	calc = client
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		calc = prayertimes.NewCache(client, rdb)
	}

	monitor := network.NewMonitor()

	queue, err := syncqueue.New(st, monitor, calc)
	if err != nil {
		log.Fatal().Err(err).Msg("sync queue init failed")
	}
	qadaSvc := qada.New(st, monitor, queue)
	trackingSvc := tracking.New(st, monitor, queue, qadaSvc)

	// The broker connection doubles as the connectivity signal. Without a
	// broker the monitor stays at its offline default and mutations queue up.
	if cfg.MQTTBrokerURL != "" {
		source, err := network.ConnectMQTT(cfg.MQTTBrokerURL, "mihrab-server", monitor)
		if err != nil {
			log.Error().Err(err).Msg("MQTT broker unavailable, starting offline")
		} else {
			queue.SetNotifier(source)
			defer source.Close()
		}
	}

	// Reconnects drain the durable queue.
	monitor.AddListener(func(info model.NetworkInfo) {
		if info.Status != model.NetworkOnline {
			return
		}
		if _, err := queue.TriggerSync(); err != nil {
			log.Error().Err(err).Msg("reconnect sync pass failed")
		}
	})

	jobs := scheduler.New(time.Local)
	if _, err := jobs.ScheduleInterval(cfg.SyncInterval, func() {
		if _, err := queue.TriggerSync(); err != nil {
			log.Error().Err(err).Msg("periodic sync pass failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("could not schedule sync job")
	}
	if _, err := jobs.ScheduleDaily(cfg.AutoMarkMissedAt, func() {
		autoMarkYesterday(trackingSvc, calc, cfg)
	}); err != nil {
		log.Fatal().Err(err).Msg("could not schedule auto-mark job")
	}
	jobs.Start()
	defer jobs.Stop()

	r := gin.Default()
	RegisterRoutes(r, cfg, st, trackingSvc, qadaSvc, queue, monitor, calc)

	log.Info().Str("address", cfg.ServerAddress).Msg("listening")
	if err := r.Run(cfg.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// autoMarkYesterday sweeps the previous day's still-pending prayers.
func autoMarkYesterday(svc *tracking.Service, calc prayertimes.Calculator, cfg *config.Config) {
	yesterday := time.Now().AddDate(0, 0, -1)
	date := yesterday.Format(model.DateKey)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	coords := prayertimes.Coordinates{Latitude: cfg.DefaultLatitude, Longitude: cfg.DefaultLongitude}
	times, err := calc.Calculate(ctx, coords, yesterday, cfg.CalculationMethod, cfg.Madhab)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("auto-mark sweep could not resolve prayer times")
		return
	}

	marked, err := svc.AutoMarkMissed(date, times)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("auto-mark sweep failed")
		return
	}
	if marked > 0 {
		log.Info().Int("marked", marked).Str("date", date).Msg("auto-marked pending prayers missed")
	}
}
