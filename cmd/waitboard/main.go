package main

import (
	"context"
	"errors"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waitboard/internal/badges"
	"waitboard/internal/board"
	"waitboard/internal/config"
	"waitboard/internal/httpapi"
	"waitboard/internal/hub"
	"waitboard/internal/messaging"
	"waitboard/internal/poll"
	"waitboard/internal/store"
	"waitboard/internal/store/postgres"
	"waitboard/internal/store/webproxy"
	"waitboard/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg := config.Load()
	sessionID := uuid.NewString()
	shutdownTelemetry := telemetry.Setup("waitboard", sessionID)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	backend, closeBackend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("backend: %v", err)
	}
	defer closeBackend()

	badgeStore, err := badges.Open(cfg.BadgeDBPath)
	if err != nil {
		log.Fatalf("badge store: %v", err)
	}
	defer badgeStore.Close()

	var messenger messaging.Messenger
	if cfg.MessagingURL != "" {
		messenger = messaging.NewClient(cfg.MessagingURL, cfg.MessagingService)
	}

	day := time.Now().Format("2006-01-02")

	b := board.New(backend, messenger, badgeStore, board.Options{
		Day:                  day,
		SessionID:            sessionID,
		RowHeight:            cfg.RowHeight,
		ExpandedRowHeight:    cfg.ExpandedRowHeight,
		ChatLineHeight:       cfg.ChatLineHeight,
		MobileWidthCutoff:    cfg.MobileWidthCutoff,
		ScrollTolerance:      cfg.ScrollTolerance,
		LongPressHold:        cfg.LongPressHold,
		LongPressTolerance:   cfg.LongPressTolerance,
		AutoHideSeconds:      cfg.AutoHideSeconds,
		QuestionsPerPage:     cfg.QuestionsPerPage,
		MaxPartySize:         cfg.MaxPartySize,
		SuppressWebMessaging: cfg.SuppressWebMessaging,
	})

	h := hub.New()
	b.Subscribe(func(frame board.Frame) {
		h.BroadcastFrame(day, frame)
	})

	poller := poll.New(backend, b, poll.Options{
		SessionID: sessionID,
		Day:       day,
		Interval:  cfg.PollInterval,
		Delay:     cfg.RefreshDelay,
	})

	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute: cfg.RateLimitPerMinute,
		IPBurst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/", httpapi.NewHandler(b, poller).Routes())

	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.UpdateSubscription(client, hub.Subscription{})
			} else {
				h.UpdateSubscription(client, hub.Subscription{Day: parsed.Day})
			}
		}
	})
	mux.Handle("/realtime/", sockjsHandler)

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "waitboard")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("waitboard listening on %s day=%s session=%s", server.Addr, day, sessionID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	go func() {
		if err := poller.Run(rootCtx); err != nil && rootCtx.Err() == nil {
			log.Fatalf("poller error: %v", err)
		}
	}()

	// Countdown and elapsed-time labels advance once a second.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				b.Tick()
			}
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 0 * * *", func() {
		today := time.Now().Format("2006-01-02")
		dropped, err := badgeStore.Purge(today)
		if err != nil {
			log.Printf("badge purge error: %v", err)
			return
		}
		log.Printf("badge purge done dropped=%d before=%s", dropped, today)
	}); err != nil {
		log.Fatalf("cron schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// newBackend picks the storage backend: a direct database connection when a
// DSN is configured, the hosted CRUD proxy otherwise.
func newBackend(cfg config.Config) (store.Backend, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil
	}
	if cfg.ProxyURL != "" {
		return webproxy.NewClient(cfg.ProxyURL), func() {}, nil
	}
	return nil, nil, errNoBackend
}

var errNoBackend = errors.New("no backend configured: set DB_DSN or CRUD_PROXY_URL")
