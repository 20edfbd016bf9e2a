package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topicquiz"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	var (
		addr    = flag.String("addr", "", "HTTP listen address (default :$PORT)")
		verbose = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	cfg, err := topicquiz.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	topicquiz.ConfigureLogging(os.Stdout, cfg.Verbose || *verbose)
	gin.SetMode(cfg.GinMode)

	if *addr == "" {
		*addr = ":" + cfg.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := cfg.NewProvider()
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	var store topicquiz.SessionStore
	if cfg.RedisURL != "" {
		redisStore, err := topicquiz.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Printf("Storing quizzes in redis")
	} else {
		store = topicquiz.NewMemoryStore(cfg.SessionTTL)
		log.Printf("Storing quizzes in memory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := topicquiz.NewMetrics(registry)

	generator := topicquiz.NewQuizGenerator(topicquiz.NewQuestionMaker(provider), store)
	generator.SetTimeout(cfg.LLMTimeout)
	generator.SetTraceDir(cfg.TraceDir)
	generator.SetMetrics(metrics)

	grader := topicquiz.NewQuizGrader(store)
	grader.SetMetrics(metrics)

	if cfg.AuditDBPath != "" {
		db, err := topicquiz.OpenDB(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("Failed to open audit database: %v", err)
		}
		defer db.CloseDB()
		generator.SetRecorder(db)
		grader.SetRecorder(db)
	}

	if cfg.RabbitMQURI != "" {
		publisher, err := topicquiz.NewEventPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		generator.SetPublisher(publisher)
		grader.SetPublisher(publisher)
	} else {
		log.Println("RabbitMQ not configured, quiz events will not be published")
	}

	cookies := sessions.NewCookieStore(cfg.SessionSecret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	server := NewServer(generator, grader, cookies, registry)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on %s using %s", *addr, provider.Name())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
