package app

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shiikun-cn/tarot-mcp/internal/config"
	"github.com/shiikun-cn/tarot-mcp/internal/events"
	"github.com/shiikun-cn/tarot-mcp/internal/metrics"
	"github.com/shiikun-cn/tarot-mcp/internal/middleware"
	"github.com/shiikun-cn/tarot-mcp/internal/session"
	"github.com/shiikun-cn/tarot-mcp/internal/tarot"
	"github.com/shiikun-cn/tarot-mcp/internal/tarot/handler"
)

func setupHTTP(cfg config.Config) (*gin.Engine, func() error, error) {

	infra := setupInfra(cfg)

	deck, err := loadDeck(cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	var (
		sessionStore session.Store
		memStore     *session.MemoryStore
		backend      string
	)
	if infra.Redis != nil {
		sessionStore = session.NewRedisStore(infra.Redis.Client, cfg.SessionTTL)
		backend = "redis"
	} else {
		memStore = session.NewMemoryStore(cfg.SessionTTL)
		sessionStore = memStore
		backend = "memory"
	}

	var publisher events.Publisher
	if infra.NATS != nil {
		publisher = events.NewNATSPublisher(infra.NATS)
	}

	m := metrics.NewMetrics()
	m.DeckSize.Set(float64(deck.Size()))

	reader := tarot.NewReader(deck, sessionStore, publisher)
	tarotHandler := handler.NewHandler(reader, m)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	// ----------------------------
	// Public Routes
	// ----------------------------

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"time":            time.Now().Unix(),
			"deck_size":       deck.Size(),
			"session_backend": backend,
		})
	})

	router.GET("/metrics", gin.WrapH(m.Handler()))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/")
	api.Use(middleware.RequireAPIKey(cfg.APIKey))

	tarotHandler.RegisterRoutes(api)

	// ----------------------------
	// Cleanup
	// ----------------------------

	cleanup := func() error {
		if memStore != nil {
			_ = memStore.Close()
		}
		if infra.NATS != nil {
			infra.NATS.Close()
		}
		if infra.Redis != nil {
			return infra.Redis.Close()
		}
		return nil
	}

	return router, cleanup, nil
}

// loadDeck loads the first deck file that exists among the configured
// candidates. No readable deck is fatal: the service must not start
// without cards.
func loadDeck(cfg config.Config) (*tarot.Deck, error) {
	paths := cfg.DeckPaths()
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		deck, err := tarot.Load(path)
		if err != nil {
			return nil, err
		}

		log.Info().Str("path", path).Int("cards", deck.Size()).Msg("deck loaded")
		return deck, nil
	}

	return nil, fmt.Errorf("no deck file found, tried %v", paths)
}
