package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nboard/nboard-api/internal/config"
	"github.com/nboard/nboard-api/internal/database"
	"github.com/nboard/nboard-api/internal/handlers"
	"github.com/nboard/nboard-api/internal/identity"
	"github.com/nboard/nboard-api/internal/middleware"
	"github.com/nboard/nboard-api/internal/repository"
	"github.com/nboard/nboard-api/internal/services"
	"github.com/nboard/nboard-api/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Wiring: everything holds its dependencies explicitly; no
	// package-level clients.
	verifier := identity.NewJWTVerifier(cfg.AuthJWTSecret)

	ticketRepo := repository.NewTicketRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	ticketService := services.NewTicketService(ticketRepo, log)
	profileService := services.NewProfileService(profileRepo)
	markdownService := services.NewMarkdownService(nil)

	ticketHandler := handlers.NewTicketHandler(ticketService, log)
	profileHandler := handlers.NewProfileHandler(profileService, log)
	markdownHandler := handlers.NewMarkdownHandler(markdownService, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "N-Board API is running",
		})
	})

	api := r.Group("/api")
	{
		tickets := api.Group("/tickets")
		tickets.Use(middleware.RequireAuth(verifier))
		{
			tickets.GET("", ticketHandler.ListTickets)
			tickets.POST("", ticketHandler.CreateTicket)
			tickets.PUT("/:id", ticketHandler.UpdateTicket)
			tickets.DELETE("/:id", ticketHandler.DeleteTicket)
		}

		profile := api.Group("/profile")
		profile.Use(middleware.RequireAuth(verifier))
		{
			profile.GET("", profileHandler.GetProfile)
			profile.PUT("", profileHandler.UpdateProfile)
		}

		// Public routes
		api.GET("/users", profileHandler.ListUsers)
		api.GET("/markdown", markdownHandler.GetMarkdown)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
}
