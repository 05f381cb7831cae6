package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/config"
	"github.com/lunafit/studio-booking/internal/database"
	"github.com/lunafit/studio-booking/internal/handler"
	"github.com/lunafit/studio-booking/internal/mailer"
	"github.com/lunafit/studio-booking/internal/payment"
	"github.com/lunafit/studio-booking/internal/queue"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/router"
	"github.com/lunafit/studio-booking/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	packages := repository.NewPackageRepo(db)
	classes := repository.NewClassRepo(db)
	bookings := repository.NewBookingRepo(db)
	credits := repository.NewCreditRepo(db)
	clientPk := repository.NewClientPackageRepo(db)
	orders := repository.NewOrderRepo(db)

	gateway := payment.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey)

	sched := scheduler.New(cfg, clientPk, bookings, classes, users)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sched.Run(ctx)

	// The email consumer reconnects on its own; it outlives broker
	// restarts without supervision.
	mail := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	go queue.StartConsumer(mail, mailer.Render)

	e := echo.New()
	router.Register(e, router.Deps{
		Cfg:      cfg,
		Redis:    rdb,
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Profile:  handler.NewProfileHandler(cfg, users),
		Packages: handler.NewPackageHandler(packages),
		Classes:  handler.NewClassHandler(classes, users),
		Bookings: handler.NewBookingHandler(cfg, classes, bookings, credits, clientPk, users),
		Purchase: handler.NewPurchaseHandler(cfg, packages, orders, clientPk, credits, users, gateway),
		Webhook:  handler.NewWebhookHandler(orders, packages, clientPk, credits, users),
		Jobs:     handler.NewJobHandler(sched),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
