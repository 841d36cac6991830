package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dukan-market/dukanpay/internal/adapter/auth"
	"github.com/dukan-market/dukanpay/internal/adapter/config"
	"github.com/dukan-market/dukanpay/internal/adapter/events"
	"github.com/dukan-market/dukanpay/internal/adapter/handler/http"
	"github.com/dukan-market/dukanpay/internal/adapter/logger"
	"github.com/dukan-market/dukanpay/internal/adapter/provider"
	"github.com/dukan-market/dukanpay/internal/adapter/reconciler"
	"github.com/dukan-market/dukanpay/internal/adapter/storage"
	"github.com/dukan-market/dukanpay/internal/adapter/storage/repository"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}
	tokenService, err := auth.New()
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	var publisher port.EventPublisher
	if conf.AMQP.URL != "" {
		rmq, err := events.NewRabbitMQPublisher(conf.AMQP.URL, log.Named("Events"))
		if err != nil {
			log.Error("event publisher creating error", zap.Error(err))
			return
		}
		defer rmq.Close()
		publisher = rmq
	} else {
		publisher = events.NoopPublisher{}
	}

	providers := []port.PaymentProvider{
		provider.NewMBank(providerConfig(conf.Payments.MBank), log.Named("MBank")),
		provider.NewElsom(providerConfig(conf.Payments.Elsom), log.Named("Elsom")),
		provider.NewODengi(providerConfig(conf.Payments.ODengi), log.Named("ODengi")),
	}

	svc, err := service.NewService(repo, tokenService, providers, publisher,
		conf.HTTP.PublicBaseURL, conf.Payments.TTL, log.Named("Service"))
	if err != nil {
		log.Error("service creating error", zap.Error(err))
		return
	}

	sweeper := reconciler.NewPaymentReconciler(svc, 30*time.Second, log.Named("Reconciler"))
	sweeper.Run(ctx)

	userHandler, err := http.NewUserHandler(svc, log.Named("User handler"))
	if err != nil {
		log.Error("user handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	paymentHandler, err := http.NewPaymentHandler(svc, log.Named("Payment handler"))
	if err != nil {
		log.Error("payment handler creating error", zap.Error(err))
		return
	}
	webhookHandler, err := http.NewWebhookHandler(svc, log.Named("Webhook handler"))
	if err != nil {
		log.Error("webhook handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService,
		userHandler, orderHandler, paymentHandler, webhookHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}

func providerConfig(p config.Provider) provider.Config {
	return provider.Config{
		MerchantID: p.MerchantID,
		SecretKey:  p.SecretKey,
		APIURL:     p.APIURL,
	}
}
