package http

import (
	"net/http"

	"github.com/dukan-market/dukanpay/internal/adapter/config"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	userHandler *UserHandler,
	orderHandler *OrderHandler,
	paymentHandler *PaymentHandler,
	webhookHandler *WebhookHandler) (*Router, error) {

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("/register", userHandler.RegisterUser)
			user.POST("/login", userHandler.LoginUser)
		}

		orders := api.Group("/orders")
		{
			orders.Use(authCheck(tokenService))
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrdersByUser)
			orders.GET("/:id/items", orderHandler.ListOrderItems)
			orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/webhook/:provider", webhookHandler.HandleCallback)

			authed := payments.Group("")
			{
				authed.Use(authCheck(tokenService))
				authed.POST("", paymentHandler.CreatePayment)
				authed.GET("", paymentHandler.ListPayments)
				authed.POST("/:id/simulate", paymentHandler.SimulatePayment)
			}
		}

		balance := api.Group("/balance")
		{
			balance.Use(authCheck(tokenService))
			balance.GET("", userHandler.GetBalance)
		}

		seller := api.Group("/seller")
		{
			seller.Use(authCheck(tokenService))
			seller.GET("/orders", orderHandler.ListShopOrders)
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
