package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"walletpay/cmd/fx/config_fx"
	"walletpay/cmd/fx/controllers_fx"
	"walletpay/cmd/fx/db_fx"
	"walletpay/cmd/fx/gateway_fx"
	"walletpay/cmd/fx/logger_fx"
	"walletpay/cmd/fx/memcache_fx"
	"walletpay/cmd/fx/merchant_fx"
	"walletpay/cmd/fx/metrics_fx"
	"walletpay/cmd/fx/payment_service_fx"
	"walletpay/cmd/fx/subscription_fx"
	"walletpay/internal/api/controllers"
	"walletpay/internal/config"
	"walletpay/pkg/middleware"
	"walletpay/pkg/validation"
)

func main() {
	validation.RegisterValidators()

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		config_fx.Module,
		logger_fx.Module,
		metrics_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		gateway_fx.Module,
		merchant_fx.Module,
		payment_service_fx.Module,
		subscription_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("Starting HTTP server", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type RouterParams struct {
	fx.In

	Config                 *config.Config
	Logger                 *zap.Logger
	Registry               *prometheus.Registry
	MerchantController     *controllers.MerchantController
	PaymentController      *controllers.PaymentController
	SubscriptionController *controllers.SubscriptionController
	AdminController        *controllers.AdminController
	HealthController       *controllers.HealthController
}

func ProvideRouter(p RouterParams) *gin.Engine {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Logger.Named("http")))
	r.Use(middleware.Recovery(p.Logger))
	r.Use(middleware.CORSMiddleware(p.Config.CORSAllowedOrigins))

	RegisterRoutes(r, p)

	return r
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	r.GET("/healthz", p.HealthController.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})))
	r.StaticFile("/.well-known/apple-developer-merchantid-domain-association", p.Config.DomainAssociationPath)

	payments := r.Group("/api/payments")
	payments.GET("/config/status", p.MerchantController.ConfigStatus)
	payments.GET("/merchant-session", p.MerchantController.MerchantSession)
	payments.POST("/validate-merchant", p.MerchantController.ValidateMerchant)

	payments.POST("/onetime/session", p.MerchantController.OneTimeSession)
	payments.POST("/onetime/process", p.PaymentController.ProcessOneTime)
	payments.GET("/transactions/:id", p.PaymentController.GetTransaction)

	payments.POST("/recurring/setup", p.SubscriptionController.Setup)
	payments.POST("/recurring/charge", p.SubscriptionController.Charge)
	payments.GET("/subscriptions/:id", p.SubscriptionController.GetSubscription)

	if p.Config.JWTSecret == "" {
		p.Logger.Warn("JWT_SECRET not set, admin routes disabled")
		return
	}
	admin := payments.Group("/admin",
		middleware.OperatorAuth(p.Config.JWTSecret),
		middleware.RoleMiddleware(middleware.RoleAdmin))
	admin.GET("/transactions", p.AdminController.ListTransactions)
	admin.GET("/subscriptions", p.AdminController.ListSubscriptions)
}
