package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/docs" //this is required to generate swagger docs
	"storefront/internal/media"
	"storefront/internal/payments"
	"storefront/internal/ratelimiter"
	"storefront/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type paymentService interface {
	Initiate(ctx context.Context, req payments.CheckoutRequest) (payments.InitResult, error)
	Verify(ctx context.Context, reference string) (payments.VerifyOutcome, error)
}

type application struct {
	config      config
	store       store.Storage
	logger      *zap.SugaredLogger
	media       media.Uploader
	payments    paymentService
	rateLimiter ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	apiURL      string
	db          dbConfig
	cloudinary  cloudinaryConfig
	payment     paymentConfig
	redis       redisConfig
	mail        mailConfig
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type dbConfig struct {
	addr         string
	name         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

type cloudinaryConfig struct {
	url       string
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

type paymentConfig struct {
	secretKey       string
	publicKey       string
	baseURL         string
	currency        string
	referencePrefix string
	referenceSalt   string
	timeout         time.Duration
	verifyAttempts  int
	strictVerify    bool
}

type redisConfig struct {
	addr     string
	password string
	ttl      time.Duration
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(app.RateLimiterMiddleware)

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		docsURL := fmt.Sprintf("%s/v1/swagger/doc.json", app.config.apiURL)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/payment", func(r chi.Router) {
			r.Post("/initiate", app.initiatePaymentHandler)
			r.Post("/verify", app.verifyPaymentHandler)
		})
		r.Route("/feedbacks", func(r chi.Router) {
			r.Post("/", app.createFeedbackHandler)
			r.Get("/", app.listFeedbacksHandler)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", app.listProductsHandler)
		r.Post("/", app.createProductHandler)
		r.Put("/{productID}", app.updateProductHandler)
		r.Delete("/{productID}", app.deleteProductHandler)
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 90,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
