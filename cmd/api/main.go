package main

import (
	"context"
	"expvar"
	"os"
	"runtime"
	"time"

	"storefront/internal/db"
	"storefront/internal/mailer"
	"storefront/internal/media"
	"storefront/internal/payments"
	"storefront/internal/ratelimiter"
	"storefront/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Storefront API
//	@description	Product catalog, customer feedback and checkout payments.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/
//	@securityDefinitions.basic	BasicAuth

func main() {
	envErr := godotenv.Load()

	logger, err := NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Warnw("no .env file loaded, using process environment", "error", envErr.Error())
	}

	cfg, warnings := loadConfig()
	for _, w := range warnings {
		logger.Warn(w)
	}

	// Storage
	var storage store.Storage
	if cfg.db.usesMongo() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		client, database, err := store.ConnectMongo(ctx, cfg.db.addr, cfg.db.name)
		if err != nil {
			cancel()
			logger.Fatal(err)
		}
		if err := store.EnsureMongoIndexes(ctx, database); err != nil {
			cancel()
			logger.Fatal(err)
		}
		cancel()

		defer client.Disconnect(context.Background())
		storage = store.NewMongoStorage(database)
		logger.Infow("mongodb connection established", "database", cfg.db.name)
	} else {
		conn, err := db.New(
			cfg.db.addr,
			cfg.db.maxOpenConns,
			cfg.db.maxIdleConns,
			cfg.db.maxIdleTime,
		)
		if err != nil {
			logger.Fatal(err)
		}
		defer conn.Close()
		logger.Info("database connection pool established")

		if err := db.Migrate(conn); err != nil {
			logger.Fatal(err)
		}

		storage = store.NewPostgresStorage(conn)

		expvar.Publish("database", expvar.Func(func() any {
			return conn.Stats()
		}))
	}

	// Cache
	if cfg.redis.addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redis.addr,
			Password: cfg.redis.password,
		})
		defer rdb.Close()

		storage.Products = store.NewCachedProducts(storage.Products, rdb, cfg.redis.ttl, logger)
		logger.Infow("product cache enabled", "addr", cfg.redis.addr, "ttl", cfg.redis.ttl.String())
	}

	// Cloudinary
	var cld *cloudinary.Cloudinary
	if cfg.cloudinary.url != "" {
		cld, err = cloudinary.NewFromURL(cfg.cloudinary.url)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.cloudinary.cloudName, cfg.cloudinary.apiKey, cfg.cloudinary.apiSecret)
	}
	if err != nil {
		logger.Fatal(err)
	}

	// Payments
	if cfg.payment.secretKey == "" {
		logger.Warn("PAYSTACK_SECRET_KEY is not set, payment calls will be rejected")
	}
	refs, err := payments.NewReferenceGenerator(cfg.payment.referencePrefix, cfg.payment.referenceSalt)
	if err != nil {
		logger.Fatal(err)
	}
	gateway := payments.NewPaystackClient(
		cfg.payment.secretKey,
		cfg.payment.publicKey,
		cfg.payment.baseURL,
		cfg.payment.timeout,
	)
	paymentSvc := payments.NewService(gateway, refs, logger, payments.Config{
		Currency:       cfg.payment.currency,
		VerifyAttempts: cfg.payment.verifyAttempts,
		Strict:         cfg.payment.strictVerify,
	})
	defer paymentSvc.Wait()

	// Receipts
	if cfg.mail.host != "" {
		smtp, err := mailer.NewSMTPMailer(
			cfg.mail.host,
			cfg.mail.port,
			cfg.mail.username,
			cfg.mail.password,
			cfg.mail.fromEmail,
		)
		if err != nil {
			logger.Fatal(err)
		}
		paymentSvc.SetReceiptSender(&mailReceipts{mailer: smtp})
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:      cfg,
		store:       storage,
		logger:      logger,
		media:       media.NewCloudinary(cld, cfg.cloudinary.folder),
		payments:    paymentSvc,
		rateLimiter: rateLimiter,
	}

	//Metrics collected http://localhost:5000/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Errorw("server error", "error", err.Error())
	}
}
