package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-api-otp/internal/application/account"
	"github.com/go-api-otp/internal/application/auth"
	"github.com/go-api-otp/internal/application/notify"
	"github.com/go-api-otp/internal/application/otp"
	"github.com/go-api-otp/internal/config"
	"github.com/go-api-otp/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-api-otp/internal/infrastructure/jwt"
	"github.com/go-api-otp/internal/infrastructure/memory"
	"github.com/go-api-otp/internal/infrastructure/redis"
	"github.com/go-api-otp/internal/infrastructure/smtp"
	"github.com/go-api-otp/internal/infrastructure/sns"
	"github.com/go-api-otp/internal/pkg/clock"
	"github.com/go-api-otp/internal/pkg/goroutine"
	transporthttp "github.com/go-api-otp/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(rootCtx, cfg)
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	dynamo.Bootstrap(rootCtx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider not available: %v", err)
	}

	otpStore, closeStore := newOTPStore(rootCtx, cfg, dynamoClient)
	defer closeStore()

	// SNS SMS sender (optional).
	var smsSender sns.SMSSender
	if cfg.SMSEnabled {
		awsCfg, err := dynamo.LoadAWSConfig(rootCtx, cfg)
		if err != nil {
			log.Printf("WARN: SNS sender not available: %v", err)
		} else {
			smsSender = sns.NewSender(awsCfg, cfg.SNSRegion, cfg.AWSEndpointURL)
		}
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherDeps{
		Mailer:      smtp.NewMailer(cfg),
		SMS:         smsSender,
		CompanyName: cfg.CompanyName,
		TTL:         cfg.OTP.TTL,
	})

	runner := goroutine.NewManager(cfg.NotifyMaxInflight)
	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:    otpStore,
		Notifier: dispatcher,
		Clock:    clock.New(),
		Runner:   runner,
		TTL:      cfg.OTP.TTL,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo: dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		OTP:            otpSvc,
		Accounts:       accountSvc,
		JWTProvider:    jwtProvider,
		RejectExisting: cfg.RegisterRejectExisting,
	})

	if cfg.OTP.ExposeCode {
		log.Println("WARN: OTP_EXPOSE_CODE is on, issued codes are returned in API responses")
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		AuthService: authSvc,
		JWTProvider: jwtProvider,
		OTPTTL:      cfg.OTP.TTL,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, otp_store=%s)", cfg.AppPort, cfg.AppEnv, cfg.OTP.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	stop()
	if err := runner.Wait(); err != nil {
		log.Printf("notification workers: %v", err)
	}
	log.Println("Server stopped")
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

// newOTPStore returns the backend named by OTP_STORE and a func releasing it.
func newOTPStore(ctx context.Context, cfg *config.Config, dynamoClient *dynamodb.Client) (otp.Store, func()) {
	switch cfg.OTP.Store {
	case config.OTPStoreRedis:
		rdb := redis.NewClient(cfg)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis unavailable at %s: %v", cfg.RedisAddr, err)
		}
		return redis.NewOTPStore(rdb, cfg.OTP.Retention), func() { _ = rdb.Close() }
	case config.OTPStoreDynamo:
		return dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPCodes, cfg.OTP.Retention), func() {}
	case config.OTPStoreMemory:
		store := memory.NewOTPStore(clock.New(), cfg.OTP.Retention)
		go store.Run(ctx, cfg.OTP.SweepInterval)
		return store, func() {}
	default:
		log.Fatalf("unknown OTP_STORE %q", cfg.OTP.Store)
		return nil, nil
	}
}
