package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	auth "github.com/edufly-cloud/edufly/internal/authenticator"
	"github.com/edufly-cloud/edufly/internal/config"
	"github.com/edufly-cloud/edufly/internal/logger/zap"
	"github.com/edufly-cloud/edufly/internal/manager"
	"github.com/edufly-cloud/edufly/internal/provider/gemini"
	"github.com/edufly-cloud/edufly/internal/server/web"
	"github.com/edufly-cloud/edufly/internal/stats"
	"github.com/edufly-cloud/edufly/internal/storage/postgresql"
	redisStorage "github.com/edufly-cloud/edufly/internal/storage/redis"
	"github.com/edufly-cloud/edufly/internal/storage/s3"
	"github.com/edufly-cloud/edufly/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	modePtr := flag.String("m", "dev", "select the mode that edufly runs in")
	flag.Parse()

	lg := zap.NewLogger(*modePtr)

	gin.SetMode(gin.ReleaseMode)

	if err := godotenv.Load(); err != nil {
		lg.Debugf("no .env file found: %v", err)
	}

	cfg, err := config.ParseEnvVariables()
	if err != nil {
		lg.Fatalf("cannot parse environment variables: %v", err)
	}

	err = stats.InitializeClient(stats.Config{
		Enabled: cfg.StatsEnabled,
		Address: cfg.StatsAddress,
	})
	if err != nil {
		lg.Fatalf("cannot initialize stats client: %v", err)
	}

	sslModeSuffix := ""
	if !cfg.PostgresqlSslEnabled {
		sslModeSuffix = "?sslmode=disable"
	}

	store, err := postgresql.NewStore(
		fmt.Sprintf("postgresql://%s:%s@%s:%s/%s%s", cfg.PostgresqlUsername, cfg.PostgresqlPassword, cfg.PostgresqlHosts, cfg.PostgresqlPort, cfg.PostgresqlDbName, sslModeSuffix),
		lg,
		cfg.PostgresqlWriteTimeout,
		cfg.PostgresqlReadTimeout,
	)
	if err != nil {
		lg.Fatalf("cannot connect to postgresql: %v", err)
	}

	err = store.CreateCoursesTable()
	if err != nil {
		lg.Fatalf("error creating courses table: %v", err)
	}

	err = store.CreateChaptersTable()
	if err != nil {
		lg.Fatalf("error creating chapters table: %v", err)
	}

	err = store.CreateChapterCompletionsTable()
	if err != nil {
		lg.Fatalf("error creating chapter completions table: %v", err)
	}

	err = store.CreateCourseSharesTable()
	if err != nil {
		lg.Fatalf("error creating course shares table: %v", err)
	}

	err = store.CreateFilesTable()
	if err != nil {
		lg.Fatalf("error creating files table: %v", err)
	}

	err = store.CreateCourseFilesTable()
	if err != nil {
		lg.Fatalf("error creating course files table: %v", err)
	}

	err = store.CreateUsageTable()
	if err != nil {
		lg.Fatalf("error creating usage table: %v", err)
	}

	err = store.CreatePlansTable()
	if err != nil {
		lg.Fatalf("error creating plans table: %v", err)
	}

	err = store.CreateSubscriptionsTable()
	if err != nil {
		lg.Fatalf("error creating subscriptions table: %v", err)
	}

	err = store.CreateSessionsTable()
	if err != nil {
		lg.Fatalf("error creating sessions table: %v", err)
	}

	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHosts, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	rs := redisStorage.NewStore(c, cfg.RedisWriteTimeout, cfg.RedisReadTimeout)

	signer, err := s3.NewSigner(cfg.StorageEndpoint, cfg.StorageAccessKeyId, cfg.StorageSecretAccessKey, cfg.StorageBucket, cfg.StorageUploadUrlTtl)
	if err != nil {
		lg.Fatalf("cannot create upload url signer: %v", err)
	}

	client := gemini.NewClient(cfg.GeminiApiKey, cfg.GeminiBaseUrl, cfg.GeminiModel)

	tc, err := gemini.NewTokenCounter()
	if err != nil {
		lg.Fatalf("error creating token counter: %v", err)
	}

	sm := manager.NewSubscriptionManager(store, cfg.DefaultStorageLimitMb, cfg.DefaultAiTokensPerMonth)
	um := manager.NewUsageManager(store, rs, lg)
	v := validator.NewValidator(rs, store, store, sm)
	fm := manager.NewFileManager(store, v, signer, sm)
	cm := manager.NewCourseManager(store)

	a := auth.NewAuthenticator(store)

	as, err := web.NewApiServer(lg, *modePtr, cfg.ServerPort, a, cm, um, fm, sm, v, tc, client, web.GenerationConfig{
		CdnBaseUrl:         cfg.CdnBaseUrl,
		StreamTimeout:      cfg.GeminiStreamTimeout,
		IncrementThreshold: cfg.UsageIncrementThreshold,
		TokensPerIncrement: cfg.UsageTokensPerIncrement,
	})
	if err != nil {
		lg.Fatalf("error creating api http server: %v", err)
	}

	as.Run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Infof("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := as.Shutdown(ctx); err != nil {
		lg.Debugf("api server shutdown: %v", err)
	}

	select {
	case <-ctx.Done():
		lg.Infof("timeout of 5 seconds")
	default:
	}

	lg.Infof("server exited")
}
