package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peckin/peckin/backend/go-services/internal/accounts"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	"github.com/peckin/peckin/backend/go-services/internal/database"
	"github.com/peckin/peckin/backend/go-services/internal/oidc"
	profilerepo "github.com/peckin/peckin/backend/go-services/internal/profiles/repository"
	profileservice "github.com/peckin/peckin/backend/go-services/internal/profiles/service"
	"github.com/peckin/peckin/backend/go-services/internal/server"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/peckin/peckin/backend/go-services/internal/storage"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"github.com/peckin/peckin/backend/go-services/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: project=%s keycloak=%v mongo=%v redis=%v minio=%v",
		cfg.Project.ProjectID, cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")
	if cfg.JWT.Secret == "" {
		logger.Fatalf("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{Config: cfg, Checks: map[string]func() bool{}}

	if cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			defer func() { _ = rc.Close() }()
			deps.Redis = rc
			deps.Blacklist = sessions.NewBlacklist(rc)
			deps.Sessions = sessions.NewService(sessions.NewRedisRepository(rc, ""))
			deps.Checks["redis"] = func() bool {
				pctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				return rc.Ping(pctx).Err() == nil
			}
		}
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectWithRetry(ctx, 5, time.Second, func(ctx context.Context) (*mongo.Client, error) {
			return database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		})
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		db := mongoClient.Database(cfg.MongoDB.Database)

		arepo, err := accounts.NewMongoRepository(ctx, db.Collection("accounts"))
		if err != nil {
			logger.Fatalf("accounts index: %v", err)
		}
		deps.Accounts = accounts.NewService(arepo)
		if deps.Sessions == nil {
			deps.Sessions = sessions.NewService(sessions.NewMongoRepository(ctx, db.Collection("sessions")))
		}
		deps.Profiles = profileservice.New(profilerepo.NewMongoRepo(db), cfg.Store.Collections)
		deps.Checks["mongo"] = func() bool {
			pctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return mongoClient.Ping(pctx, nil) == nil
		}
	} else {
		logger.Warn("MONGODB_URI not set; accounts and documents are kept in memory")
		deps.Accounts = accounts.NewService(accounts.NewMemoryRepository())
		deps.Profiles = profileservice.New(profilerepo.NewMemoryRepo(), cfg.Store.Collections)
	}
	if deps.Sessions == nil {
		deps.Sessions = sessions.NewService(sessions.NewMemoryRepository())
	}

	if fed := oidc.FromConfig(ctx, cfg); fed != nil {
		deps.Federated = fed
	} else if cfg.Keycloak.URL != "" {
		deps.Checks["oidc"] = func() bool { return false }
	}

	if cfg.MinIO.Endpoint != "" {
		st, err := storage.NewMinIOStorage(ctx, cfg.MinIO, cfg.Project.StorageBucket)
		if err != nil {
			logger.Warnf("avatar storage disabled: %v", err)
		} else {
			deps.Avatars = st
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := server.NewRouter(deps)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting peckin backend on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
