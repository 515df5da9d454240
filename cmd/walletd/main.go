package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"avm_wallet/internal/config"
	accountRepo "avm_wallet/internal/repository/account"
	sessionRepo "avm_wallet/internal/repository/session"
	"avm_wallet/internal/service/background"
	"avm_wallet/internal/service/events"
	redisSvc "avm_wallet/internal/service/redis"
	"avm_wallet/internal/service/relay"
	"avm_wallet/internal/utils/log"
)

func main() {
	configPath := flag.String("config", "walletd.toml", "path to the walletd config file")
	debug := flag.Bool("debug", false, "use a development logger with debug output")
	flag.Parse()

	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		log.ReplaceLogger(l)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	mongoDBClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal("connect mongo failed", zap.Error(err))
	}

	db := mongoDBClient.Database(cfg.MongoDB)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: "", // no password by default
		DB:       0,  // use default DB
	})

	redisService := redisSvc.NewRedis(rdb)

	sessions := sessionRepo.NewSessionRepo(db)
	accounts := accountRepo.NewAccountRepo(db)
	eventStore := events.NewEventStore(redisService)

	bg := background.New(background.Params{
		ProviderID: cfg.ProviderID,
		Name:       cfg.ProviderName,
		Host:       cfg.ProviderHost,
		SessionTTL: cfg.SessionTTL(),
		Registry:   background.NewRegistry(cfg.NetworkInfos()),
		Sessions:   sessions,
		Accounts:   accounts,
		Events:     eventStore,
	})

	server := relay.NewServer(bg, cfg.ProviderID)
	go func() {
		if err := server.Run(cfg.ListenAddr); err != nil {
			log.Fatal("relay server stopped", zap.Error(err))
		}
	}()

	log.Info("walletd started",
		zap.String("addr", cfg.ListenAddr),
		zap.String("providerId", cfg.ProviderID),
	)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
