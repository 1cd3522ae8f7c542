package mgo

import (
	"context"
	"sync"
	"time"

	"GridSync/global"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	mu sync.RWMutex
	db *mongo.Database
)

// Init connects to mongo and pings it once. The persistence
// collaborator is optional; callers that need a database check GetDB
// for nil and fall back to in-memory stores.
func Init(ctx context.Context, cfg global.MongoConfig) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cli, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return err
	}
	if err := cli.Ping(cctx, readpref.Primary()); err != nil {
		return err
	}

	mu.Lock()
	db = cli.Database(cfg.DB)
	mu.Unlock()
	return nil
}

func GetDB() *mongo.Database {
	mu.RLock()
	defer mu.RUnlock()
	return db
}
