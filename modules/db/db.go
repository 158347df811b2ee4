package db

import (
	"context"
	"time"

	a "blockballot/modules/aggregate"
	"blockballot/modules/config"

	"blockballot/lib/utils"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Db interface {
	a.Plugin
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

type db struct {
	conf *config.Config[DbConfig]
	*mongo.Client
}

var _ a.Plugin = &db{}
var _ Db = &db{}

func New(conf *config.Config[DbConfig]) *db {
	return &db{conf: conf}
}

// Init connects the client so database and collection handles can be
// bound during later plugin Inits.
func (db *db) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver, err := mongo.Connect(ctx, options.Client().ApplyURI(db.conf.Get().DbURI))
	if err != nil {
		return err
	}
	db.Client = driver
	return nil
}

func (db *db) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (db *db) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.Disconnect(ctx)
}
