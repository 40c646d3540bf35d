// Package store is a thin layer over the Mongo driver that executes staged
// aggregation programs against a named (database, collection) pair and
// performs the client-side batch lookups that cross-database joins
// require, since a single $lookup stage can only join within one logical
// database.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/practicepulse/feestrategy/internal/telemetry"
)

// Database names for the three logical databases. They never share a
// collection namespace; CheckBoundaries enforces this.
const (
	DBActivity = "activity"
	DBRegistry = "registry"
	DBCrucible = "crucible"
)

// Adapter owns the Mongo client and exposes the three logical databases.
type Adapter struct {
	client *mongo.Client
}

// Connect dials Mongo and verifies connectivity with a ping.
func Connect(ctx context.Context, uri string) (*Adapter, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return &Adapter{client: client}, nil
}

// Close disconnects the underlying client.
func (a *Adapter) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

// Ping reports whether the store is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx, nil)
}

// Activity, Registry, and Crucible return handles to the three logical
// databases.
func (a *Adapter) Activity() *mongo.Database { return a.client.Database(DBActivity) }
func (a *Adapter) Registry() *mongo.Database { return a.client.Database(DBRegistry) }
func (a *Adapter) Crucible() *mongo.Database { return a.client.Database(DBCrucible) }

// Aggregate runs a staged aggregation pipeline against one (database,
// collection) pair with external sorting permitted, decoding every result
// document into results (a pointer to a slice).
func (a *Adapter) Aggregate(ctx context.Context, db *mongo.Database, collection string, pipeline mongo.Pipeline, results any) error {
	start := time.Now()
	cur, err := db.Collection(collection).Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	telemetry.StoreAggregationDuration.WithLabelValues("aggregate", db.Name(), collection).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("aggregating %s.%s: %w", db.Name(), collection, err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("decoding aggregation results from %s.%s: %w", db.Name(), collection, err)
	}
	return nil
}

// Find runs a plain filtered query against one (database, collection)
// pair, decoding every matching document into results.
func (a *Adapter) Find(ctx context.Context, db *mongo.Database, collection string, filter bson.M, results any) error {
	start := time.Now()
	cur, err := db.Collection(collection).Find(ctx, filter)
	telemetry.StoreAggregationDuration.WithLabelValues("find", db.Name(), collection).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("finding %s.%s: %w", db.Name(), collection, err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("decoding find results from %s.%s: %w", db.Name(), collection, err)
	}
	return nil
}
