package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"sitebuilder/internal/domain"
)

const mongoTimeout = 30 * time.Second

// MongoRouteStore implements domain.RouteStore on a MongoDB collection with
// one {storeId, route, lgContent, smContent, version} document per route.
type MongoRouteStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRoute struct {
	StoreID   string    `bson:"storeId"`
	Route     string    `bson:"route"`
	LgContent bson.Raw  `bson:"lgContent"`
	SmContent bson.Raw  `bson:"smContent"`
	Version   string    `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// OpenMongo connects, pings and ensures the unique (storeId, route) index.
func OpenMongo(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoRouteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	uri, dbName := cfg.Resolve()
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	logger.Info("connecting to mongo",
		zap.String("uri", Mask(uri, cfg.Password)),
		zap.String("database", dbName),
		zap.String("collection", collection))

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(dbName).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "storeId", Value: 1}, {Key: "route", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create route index: %w", err)
	}
	return &MongoRouteStore{client: client, coll: coll}, nil
}

func routeFilter(storeID, route string) bson.D {
	return bson.D{{Key: "storeId", Value: storeID}, {Key: "route", Value: route}}
}

func (s *MongoRouteStore) ListRoutes(ctx context.Context, storeID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.D{{Key: "route", Value: 1}}).
		SetSort(bson.D{{Key: "route", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "storeId", Value: storeID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find routes: %w", err)
	}
	var docs []struct {
		Route string `bson:"route"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	routes := make([]string, 0, len(docs))
	for _, d := range docs {
		routes = append(routes, d.Route)
	}
	return routes, nil
}

func (s *MongoRouteStore) GetRoute(ctx context.Context, storeID, route string) (*domain.RouteDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc mongoRoute
	err := s.coll.FindOne(ctx, routeFilter(storeID, route)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("route %s: %w", route, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find route %s: %w", route, err)
	}

	out := &domain.RouteDocument{
		StoreID:   doc.StoreID,
		Route:     doc.Route,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if out.LgContent, err = layoutFromBSON(doc.LgContent); err != nil {
		return nil, fmt.Errorf("decode %s lg content: %w", route, err)
	}
	if out.SmContent, err = layoutFromBSON(doc.SmContent); err != nil {
		return nil, fmt.Errorf("decode %s sm content: %w", route, err)
	}
	return out, nil
}

func (s *MongoRouteStore) CreateRoute(ctx context.Context, storeID, route string) (*domain.RouteDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	content, err := layoutToBSON(domain.NewRouteLayout(route))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	_, err = s.coll.InsertOne(ctx, bson.D{
		{Key: "storeId", Value: storeID},
		{Key: "route", Value: route},
		{Key: "lgContent", Value: content},
		{Key: "smContent", Value: content},
		{Key: "version", Value: domain.DocumentVersion},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("route %s: %w", route, domain.ErrRouteExists)
	}
	if err != nil {
		return nil, fmt.Errorf("insert route %s: %w", route, err)
	}
	return &domain.RouteDocument{
		StoreID:   storeID,
		Route:     route,
		LgContent: domain.NewRouteLayout(route),
		SmContent: domain.NewRouteLayout(route),
		Version:   domain.DocumentVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *MongoRouteStore) SaveLayout(ctx context.Context, storeID, route string, mode domain.Mode, l *domain.Layout) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	field, other := "lgContent", "smContent"
	if mode == domain.ModeSmall {
		field, other = other, field
	}
	content, err := layoutToBSON(l)
	if err != nil {
		return err
	}
	empty, err := layoutToBSON(domain.EmptyLayout())
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: field, Value: content},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: other, Value: empty},
			{Key: "version", Value: domain.DocumentVersion},
			{Key: "createdAt", Value: now},
		}},
	}
	if _, err := s.coll.UpdateOne(ctx, routeFilter(storeID, route), update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("save %s/%s: %w", route, mode, err)
	}
	return nil
}

func (s *MongoRouteStore) DeleteRoute(ctx context.Context, storeID, route string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, routeFilter(storeID, route))
	if err != nil {
		return fmt.Errorf("delete route %s: %w", route, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("route %s: %w", route, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoRouteStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// layoutToBSON goes through JSON so the stored document keeps the exact
// field names of the JSON layout.
func layoutToBSON(l *domain.Layout) (bson.D, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("convert layout to bson: %w", err)
	}
	return doc, nil
}

func layoutFromBSON(raw bson.Raw) (*domain.Layout, error) {
	if len(raw) == 0 {
		return domain.EmptyLayout(), nil
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert bson layout: %w", err)
	}
	return decodeLayout(string(data))
}
