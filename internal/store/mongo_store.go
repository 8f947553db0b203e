package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	cerrors "github.com/gebeya/catalog/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productCollection = "products"

// MongoStore implements ProductStore using MongoDB as the data store.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a new instance of ProductStore backed by the
// products collection of the given database.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		col: client.Database(database).Collection(productCollection),
	}
}

// productDoc is the persisted document shape. The public ID is the hex form
// of the Mongo ObjectID; serialization to the external representation
// happens in the service layer.
type productDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description,omitempty"`
	DescriptionAm string             `bson:"description_am,omitempty"`
	DescriptionOm string             `bson:"description_om,omitempty"`
	Price         float64            `bson:"price"`
	Stock         int                `bson:"stock"`
	Category      string             `bson:"category,omitempty"`
	ImageBase64   string             `bson:"image_base64,omitempty"`
	Unit          string             `bson:"unit,omitempty"`
	Origin        string             `bson:"origin,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// EnsureIndexes creates the indexes the query paths rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// buildFilter translates a ListQuery into a native Mongo filter document.
// Filters AND-compose; the search term is quoted so user input is matched
// literally, never interpreted as a regex.
func buildFilter(q ListQuery) bson.M {
	filter := bson.M{}

	if q.Category != "" {
		filter["category"] = q.Category
	}

	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}

	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	return filter
}

// List returns one page of products matching the query plus the total count.
// Without a search term results come back newest first. With a search term
// the page is relevance-ranked: name matches before description-only
// matches, newest first within each rank.
func (s *MongoStore) List(ctx context.Context, q ListQuery) (*ProductPage, error) {
	filter := buildFilter(q)

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var docs []productDoc
	if q.Search != "" {
		docs, err = s.findRanked(ctx, filter, q)
	} else {
		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(q.Offset())).
			SetLimit(int64(q.Limit))
		var cursor *mongo.Cursor
		cursor, err = s.col.Find(ctx, filter, opts)
		if err == nil {
			err = cursor.All(ctx, &docs)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	items := make([]Product, len(docs))
	for i := range docs {
		items[i] = *docs[i].toProduct()
	}
	return &ProductPage{Items: items, Total: total}, nil
}

// findRanked runs the search-ordered variant of List as an aggregation.
func (s *MongoStore) findRanked(ctx context.Context, filter bson.M, q ListQuery) ([]productDoc, error) {
	nameMatch := bson.M{"$regexMatch": bson.M{
		"input":   "$name",
		"regex":   regexp.QuoteMeta(q.Search),
		"options": "i",
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.M{
			"relevance": bson.M{"$cond": bson.A{nameMatch, 0, 1}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "relevance", Value: 1},
			{Key: "created_at", Value: -1},
		}}},
		{{Key: "$skip", Value: int64(q.Offset())}},
		{{Key: "$limit", Value: int64(q.Limit)}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByID retrieves a product by its identifier.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc productDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return doc.toProduct(), nil
}

// Create inserts a new product. The store assigns the ObjectID and sets
// both timestamps to the same instant.
func (s *MongoStore) Create(ctx context.Context, p *Product) (*Product, error) {
	now := time.Now().UTC()
	doc := docFromProduct(p)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toProduct(), nil
}

// Update applies the non-nil patch fields in a single findAndModify and
// returns the post-update document.
func (s *MongoStore) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	applyPatch(set, patch)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDoc
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return doc.toProduct(), nil
}

// Delete removes a product by its ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return cerrors.ErrProductNotFound
	}
	return nil
}

// Categories returns the distinct non-empty category values.
func (s *MongoStore) Categories(ctx context.Context) ([]string, error) {
	values, err := s.col.Distinct(ctx, "category", bson.M{
		"category": bson.M{"$nin": bson.A{nil, ""}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

// Stats computes the aggregate stats in a single $group pass.
func (s *MongoStore) Stats(ctx context.Context) (*Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"lowStock": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gt": bson.A{"$stock", 0}},
					bson.M{"$lte": bson.A{"$stock", 5}},
				}}, 1, 0,
			}}},
			"outOfStock": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$stock", 0}}, 1, 0,
			}}},
			"totalValue": bson.M{"$sum": bson.M{"$multiply": bson.A{"$price", "$stock"}}},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate product stats: %w", err)
	}

	var results []struct {
		Total      int64   `bson:"total"`
		LowStock   int64   `bson:"lowStock"`
		OutOfStock int64   `bson:"outOfStock"`
		TotalValue float64 `bson:"totalValue"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode product stats: %w", err)
	}
	if len(results) == 0 {
		return &Stats{}, nil
	}
	r := results[0]
	return &Stats{
		Total:      r.Total,
		LowStock:   r.LowStock,
		OutOfStock: r.OutOfStock,
		TotalValue: r.TotalValue,
	}, nil
}

// parseObjectID validates the store-native identifier format before any
// round-trip, so malformed IDs surface as a client error, not a miss.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, cerrors.ErrInvalidProductID
	}
	return oid, nil
}

// applyPatch copies the non-nil patch fields into a $set document.
func applyPatch(set bson.M, patch ProductPatch) {
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.DescriptionAm != nil {
		set["description_am"] = *patch.DescriptionAm
	}
	if patch.DescriptionOm != nil {
		set["description_om"] = *patch.DescriptionOm
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.ImageBase64 != nil {
		set["image_base64"] = *patch.ImageBase64
	}
	if patch.Unit != nil {
		set["unit"] = *patch.Unit
	}
	if patch.Origin != nil {
		set["origin"] = *patch.Origin
	}
}

func (d *productDoc) toProduct() *Product {
	return &Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		DescriptionAm: d.DescriptionAm,
		DescriptionOm: d.DescriptionOm,
		Price:         d.Price,
		Stock:         d.Stock,
		Category:      d.Category,
		ImageBase64:   d.ImageBase64,
		Unit:          d.Unit,
		Origin:        d.Origin,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func docFromProduct(p *Product) *productDoc {
	return &productDoc{
		Name:          p.Name,
		Description:   p.Description,
		DescriptionAm: p.DescriptionAm,
		DescriptionOm: p.DescriptionOm,
		Price:         p.Price,
		Stock:         p.Stock,
		Category:      p.Category,
		ImageBase64:   p.ImageBase64,
		Unit:          p.Unit,
		Origin:        p.Origin,
	}
}
