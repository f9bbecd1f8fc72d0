package movies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/movies-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "movies"

// movieDocument mirrors the collection layout. _id is a UUID string for
// documents written by this service and an ObjectID for older ones.
type movieDocument struct {
	ID          any       `bson:"_id"`
	Name        string    `bson:"name"`
	Year        *int      `bson:"year,omitempty"`
	Rating      *float64  `bson:"rating,omitempty"`
	Description *string   `bson:"description,omitempty"`
	Image       *string   `bson:"image,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// documentID maps a movie id onto the _id value stored for it.
func documentID(id string) any {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func toDocument(movie *models.Movie) movieDocument {
	return movieDocument{
		ID:          documentID(movie.ID),
		Name:        movie.Name,
		Year:        movie.Year,
		Rating:      movie.Rating,
		Description: movie.Description,
		Image:       movie.Image,
		CreatedAt:   movie.CreatedAt,
		UpdatedAt:   movie.UpdatedAt,
	}
}

func (d movieDocument) toModel() (models.Movie, error) {
	movie := models.Movie{
		Name:        d.Name,
		Year:        d.Year,
		Rating:      d.Rating,
		Description: d.Description,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	switch id := d.ID.(type) {
	case string:
		movie.ID = id
	case bson.ObjectID:
		movie.ID = id.Hex()
		if d.CreatedAt.IsZero() {
			movie.CreatedAt = id.Timestamp().UTC()
		}
		if d.UpdatedAt.IsZero() {
			movie.UpdatedAt = movie.CreatedAt
		}
	default:
		return models.Movie{}, fmt.Errorf("decode movie id: unsupported _id type %T", d.ID)
	}
	if movie.ID == "" {
		return models.Movie{}, fmt.Errorf("decode movie id: empty _id")
	}
	return movie, nil
}

// MongoRepository stores movies as documents in a Mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: mongoNow}
}

// BSON datetimes keep millisecond precision.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// EnsureIndexes creates the index backing the insertion-order listing.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create movies index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, movie *models.Movie) error {
	if movie.ID == "" {
		movie.ID = NewID()
	}
	now := r.now()
	movie.CreatedAt = now
	movie.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, toDocument(movie)); err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context) ([]models.Movie, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	var docs []movieDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}

	rows := make([]models.Movie, 0, len(docs))
	for _, doc := range docs {
		movie, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		rows = append(rows, movie)
	}
	return rows, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	var doc movieDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: documentID(id)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	movie, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// Save replaces the stored document, dropping optional fields that are unset.
// The _id keeps the type it was stored with.
func (r *MongoRepository) Save(ctx context.Context, movie *models.Movie) error {
	movie.UpdatedAt = r.now()
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: documentID(movie.ID)}}, toDocument(movie))
	if err != nil {
		return fmt.Errorf("save movie: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: documentID(id)}})
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListImagePaths(ctx context.Context) ([]string, error) {
	filter := bson.D{{Key: "image", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}
	opts := options.Find().SetProjection(bson.D{{Key: "image", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list image paths: %w", err)
	}
	var docs []struct {
		Image string `bson:"image"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode image paths: %w", err)
	}
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		paths = append(paths, doc.Image)
	}
	return paths, nil
}

func (r *MongoRepository) CountImageReferences(ctx context.Context, image string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{{Key: "image", Value: image}})
	if err != nil {
		return 0, fmt.Errorf("count image references: %w", err)
	}
	return count, nil
}
