package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoFileRepo struct {
	col *mongo.Collection
}

func NewMongoFileRepo(db *mongo.Database, collection string) *MongoFileRepo {
	return &MongoFileRepo{col: db.Collection(collection)}
}

func (r *MongoFileRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "parentId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	})
	return err
}

func (r *MongoFileRepo) Create(ctx context.Context, f *models.File) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.ParentID.IsRoot() {
		f.ParentID = models.RootID
	}
	res, err := r.col.InsertOne(ctx, f)
	if err != nil {
		return err
	}
	f.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoFileRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoFileRepo) FindOwned(ctx context.Context, id, userID primitive.ObjectID) (*models.File, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *MongoFileRepo) findOne(ctx context.Context, filter bson.M) (*models.File, error) {
	var f models.File
	err := r.col.FindOne(ctx, filter).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MongoFileRepo) SetPublic(ctx context.Context, id, userID primitive.ObjectID, isPublic bool) (*models.File, error) {
	var f models.File
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"isPublic": isPublic}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type pageFacet struct {
	Metadata []struct {
		Total int64 `bson:"total"`
	} `bson:"metadata"`
	Files []*models.File `bson:"files"`
}

func (r *MongoFileRepo) ListPage(ctx context.Context, userID primitive.ObjectID, parentID models.ParentID, page, pageSize int) (*models.FilePage, error) {
	if parentID.IsRoot() {
		parentID = models.RootID
	}
	if pageSize <= 0 || page < 0 || page > math.MaxInt64/pageSize {
		return &models.FilePage{Page: page, Files: []*models.File{}}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID, "parentId": parentID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$facet", Value: bson.M{
			"metadata": bson.A{bson.M{"$count": "total"}},
			"files":    bson.A{bson.M{"$skip": int64(page) * int64(pageSize)}, bson.M{"$limit": pageSize}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var facets []pageFacet
	if err := cur.All(ctx, &facets); err != nil {
		return nil, err
	}
	out := &models.FilePage{Page: page, Files: []*models.File{}}
	if len(facets) == 0 {
		return out, nil
	}
	if len(facets[0].Metadata) > 0 {
		out.Total = facets[0].Metadata[0].Total
	}
	if facets[0].Files != nil {
		out.Files = facets[0].Files
	}
	return out, nil
}

func (r *MongoFileRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
