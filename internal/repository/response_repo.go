package repository

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bizplanner/internal/model"
)

// ResponseRepo persists debounced answers, one document per session and question
type ResponseRepo interface {
	SaveResponse(ctx context.Context, response *model.Response) error
	ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository with indexes
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	repo := &responseRepo{
		collection: db.Collection("responses"),
	}
	ensureIndex(context.Background(), repo.collection, bson.D{
		{Key: "sessionId", Value: 1},
		{Key: "questionTemplateId", Value: 1},
	}, true)
	return repo
}

// SaveResponse upserts the answer; the last write for a question wins
func (r *responseRepo) SaveResponse(ctx context.Context, response *model.Response) error {
	if response.UpdatedAt.IsZero() {
		response.UpdatedAt = time.Now()
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{
			"sessionId":          response.SessionID,
			"questionTemplateId": response.QuestionTemplateID,
		},
		response,
		opts,
	)
	if err != nil {
		return eris.Wrapf(err, "save response %s/%s", response.SessionID, response.QuestionTemplateID)
	}
	return nil
}

func (r *responseRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, eris.Wrapf(err, "find responses for %s", sessionID)
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, eris.Wrapf(err, "decode responses for %s", sessionID)
	}
	return responses, nil
}

func (r *responseRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return eris.Wrapf(err, "delete responses for %s", sessionID)
}
