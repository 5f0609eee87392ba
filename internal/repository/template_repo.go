package repository

import (
	"context"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"bizplanner/internal/model"
)

// TemplateRepo handles MongoDB operations for questionnaire templates
type TemplateRepo interface {
	ListTemplates(ctx context.Context, persona model.Persona) ([]model.Question, error)
	ReplacePersona(ctx context.Context, persona model.Persona, questions []model.Question) (int, error)
}

type templateRepo struct {
	collection *mongo.Collection
}

// NewTemplateRepo creates a new template repository with indexes
func NewTemplateRepo(db *mongo.Database) TemplateRepo {
	repo := &templateRepo{
		collection: db.Collection("question_templates"),
	}
	ensureIndex(context.Background(), repo.collection, bson.D{
		{Key: "persona", Value: 1},
		{Key: "stepNumber", Value: 1},
		{Key: "order", Value: 1},
	}, false)
	return repo
}

// ListTemplates returns the persona's questions sorted by step then order
func (r *templateRepo) ListTemplates(ctx context.Context, persona model.Persona) ([]model.Question, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "stepNumber", Value: 1},
		{Key: "order", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{"persona": persona}, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "find templates for %s", persona)
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, eris.Wrapf(err, "decode templates for %s", persona)
	}
	return questions, nil
}

// ReplacePersona swaps the persona's question set for a new one
func (r *templateRepo) ReplacePersona(ctx context.Context, persona model.Persona, questions []model.Question) (int, error) {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"persona": persona}); err != nil {
		return 0, eris.Wrapf(err, "clear templates for %s", persona)
	}
	if len(questions) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(questions))
	for _, q := range questions {
		q.Persona = persona
		docs = append(docs, q)
	}
	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, eris.Wrapf(err, "insert templates for %s", persona)
	}
	return len(result.InsertedIDs), nil
}

func ensureIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		zap.L().Warn("repository: failed to create index",
			zap.String("collection", coll.Name()),
			zap.Error(err),
		)
	}
}
