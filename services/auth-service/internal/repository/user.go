package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
)

const userCollection = "users"

type userMongoRepository struct {
	collection *mongo.Collection
	logger     *zerolog.Logger
}

// NewUserMongoRepository creates the users collection indexes and returns a
// repository backed by db. Email is unique; oauth_subject is unique only on
// documents that carry one.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) (UserRepository, error) {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "oauth_subject", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"oauth_subject": bson.M{"$exists": true}}),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &userMongoRepository{collection: collection, logger: logger}, nil
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return nil, err
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByOAuthSubject(ctx context.Context, subject string) (*model.User, error) {
	if subject == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"oauth_subject": subject})
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	if params.empty() {
		return nil, ErrNoUpdate
	}

	// Build update query
	updateMap := bson.M{}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.PasswordHash != nil {
		updateMap["password_hash"] = *params.PasswordHash
	}
	if params.FullName != nil {
		updateMap["full_name"] = *params.FullName
	}
	if params.Role != nil {
		updateMap["role"] = *params.Role
	}
	if params.IsActive != nil {
		updateMap["is_active"] = *params.IsActive
	}
	if params.IsVerified != nil {
		updateMap["is_verified"] = *params.IsVerified
	}
	if params.OAuthProvider != nil {
		updateMap["oauth_provider"] = *params.OAuthProvider
	}
	if params.OAuthSubject != nil {
		updateMap["oauth_subject"] = *params.OAuthSubject
	}
	if params.LastLogin != nil {
		updateMap["last_login"] = params.LastLogin.UTC()
	}
	if params.TokenVersion != nil {
		updateMap["token_version"] = *params.TokenVersion
	}

	updateMap["updated_at"] = time.Now().UTC()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := result.Err(); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		default:
			return nil, err
		}
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.collection.FindOne(ctx, filter)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, err
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
