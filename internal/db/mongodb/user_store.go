package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kekopoly/dentetsu/internal/models"
)

// ErrUserNotFound is returned when no user matches a lookup
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when the username or email is taken
var ErrUserExists = errors.New("user already exists")

// UserStore handles database operations for users
type UserStore struct {
	users *mongo.Collection
}

// NewUserStore creates a new UserStore
func NewUserStore(db *mongo.Database, collName string) *UserStore {
	return &UserStore{
		users: db.Collection(collName),
	}
}

// CreateUser inserts a new user into the database
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	res, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// GetUserByEmail finds a user by their email address
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// GetUserByUsername finds a user by their username
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

// GetUserByID finds a user by their hex ID
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
