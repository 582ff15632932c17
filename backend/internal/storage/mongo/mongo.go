// Package mongo stores accounts as documents in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/domain"
	internal_errors "github.com/ecomm-dev/accounts/shared/errors"
	"github.com/ecomm-dev/accounts/shared/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const opTimeout = 5 * time.Second

type Storage struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to cfg.Private.MongoURI, verifies the connection and makes
// sure the unique email index exists.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to mongodb", "database", cfg.Public.Mongo.Database)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Private.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Storage{
		client: client,
		coll:   client.Database(cfg.Public.Mongo.Database).Collection(cfg.Public.Mongo.Collection),
	}
	if err := s.EnsureIndexes(connectCtx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	logger.Log.Info("connected to mongodb")
	return s, nil
}

// NewWithCollection wraps an existing collection. The caller owns the client.
func NewWithCollection(coll *mongo.Collection) *Storage {
	return &Storage{coll: coll}
}

// EnsureIndexes creates the unique index on email. Creating an existing
// index is a no-op on the server.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

type addressDoc struct {
	Street  string `bson:"street,omitempty"`
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	Country string `bson:"country,omitempty"`
	Pin     string `bson:"pin,omitempty"`
}

type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Created   time.Time          `bson:"createdDate"`
	Admin     bool               `bson:"hasAdminPrevilieges"`
	Orders    []string           `bson:"orders"`
	Phone     []int64            `bson:"phone,omitempty"`
	Address   *addressDoc        `bson:"address,omitempty"`
}

func toDoc(a domain.Account) accountDoc {
	doc := accountDoc{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Password:  a.PassHash,
		Created:   a.CreatedAt,
		Admin:     a.Admin,
		Orders:    a.Orders,
		Phone:     a.Phone,
	}
	if doc.Orders == nil {
		doc.Orders = []string{}
	}
	if a.Address != nil {
		doc.Address = &addressDoc{
			Street:  a.Address.Street,
			City:    a.Address.City,
			State:   a.Address.State,
			Country: a.Address.Country,
			Pin:     a.Address.Pin,
		}
	}
	return doc
}

func (d accountDoc) account() domain.Account {
	a := domain.Account{
		Id:        d.ID.Hex(),
		Email:     d.Email,
		PassHash:  d.Password,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		Admin:     d.Admin,
		CreatedAt: d.Created.UTC(),
		Orders:    d.Orders,
	}
	if d.Address != nil {
		a.Address = &domain.Address{
			Street:  d.Address.Street,
			City:    d.Address.City,
			State:   d.Address.State,
			Country: d.Address.Country,
			Pin:     d.Address.Pin,
		}
	}
	return a
}

func (s *Storage) CreateAccount(ctx context.Context, account domain.Account) (domain.AccountId, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := toDoc(account)
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("insert account: %w", internal_errors.ErrDuplicate)
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Storage) AccountByEmail(ctx context.Context, email domain.Email) (domain.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Storage) AccountByID(ctx context.Context, id domain.AccountId) (domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// no document can have this id
		return domain.Account{}, fmt.Errorf("account %s: %w", id, internal_errors.ErrNotFound)
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *Storage) findOne(ctx context.Context, filter bson.M) (domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc accountDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Account{}, fmt.Errorf("find account: %w", internal_errors.ErrNotFound)
		}
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	return doc.account(), nil
}

// Count counts documents whose field equals value.
func (s *Storage) Count(ctx context.Context, field, value string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.M{field: value})
	if err != nil {
		return 0, fmt.Errorf("count accounts by %s: %w", field, err)
	}
	return n, nil
}

func (s *Storage) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (s *Storage) Ping(ctx context.Context) error {
	if s.client == nil {
		return s.coll.Database().Client().Ping(ctx, readpref.Primary())
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
