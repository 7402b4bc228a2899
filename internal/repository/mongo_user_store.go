package repository

import (
	"context"
	"errors"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoUserStore реализация UserStore поверх коллекции MongoDB.
type MongoUserStore struct {
	collection *mongo.Collection
	name       string // "primary" или "secondary", для логов и ошибок
	log        *logger.Logger
}

// Connect устанавливает соединение с MongoDB по строке подключения.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// NewMongoUserStore создает хранилище пользователей поверх MongoDB.
func NewMongoUserStore(client *mongo.Client, database, name string, log *logger.Logger) *MongoUserStore {
	return &MongoUserStore{
		collection: client.Database(database).Collection(usersCollection),
		name:       name,
		log:        log,
	}
}

// setDocument переводит частичное обновление в документ $set.
func setDocument(update domain.SubscriptionUpdate) bson.M {
	set := bson.M{}
	if update.SubscriptionID != nil {
		set["subscription_id"] = *update.SubscriptionID
	}
	if update.AuthToken != nil {
		set["auth_token"] = *update.AuthToken
	}
	if update.Status != nil {
		set["subscription_status"] = *update.Status
	}
	if update.Plan != nil {
		set["plan"] = *update.Plan
	}
	if update.PlanID != nil {
		set["plan_id"] = *update.PlanID
	}
	if update.PlanName != nil {
		set["plan_name"] = *update.PlanName
	}
	if update.PlanInterval != nil {
		set["plan_interval"] = *update.PlanInterval
	}
	if update.PlanDescription != nil {
		set["plan_description"] = *update.PlanDescription
	}
	if update.Price != nil {
		set["subscription_price"] = *update.Price
	}
	if update.CreatedAt != nil {
		set["subscription_created_at"] = *update.CreatedAt
	}
	if update.ExpiresAt != nil {
		set["subscription_expires_at"] = *update.ExpiresAt
	}
	if update.LastPaymentDate != nil {
		set["last_payment_date"] = *update.LastPaymentDate
	}
	if update.NextPaymentDate != nil {
		set["next_payment_date"] = *update.NextPaymentDate
	}
	if !update.UpdatedAt.IsZero() {
		set["updated_at"] = update.UpdatedAt
	}
	return set
}

// findOne выполняет поиск одного документа по фильтру.
func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M, key string) (*domain.User, error) {
	var user domain.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("user", key)
		}
		return nil, domain.NewStoreError(s.name, "find", err)
	}
	return &user, nil
}

// FindByID ищет пользователя по идентификатору.
func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id)
}

// FindByEmail ищет пользователя по email.
func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email}, email)
}

// FindBySubscriptionID ищет пользователя по идентификатору подписки.
func (s *MongoUserStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"subscription_id": subscriptionID}, subscriptionID)
}

// Count возвращает количество пользователей.
func (s *MongoUserStore) Count(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, domain.NewStoreError(s.name, "count", err)
	}
	return count, nil
}

// FindAny возвращает произвольного пользователя.
func (s *MongoUserStore) FindAny(ctx context.Context) (*domain.User, error) {
	return s.findOne(ctx, bson.M{}, "any")
}

// Insert вставляет нового пользователя.
func (s *MongoUserStore) Insert(ctx context.Context, user *domain.User) (string, error) {
	if user.ID == "" {
		user.ID = NewRecordID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		return "", domain.NewStoreError(s.name, "insert", err)
	}
	return user.ID, nil
}

// updateOne применяет $set по фильтру и возвращает обновлённый документ.
// Обновление одного документа атомарно на стороне MongoDB, поэтому
// конкурентные доставки вебхуков сводятся к last-write-wins.
func (s *MongoUserStore) updateOne(ctx context.Context, filter bson.M, update domain.SubscriptionUpdate, key string) (*domain.User, error) {
	set := setDocument(update)
	if len(set) == 0 {
		return s.findOne(ctx, filter, key)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user domain.User
	err := s.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("user", key)
		}
		return nil, domain.NewStoreError(s.name, "update", err)
	}
	return &user, nil
}

// UpdateByID применяет частичное обновление по идентификатору пользователя.
func (s *MongoUserStore) UpdateByID(ctx context.Context, id string, update domain.SubscriptionUpdate) (*domain.User, error) {
	return s.updateOne(ctx, bson.M{"_id": id}, update, id)
}

// UpdateBySubscriptionID применяет частичное обновление по идентификатору подписки.
func (s *MongoUserStore) UpdateBySubscriptionID(ctx context.Context, subscriptionID string, update domain.SubscriptionUpdate) (*domain.User, error) {
	return s.updateOne(ctx, bson.M{"subscription_id": subscriptionID}, update, subscriptionID)
}

// FindExpired возвращает пользователей с оплаченной, но истёкшей подпиской.
func (s *MongoUserStore) FindExpired(ctx context.Context, now time.Time) ([]domain.User, error) {
	filter := bson.M{
		"subscription_status":     domain.SubscriptionStatusPaid,
		"subscription_expires_at": bson.M{"$lt": now},
	}
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, domain.NewStoreError(s.name, "find expired", err)
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, domain.NewStoreError(s.name, "decode expired", err)
	}
	return users, nil
}
