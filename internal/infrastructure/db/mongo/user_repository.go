package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

var _ ports.CredentialStore = (*UserRepository)(nil)

const usersCollection = "users"

// caseInsensitive makes username/email matching ignore case, both for
// lookups and for the unique indexes.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// UserRepository implements ports.CredentialStore on MongoDB. Counter and
// reset-token mutations are single-document atomic updates.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	Name                 string             `bson:"name"`
	Username             string             `bson:"username"`
	Email                string             `bson:"email,omitempty"`
	PasswordHash         string             `bson:"password_hash"`
	Role                 string             `bson:"role"`
	IsActive             bool               `bson:"is_active"`
	EmailVerified        bool               `bson:"email_verified"`
	IsShadowUser         bool               `bson:"is_shadow_user"`
	FailedLoginAttempts  int                `bson:"failed_login_attempts"`
	LockUntil            *time.Time         `bson:"lock_until,omitempty"`
	PasswordResetToken   string             `bson:"password_reset_token,omitempty"`
	PasswordResetExpires *time.Time         `bson:"password_reset_expires,omitempty"`
	LastLogin            *time.Time         `bson:"last_login,omitempty"`
	CreatedAt            time.Time          `bson:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                   mu.ID.Hex(),
		Name:                 mu.Name,
		Username:             mu.Username,
		Email:                mu.Email,
		PasswordHash:         mu.PasswordHash,
		Role:                 domain.Role(mu.Role),
		IsActive:             mu.IsActive,
		EmailVerified:        mu.EmailVerified,
		IsShadowUser:         mu.IsShadowUser,
		FailedLoginAttempts:  mu.FailedLoginAttempts,
		LockUntil:            utcPtr(mu.LockUntil),
		PasswordResetToken:   mu.PasswordResetToken,
		PasswordResetExpires: utcPtr(mu.PasswordResetExpires),
		LastLogin:            utcPtr(mu.LastLogin),
		CreatedAt:            mu.CreatedAt.UTC(),
		UpdatedAt:            mu.UpdatedAt.UTC(),
	}
}

// EnsureIndexes creates the unique case-insensitive identifier indexes and
// the reset-token lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(caseInsensitive).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "password_reset_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Name:          user.Name,
		Username:      user.Username,
		Email:         user.Email,
		PasswordHash:  user.PasswordHash,
		Role:          string(user.Role),
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		IsShadowUser:  user.IsShadowUser,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"username": identifier},
			bson.M{"email": identifier},
		},
	}
	return r.findOne(ctx, filter, options.FindOne().SetCollation(caseInsensitive))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	filter := bson.M{"is_active": true, "email": email}
	return r.findOne(ctx, filter, options.FindOne().SetCollation(caseInsensitive))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByPasswordResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, liveResetTokenFilter(tokenHash, now))
}

func (r *UserRepository) List(ctx context.Context, includeShadow bool) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if !includeShadow {
		filter["is_shadow_user"] = bson.M{"$ne": true}
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetCollation(caseInsensitive))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// IncrementFailedAttempts runs as one update pipeline so concurrent failures
// never lose an increment. The second stage sees the incremented counter.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, id string, threshold int, lockUntil, now time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := failedAttemptPipeline(threshold, lockUntil, now)
	if _, err := r.coll.UpdateOne(ctx, unlockedFilter(oid, now), pipeline); err != nil {
		return fmt.Errorf("increment failed attempts: %w", err)
	}
	return nil
}

// unlockedFilter matches the user only while no lock is active, so failures
// against a locked account leave the counter alone.
func unlockedFilter(oid primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"lock_until": bson.M{"$exists": false}},
			bson.M{"lock_until": nil},
			bson.M{"lock_until": bson.M{"$lte": now.UTC()}},
		},
	}
}

// failedAttemptPipeline increments the counter, then locks and zeroes it once
// the threshold is reached.
func failedAttemptPipeline(threshold int, lockUntil, now time.Time) mongo.Pipeline {
	reached := bson.M{"$gte": bson.A{"$failed_login_attempts", threshold}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"failed_login_attempts": bson.M{"$add": bson.A{
				bson.M{"$ifNull": bson.A{"$failed_login_attempts", 0}}, 1,
			}},
			"updated_at": now.UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"lock_until":            bson.M{"$cond": bson.A{reached, lockUntil.UTC(), "$lock_until"}},
			"failed_login_attempts": bson.M{"$cond": bson.A{reached, 0, "$failed_login_attempts"}},
		}}},
	}
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string, now time.Time) error {
	update := bson.M{
		"$set":   bson.M{"failed_login_attempts": 0, "last_login": now.UTC(), "updated_at": now.UTC()},
		"$unset": bson.M{"lock_until": ""},
	}
	_, err := r.updateByID(ctx, id, update)
	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"role": string(role), "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) UpdateShadowStatus(ctx context.Context, id string, shadow bool) (*domain.User, error) {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"is_shadow_user": shadow, "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) SetPasswordResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	update := bson.M{"$set": bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires.UTC(),
		"updated_at":             time.Now().UTC(),
	}}
	_, err := r.updateByID(ctx, id, update)
	return err
}

// ConsumePasswordReset matches on the live token, so two concurrent resets
// with the same token cannot both succeed.
func (r *UserRepository) ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, liveResetTokenFilter(tokenHash, now), consumeResetUpdate(passwordHash, now))
	if err != nil {
		return fmt.Errorf("consume password reset: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidOrExpired
	}
	return nil
}

func liveResetTokenFilter(tokenHash string, now time.Time) bson.M {
	return bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now.UTC()},
	}
}

func consumeResetUpdate(passwordHash string, now time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now.UTC()},
		"$unset": bson.M{"password_reset_token": "", "password_reset_expires": ""},
	}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
