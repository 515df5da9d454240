package account

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avm_wallet/internal/model"
)

type (
	AccountRepo struct {
		collection *mongo.Collection
	}
)

func NewAccountRepo(db *mongo.Database) *AccountRepo {
	return &AccountRepo{
		collection: db.Collection("accounts"),
	}
}

func (r *AccountRepo) GetByAddress(ctx context.Context, address string) (*model.Account, error) {
	filter := bson.M{
		"_id": address,
	}

	var account model.Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *AccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*model.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *AccountRepo) Upsert(ctx context.Context, account *model.Account) error {
	filter := bson.M{
		"_id": account.Address,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, account, opts)
	return err
}
