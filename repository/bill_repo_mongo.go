package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopbilling/models"
)

const (
	billsCollection    = "bills"
	countersCollection = "counters"
)

// MongoBillRepo keeps integer bill ids by incrementing a counter document,
// so ids look the same as on the SQL backends.
type MongoBillRepo struct {
	DB     *mongo.Client
	DBName string
}

func NewMongoBillRepo(db *mongo.Client, dbName string) *MongoBillRepo {
	return &MongoBillRepo{DB: db, DBName: dbName}
}

type billDocument struct {
	ID           int64                `bson:"_id"`
	CustomerName string               `bson:"customer_name"`
	Phone        string               `bson:"phone"`
	ItemsJSON    string               `bson:"items_json"`
	TotalAmount  primitive.Decimal128 `bson:"total_amount"`
	SMSStatus    string               `bson:"sms_status"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func (r *MongoBillRepo) bills() *mongo.Collection {
	return r.DB.Database(r.DBName).Collection(billsCollection)
}

// EnsureIndexes creates the indexes used by the list queries.
func (r *MongoBillRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.bills().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "sms_status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating bill indexes: %w", err)
	}
	return nil
}

func (r *MongoBillRepo) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.DB.Database(r.DBName).Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": billsCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocating bill id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoBillRepo) CreateBill(ctx context.Context, bill *models.Bill) (int64, error) {
	itemsJSON, err := encodeItems(bill.Items)
	if err != nil {
		return 0, err
	}
	status := bill.SMSStatus
	if status == "" {
		status = models.SMSPending
	}
	if err := checkStatus(status); err != nil {
		return 0, err
	}
	total, err := primitive.ParseDecimal128(bill.TotalAmount.StringFixed(2))
	if err != nil {
		return 0, fmt.Errorf("encoding total amount: %w", err)
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	// Mongo stores milliseconds; truncate so the caller sees what is stored.
	createdAt := time.Now().UTC().Truncate(time.Millisecond)

	_, err = r.bills().InsertOne(ctx, billDocument{
		ID:           id,
		CustomerName: bill.CustomerName,
		Phone:        bill.Phone,
		ItemsJSON:    string(itemsJSON),
		TotalAmount:  total,
		SMSStatus:    string(status),
		CreatedAt:    createdAt,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting bill: %w", err)
	}

	bill.ID = id
	bill.CreatedAt = createdAt
	bill.SMSStatus = status
	return id, nil
}

func (r *MongoBillRepo) GetBillByID(ctx context.Context, id int64) (*models.Bill, error) {
	var doc billDocument
	err := r.bills().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding bill: %w", err)
	}
	return doc.toModel()
}

func (r *MongoBillRepo) ListBills(ctx context.Context, limit, offset int) ([]*models.Bill, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoBillRepo) ListBillsByStatus(ctx context.Context, status models.SMSStatus) ([]*models.Bill, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"sms_status": string(status)}, opts)
}

func (r *MongoBillRepo) UpdateSMSStatus(ctx context.Context, id int64, status models.SMSStatus) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	res, err := r.bills().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"sms_status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("updating sms status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *MongoBillRepo) Ping(ctx context.Context) error {
	return r.DB.Ping(ctx, nil)
}

func (r *MongoBillRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Bill, error) {
	cur, err := r.bills().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	defer cur.Close(ctx)

	bills := []*models.Bill{}
	for cur.Next(ctx) {
		var doc billDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding bill: %w", err)
		}
		b, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating bills: %w", err)
	}
	return bills, nil
}

func (d *billDocument) toModel() (*models.Bill, error) {
	items, err := decodeItems(d.ID, []byte(d.ItemsJSON))
	if err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(d.TotalAmount.String())
	if err != nil {
		return nil, fmt.Errorf("bill %d: decoding total amount: %w", d.ID, err)
	}
	return &models.Bill{
		ID:           d.ID,
		CustomerName: d.CustomerName,
		Phone:        d.Phone,
		Items:        items,
		TotalAmount:  total,
		SMSStatus:    models.SMSStatus(d.SMSStatus),
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}
