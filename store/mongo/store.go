// Package mongo provides a MongoDB store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/user"
)

const (
	collAreas     = "cablebill_areas"
	collCustomers = "cablebill_customers"
	collPayments  = "cablebill_payments"
	collUsers     = "cablebill_users"
)

var (
	_ store.Store   = (*Store)(nil)
	_ store.Watcher = (*Store)(nil)
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and returns a store bound to the given database.
func New(uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(database),
	}, nil
}

// NewWithClient wraps an existing client, useful when the application
// already manages a connection pool.
func NewWithClient(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

func (s *Store) areas() *mongo.Collection     { return s.db.Collection(collAreas) }
func (s *Store) customers() *mongo.Collection { return s.db.Collection(collCustomers) }
func (s *Store) payments() *mongo.Collection  { return s.db.Collection(collPayments) }
func (s *Store) users() *mongo.Collection     { return s.db.Collection(collUsers) }

// Area Store implementation

func (s *Store) CreateArea(ctx context.Context, a *area.Area) error {
	_, err := s.areas().InsertOne(ctx, toAreaModel(a))
	if mongo.IsDuplicateKeyError(err) {
		return cablebill.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetArea(ctx context.Context, areaID id.AreaID) (*area.Area, error) {
	var m areaModel
	err := s.areas().FindOne(ctx, bson.M{"_id": areaID.String()}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, cablebill.ErrAreaNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromAreaModel(&m)
}

func (s *Store) ListAreas(ctx context.Context) ([]*area.Area, error) {
	cur, err := s.areas().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]*area.Area, 0)
	for cur.Next(ctx) {
		var m areaModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		a, err := fromAreaModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, cur.Err()
}

func (s *Store) UpdateArea(ctx context.Context, a *area.Area) error {
	res, err := s.areas().ReplaceOne(ctx, bson.M{"_id": a.ID.String()}, toAreaModel(a))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return cablebill.ErrAreaNotFound
	}
	return nil
}

func (s *Store) DeleteArea(ctx context.Context, areaID id.AreaID) error {
	res, err := s.areas().DeleteOne(ctx, bson.M{"_id": areaID.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return cablebill.ErrAreaNotFound
	}
	return nil
}

func (s *Store) CountCustomersInArea(ctx context.Context, areaID id.AreaID) (int, error) {
	n, err := s.customers().CountDocuments(ctx, bson.M{"area_id": areaID.String()})
	return int(n), err
}

// Customer Store implementation

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.customers().InsertOne(ctx, toCustomerModel(c))
	if mongo.IsDuplicateKeyError(err) {
		return cablebill.ErrDuplicateConnectionNumber
	}
	return err
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.customers().FindOne(ctx, bson.M{"_id": custID.String()}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, cablebill.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromCustomerModel(&m)
}

func (s *Store) GetCustomerByConnectionNumber(ctx context.Context, connectionNumber string) (*customer.Customer, error) {
	var m customerModel
	err := s.customers().FindOne(ctx, bson.M{"connection_number": connectionNumber}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, cablebill.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomersByArea(ctx context.Context, areaID id.AreaID) ([]*customer.Customer, error) {
	return s.findCustomers(ctx, bson.M{"area_id": areaID.String()})
}

func (s *Store) SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error) {
	query = strings.TrimSpace(query)
	filter := bson.M{}
	if query != "" {
		re := bson.Regex{Pattern: regexQuote(query), Options: "i"}
		filter = bson.M{"$or": bson.A{
			bson.M{"name": re},
			bson.M{"cnic": re},
			bson.M{"connection_number": re},
		}}
	}
	return s.findCustomers(ctx, filter)
}

func (s *Store) findCustomers(ctx context.Context, filter bson.M) ([]*customer.Customer, error) {
	cur, err := s.customers().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]*customer.Customer, 0)
	for cur.Next(ctx) {
		var m customerModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		c, err := fromCustomerModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, cur.Err()
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	res, err := s.customers().ReplaceOne(ctx, bson.M{"_id": c.ID.String()}, toCustomerModel(c))
	if mongo.IsDuplicateKeyError(err) {
		return cablebill.ErrDuplicateConnectionNumber
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return cablebill.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	res, err := s.customers().DeleteOne(ctx, bson.M{"_id": custID.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return cablebill.ErrCustomerNotFound
	}
	return nil
}

// Payment Store implementation

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.payments().InsertOne(ctx, toPaymentModel(p))
	if mongo.IsDuplicateKeyError(err) {
		return cablebill.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.payments().FindOne(ctx, bson.M{"_id": payID.String()}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, cablebill.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPaymentsByCustomer(ctx context.Context, custID id.CustomerID) ([]*payment.Payment, error) {
	return s.findPayments(ctx, bson.M{"customer_id": custID.String()})
}

func (s *Store) ListPaymentsByArea(ctx context.Context, areaID id.AreaID) ([]*payment.Payment, error) {
	return s.findPayments(ctx, bson.M{"area_id": areaID.String()})
}

func (s *Store) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	return s.findPayments(ctx, bson.M{})
}

func (s *Store) findPayments(ctx context.Context, filter bson.M) ([]*payment.Payment, error) {
	cur, err := s.payments().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]*payment.Payment, 0)
	for cur.Next(ctx) {
		var m paymentModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		p, err := fromPaymentModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, cur.Err()
}

func (s *Store) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	res, err := s.payments().DeleteOne(ctx, bson.M{"_id": payID.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return cablebill.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) DeletePaymentsByCustomer(ctx context.Context, custID id.CustomerID) (int, error) {
	res, err := s.payments().DeleteMany(ctx, bson.M{"customer_id": custID.String()})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// User Store implementation

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.users().InsertOne(ctx, toUserModel(u))
	if mongo.IsDuplicateKeyError(err) {
		return cablebill.ErrDuplicateUser
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	var m userModel
	err := s.users().FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, cablebill.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromUserModel(&m)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	var m userModel
	err := s.users().FindOne(ctx, bson.M{"username": username}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, cablebill.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromUserModel(&m)
}

// Watch implements store.Watcher via MongoDB change streams. Requires a
// replica set deployment.
func (s *Store) Watch(ctx context.Context) (<-chan store.Change, error) {
	cs, err := s.db.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("mongo: change stream: %w", err)
	}

	ch := make(chan store.Change, 64)
	go func() {
		defer close(ch)
		defer cs.Close(context.Background())

		for cs.Next(ctx) {
			var ev struct {
				OperationType string `bson:"operationType"`
				Ns            struct {
					Coll string `bson:"coll"`
				} `bson:"ns"`
				DocumentKey struct {
					ID string `bson:"_id"`
				} `bson:"documentKey"`
				FullDocument bson.M `bson:"fullDocument"`
			}
			if err := cs.Decode(&ev); err != nil {
				continue
			}

			var op store.Op
			switch ev.OperationType {
			case "insert":
				op = store.OpCreate
			case "update", "replace":
				op = store.OpUpdate
			case "delete":
				op = store.OpDelete
			default:
				continue
			}

			select {
			case ch <- store.Change{
				Op:         op,
				Collection: ev.Ns.Coll,
				Doc:        ev.FullDocument,
				ID:         ev.DocumentKey.ID,
			}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Store management

// Migrate creates the indexes the queries rely on.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.customers().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "connection_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "area_id", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", cablebill.ErrMigrationFailed, err)
	}

	_, err = s.payments().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "area_id", Value: 1}}},
		{Keys: bson.D{{Key: "month", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", cablebill.ErrMigrationFailed, err)
	}

	_, err = s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", cablebill.ErrMigrationFailed, err)
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", cablebill.ErrStoreNotReady, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// regexQuote escapes regex metacharacters in a user-supplied search term.
func regexQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
