package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentcore/internal/domain/booking"
	domainlisting "rentcore/internal/domain/listing"
	domainpricing "rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

// ErrConcurrentUpdate aliases the domain sentinel so both persistence
// backends surface lost version races the same way.
var ErrConcurrentUpdate = domainbooking.ErrConcurrentUpdate

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

// EnsureIndexes creates the indexes the list queries rely on.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts the booking, bumping its version; a stale version loses.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"renter_id": renterID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":     string(domainbooking.StatusPendingApproval),
		"created_at": bson.M{"$lt": cutoff.UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func decodeBookings(ctx context.Context, cur *mongo.Cursor) ([]*domainbooking.Booking, error) {
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type priceDocument struct {
	Units       int           `bson:"units"`
	Quantity    int           `bson:"quantity"`
	Rate        moneyDocument `bson:"rate"`
	Subtotal    moneyDocument `bson:"subtotal"`
	Discount    moneyDocument `bson:"discount"`
	PlatformFee moneyDocument `bson:"platform_fee"`
	Deposit     moneyDocument `bson:"deposit"`
	Total       moneyDocument `bson:"total"`
}

type historyDocument struct {
	Status    string `bson:"status"`
	ActorID   string `bson:"actor_id"`
	ActorRole string `bson:"actor_role"`
	At        int64  `bson:"at"`
	Reason    string `bson:"reason,omitempty"`
}

type termsDocument struct {
	Policy         string `bson:"policy"`
	FreeWindowMS   int64  `bson:"free_window_ms"`
	PenaltyPercent int    `bson:"penalty_percent"`
}

type bookingDocument struct {
	ID        string            `bson:"_id"`
	ListingID string            `bson:"listing_id"`
	HostID    string            `bson:"host_id"`
	RenterID  string            `bson:"renter_id"`
	Start     int64             `bson:"start"`
	End       int64             `bson:"end"`
	Quantity  int               `bson:"quantity"`
	Price     priceDocument     `bson:"price"`
	Status    string            `bson:"status"`
	Terms     termsDocument     `bson:"terms"`
	History   []historyDocument `bson:"history"`
	CreatedAt int64             `bson:"created_at"`
	UpdatedAt int64             `bson:"updated_at"`
	Version   int64             `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	history := make([]historyDocument, 0, len(b.History))
	for _, entry := range b.History {
		history = append(history, historyDocument{
			Status:    string(entry.Status),
			ActorID:   entry.Actor.ID,
			ActorRole: string(entry.Actor.Role),
			At:        entry.At.UnixMilli(),
			Reason:    entry.Reason,
		})
	}
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		HostID:    string(b.HostID),
		RenterID:  b.RenterID,
		Start:     b.Interval.Start.UnixMilli(),
		End:       b.Interval.End.UnixMilli(),
		Quantity:  b.Quantity,
		Price: priceDocument{
			Units:       b.Price.Units,
			Quantity:    b.Price.Quantity,
			Rate:        toMoneyDocument(b.Price.Rate),
			Subtotal:    toMoneyDocument(b.Price.Subtotal),
			Discount:    toMoneyDocument(b.Price.Discount),
			PlatformFee: toMoneyDocument(b.Price.PlatformFee),
			Deposit:     toMoneyDocument(b.Price.Deposit),
			Total:       toMoneyDocument(b.Price.Total),
		},
		Status: string(b.Status),
		Terms: termsDocument{
			Policy:         string(b.Terms.Policy),
			FreeWindowMS:   b.Terms.FreeWindow.Milliseconds(),
			PenaltyPercent: b.Terms.PenaltyPercent,
		},
		History:   history,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	history := make([]domainbooking.HistoryEntry, 0, len(d.History))
	for _, entry := range d.History {
		history = append(history, domainbooking.HistoryEntry{
			Status: domainbooking.Status(entry.Status),
			Actor: domainbooking.Actor{
				ID:   entry.ActorID,
				Role: domainbooking.Role(entry.ActorRole),
			},
			At:     timestampToTime(entry.At),
			Reason: entry.Reason,
		})
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: domainlisting.ListingID(d.ListingID),
		HostID:    domainlisting.HostID(d.HostID),
		RenterID:  d.RenterID,
		Interval:  interval.Interval{Start: timestampToTime(d.Start), End: timestampToTime(d.End)},
		Quantity:  d.Quantity,
		Price: domainpricing.Breakdown{
			Units:       d.Price.Units,
			Quantity:    d.Price.Quantity,
			Rate:        d.Price.Rate.toMoney(),
			Subtotal:    d.Price.Subtotal.toMoney(),
			Discount:    d.Price.Discount.toMoney(),
			PlatformFee: d.Price.PlatformFee.toMoney(),
			Deposit:     d.Price.Deposit.toMoney(),
			Total:       d.Price.Total.toMoney(),
		},
		Status: domainbooking.Status(d.Status),
		Terms: domainbooking.CancellationTerms{
			Policy:         domainlisting.CancellationPolicy(d.Terms.Policy),
			FreeWindow:     time.Duration(d.Terms.FreeWindowMS) * time.Millisecond,
			PenaltyPercent: d.Terms.PenaltyPercent,
		},
		History:   history,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
