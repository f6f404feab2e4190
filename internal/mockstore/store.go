package mockstore

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/checkout"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("mockstore: not found")

// errStopIteration aborts a badger view when a List consumer stops early.
var errStopIteration = errors.New("stop iteration")

// Store is the emulator's persistence layer on top of Badger. Catalog data
// (shop, products, collections, gift cards, discounts, rate tables) is
// replaced wholesale on every fixture load; checkouts and shipping quotes
// accumulate as clients create them and survive reloads.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	products    *bucket[catalog.Product]
	collections *bucket[Collection]
	giftCards   *bucket[GiftCard]
	discounts   *bucket[Discount]
	checkouts   *bucket[checkout.Checkout]
	quotes      *bucket[rateQuote]
	shop        *bucket[ShopMeta]
	rates       *bucket[rateTable]
}

// NewStore opens (or creates) a store at the given path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too noisy
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", path, err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "store"),
	}
	s.products = newBucket[catalog.Product](db, "product:")
	s.collections = newBucket[Collection](db, "collection:")
	s.giftCards = newBucket[GiftCard](db, "giftcard:")
	s.discounts = newBucket[Discount](db, "discount:")
	s.checkouts = newBucket[checkout.Checkout](db, "checkout:")
	s.quotes = newBucket[rateQuote](db, "quote:")
	s.shop = newBucket[ShopMeta](db, "shop:")
	s.rates = newBucket[rateTable](db, "rates:")

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.logger.Debug("Closing store")
	return s.db.Close()
}

// shopMeta returns the loaded shop fixture.
func (s *Store) shopMeta(ctx context.Context) (*ShopMeta, error) {
	return s.shop.Get(ctx, "meta")
}

// rateTable returns the loaded shipping rate table, which may be empty.
func (s *Store) rateTable(ctx context.Context) (rateTable, error) {
	table, err := s.rates.Get(ctx, "table")
	if errors.Is(err, ErrNotFound) {
		return rateTable{}, nil
	}
	if err != nil {
		return nil, err
	}
	return *table, nil
}

// replaceCatalog swaps in a freshly loaded fixture set. Checkouts are left
// alone so in-flight client flows keep working across a reload.
func (s *Store) replaceCatalog(ctx context.Context, fx *Fixtures) error {
	for _, b := range []interface{ clear() error }{
		s.products, s.collections, s.giftCards, s.discounts,
	} {
		if err := b.clear(); err != nil {
			return err
		}
	}

	if err := s.shop.Put(ctx, "meta", &fx.Shop); err != nil {
		return err
	}
	table := fx.Rates
	if table == nil {
		table = rateTable{}
	}
	if err := s.rates.Put(ctx, "table", &table); err != nil {
		return err
	}
	for i := range fx.Products {
		p := &fx.Products[i]
		if err := s.products.Put(ctx, p.ID, p); err != nil {
			return err
		}
	}
	for i := range fx.Collections {
		c := &fx.Collections[i]
		if err := s.collections.Put(ctx, collectionKey(c.ID), c); err != nil {
			return err
		}
	}
	for i := range fx.GiftCards {
		gc := &fx.GiftCards[i]
		if err := s.giftCards.Put(ctx, normalizeCode(gc.Code), gc); err != nil {
			return err
		}
	}
	for i := range fx.Discounts {
		d := &fx.Discounts[i]
		if err := s.discounts.Put(ctx, normalizeCode(d.Code), d); err != nil {
			return err
		}
	}

	s.logger.Info("Catalog loaded",
		"products", len(fx.Products),
		"collections", len(fx.Collections),
		"gift_cards", len(fx.GiftCards),
		"discounts", len(fx.Discounts),
	)
	return nil
}

// bucket provides typed access to one key prefix. Values are stored as JSON.
type bucket[T any] struct {
	db     *badger.DB
	prefix string
}

func newBucket[T any](db *badger.DB, prefix string) *bucket[T] {
	return &bucket[T]{db: db, prefix: prefix}
}

func (b *bucket[T]) key(id string) []byte {
	return []byte(b.prefix + id)
}

// Get retrieves a value by ID. Returns ErrNotFound when the key is absent.
func (b *bucket[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Put stores a value under ID, overwriting any existing value.
func (b *bucket[T]) Put(ctx context.Context, id string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s%s: %w", b.prefix, id, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(id), data)
	})
}

// Delete removes a value by ID. Deleting an absent key is not an error.
func (b *bucket[T]) Delete(ctx context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(id))
	})
}

// List iterates every value under the bucket's prefix in key order. A decode
// failure or storage error is yielded once and ends the sequence.
func (b *bucket[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			it := txn.NewIterator(opts)
			defer it.Close()

			prefix := []byte(b.prefix)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var value T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &value)
				})
				if err != nil {
					return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
				}
				if !yield(&value, nil) {
					return errStopIteration
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) {
			yield(nil, err)
		}
	}
}

// Count returns the number of keys under the bucket's prefix.
func (b *bucket[T]) Count(ctx context.Context) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(b.prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// clear drops every key under the bucket's prefix.
func (b *bucket[T]) clear() error {
	return b.db.DropPrefix([]byte(b.prefix))
}
