package cache

import (
	"encoding/binary"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

var ErrNotFound = errors.New("not found in cache")

// Table separates the kinds of rendered output sharing one database
type Table byte

const (
	TableHTML Table = iota + 1
	TableText
)

// Key identifies one rendering of a remote document
type Key struct {
	URL      string
	Format   string
	Encoding string
}

// bytes returns the table byte followed by the 128-bit hash of the key
func (k Key) bytes(table Table) []byte {
	h := xxh3.New()
	for _, field := range []string{k.URL, k.Format, k.Encoding} {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(field)))
		h.Write(n[:])
		h.WriteString(field)
	}
	sum := h.Sum128()
	out := make([]byte, 17)
	out[0] = byte(table)
	binary.BigEndian.PutUint64(out[1:9], sum.Hi)
	binary.BigEndian.PutUint64(out[9:], sum.Lo)
	return out
}

// Cache stores rendered pages in BadgerDB with a per-entry TTL
type Cache struct {
	db     *badger.DB
	maxTTL time.Duration
}

// Open opens the cache at dir, or an in-memory cache when dir is empty.
// TTLs passed to Set are capped at maxTTL unless it is zero.
func Open(dir string, maxTTL time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger db")
	}
	return &Cache{db: db, maxTTL: maxTTL}, nil
}

// Get returns the cached value, or ErrNotFound when it is absent or expired
func (c *Cache) Get(table Table, key Key) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.bytes(table))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get")
	}
	return value, nil
}

// Set stores value for ttl. A non-positive ttl stores nothing.
func (c *Cache) Set(table Table, key Key, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if c.maxTTL > 0 && ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key.bytes(table), value).WithTTL(ttl))
	})
	return errors.Wrap(err, "cache set")
}

// Delete removes every table's entry for key
func (c *Cache) Delete(key Key) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		for _, table := range []Table{TableHTML, TableText} {
			if err := txn.Delete(key.bytes(table)); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "cache delete")
}

// Close closes the cache
func (c *Cache) Close() error {
	return c.db.Close()
}
