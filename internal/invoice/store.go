package invoice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const invoiceBucket = "invoices"

// HistoryEntry wraps a processed record for persistence. The record itself
// keeps the exact wire shape; ID and timestamps live on the envelope.
type HistoryEntry struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	MethodsUsed map[string]bool `json:"methods_used"`
	Record      Record          `json:"record"`
}

// Store persists processed invoices in a local bbolt database so results can
// be audited after the fact.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (or creates) the database file and its bucket.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening invoice db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(invoiceBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating invoice bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Save writes an entry, assigning an ID and creation time if missing.
func (s *Store) Save(entry *HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling invoice entry: %w", err)
		}
		return tx.Bucket([]byte(invoiceBucket)).Put([]byte(entry.ID), data)
	})
}

// Get retrieves one entry by ID.
func (s *Store) Get(id string) (*HistoryEntry, error) {
	var entry *HistoryEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(invoiceBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("invoice not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns all stored entries.
func (s *Store) List() ([]*HistoryEntry, error) {
	entries := make([]*HistoryEntry, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(invoiceBucket)).ForEach(func(k, v []byte) error {
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling invoice entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
