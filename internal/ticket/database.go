package ticket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "tickets"

// ErrTicketNotFound is returned by GetTicket when no ticket exists under
// the given name. Callers use errors.Is to tell a missing ticket apart
// from a store failure.
var ErrTicketNotFound = errors.New("ticket not found")

// Store defines the interface for ticket metadata persistence
type Store interface {
	// SaveTicket inserts or replaces a ticket, keyed by its name
	SaveTicket(t *Ticket) error

	// GetTicket retrieves a ticket by name
	GetTicket(name string) (*Ticket, error)

	// ListTickets returns all tickets
	ListTickets() ([]*Ticket, error)

	// DeleteTicket removes a ticket
	DeleteTicket(name string) error

	// Close closes the database connection
	Close() error
}

// BoltStore implements the Store interface using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a new BoltStore instance
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// SaveTicket inserts or replaces a ticket, keyed by its name
func (b *BoltStore) SaveTicket(t *Ticket) error {
	if t.Name == "" {
		return fmt.Errorf("ticket has no name")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling ticket: %w", err)
		}
		return bucket.Put([]byte(t.Name), data)
	})
}

// GetTicket retrieves a ticket by name
func (b *BoltStore) GetTicket(name string) (*Ticket, error) {
	var t *Ticket
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrTicketNotFound, name)
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTickets returns all tickets
func (b *BoltStore) ListTickets() ([]*Ticket, error) {
	tickets := make([]*Ticket, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var t Ticket
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshaling ticket: %w", err)
			}
			tickets = append(tickets, &t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// DeleteTicket removes a ticket
func (b *BoltStore) DeleteTicket(name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.Delete([]byte(name))
	})
}

// Close closes the database connection
func (b *BoltStore) Close() error {
	return b.db.Close()
}
