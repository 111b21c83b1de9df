// Package store persists named expressions in a bbolt database. Every record
// carries the versions of the language and of the function and aggregation
// libraries it was written with.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/razeghi71/dqexpr/aggregations"
	"github.com/razeghi71/dqexpr/engine"
	"github.com/razeghi71/dqexpr/functions"
	bolt "go.etcd.io/bbolt"
)

const (
	Perm        = 0600
	OpenTimeout = 3 * time.Second
)

var bucketName = []byte("expressions")

// ErrNotFound is returned by Get and Delete for unknown names.
var ErrNotFound = errors.New("expression not found")

// Record is the persisted form of an expression.
type Record struct {
	Expression          string    `json:"expression"`
	LanguageVersion     int       `json:"language_version"`
	FunctionsVersion    int       `json:"functions_version"`
	AggregationsVersion int       `json:"aggregations_version"`
	Saved               time.Time `json:"saved"`
}

// NewRecord returns a record of expression stamped with the current versions.
func NewRecord(expression string) Record {
	return Record{
		Expression:          expression,
		LanguageVersion:     engine.LanguageVersion,
		FunctionsVersion:    functions.Version,
		AggregationsVersion: aggregations.Version,
		Saved:               time.Now().UTC(),
	}
}

// check rejects records written by a newer version of the library.
func (r Record) check() error {
	switch {
	case r.LanguageVersion > engine.LanguageVersion:
		return fmt.Errorf("expression uses language version %d, but only %d is supported", r.LanguageVersion, engine.LanguageVersion)
	case r.FunctionsVersion > functions.Version:
		return fmt.Errorf("expression uses functions version %d, but only %d is supported", r.FunctionsVersion, functions.Version)
	case r.AggregationsVersion > aggregations.Version:
		return fmt.Errorf("expression uses aggregations version %d, but only %d is supported", r.AggregationsVersion, aggregations.Version)
	}
	return nil
}

// Store is an open expression database.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path. It fails after OpenTimeout if
// another process holds the file lock.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, Perm, &bolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("cannot open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialise store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores rec under name, replacing an existing record.
func (s *Store) Save(name string, rec Record) error {
	if name == "" {
		return errors.New("expression name must not be empty")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot encode %q: %w", name, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(name), data)
	})
}

// Get returns the record stored under name.
func (s *Store) Get(name string) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return Record{}, err
	}
	if err := rec.check(); err != nil {
		return Record{}, fmt.Errorf("%q: %w", name, err)
	}
	return rec, nil
}

// List returns the stored names in byte order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete removes the record stored under name.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return b.Delete([]byte(name))
	})
}
