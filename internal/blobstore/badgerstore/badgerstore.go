// Package badgerstore keeps blobs in an embedded Badger database.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"

	"ragqa/internal/blobstore"
	"ragqa/internal/log"
)

const keyPrefix = "blob:"

// Store is a blobstore.Store backed by Badger.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a Badger database in dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("badger store requires a directory")
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %q: %w", key, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("blob key is required")
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to put blob %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// logger routes badger's printf-style output to the process logger.
// Badger's info chatter is demoted to verbosity 1.
type logger struct {
	l logr.Logger
}

func newLogger() *logger {
	return &logger{l: log.WithName("badger")}
}

func (b *logger) Errorf(format string, args ...interface{}) {
	b.l.Error(nil, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *logger) Warningf(format string, args ...interface{}) {
	b.l.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *logger) Infof(format string, args ...interface{}) {
	b.l.V(1).Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *logger) Debugf(format string, args ...interface{}) {
	b.l.V(2).Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
