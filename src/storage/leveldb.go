// MIT License
//
// Copyright (c) 2024 sigstate-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/storage/leveldb.go
package storage

import (
	"fmt"

	"github.com/sigstate-core/go/src/core/hbs/types"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore keeps state blobs in a LevelDB database, one key per
// managed state. The signer service uses it to track many states in
// one place; every write is synced.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database at dir.
func OpenLevelDB(dir string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening leveldb at %s: %v", types.ErrPersistence, dir, err)
	}
	return &LevelDBStore{db: db}, nil
}

// Sink returns a StateSink bound to one key in the store.
func (s *LevelDBStore) Sink(key string) types.StateSink {
	return types.SinkFunc(func(blob []byte) error {
		return s.Put(key, blob)
	})
}

// Put durably stores blob under key.
func (s *LevelDBStore) Put(key string, blob []byte) error {
	wo := &opt.WriteOptions{Sync: true}
	if err := s.db.Put([]byte(key), blob, wo); err != nil {
		return fmt.Errorf("%w: leveldb put %q: %v", types.ErrPersistence, key, err)
	}
	return nil
}

// Get loads the blob stored under key.
func (s *LevelDBStore) Get(key string) ([]byte, error) {
	blob, err := s.db.Get([]byte(key), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: leveldb get %q: %v", types.ErrImport, key, err)
	}
	return blob, nil
}

// Has reports whether key exists.
func (s *LevelDBStore) Has(key string) (bool, error) {
	ok, err := s.db.Has([]byte(key), nil)
	if err != nil {
		return false, fmt.Errorf("%w: leveldb has %q: %v", types.ErrImport, key, err)
	}
	return ok, nil
}

// Close closes the database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
