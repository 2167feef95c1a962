/*
 * Copyright (c) 2024. Shuojiang Liu.
 * Licensed under the MIT License (the "License");
 * you may not use this file except in compliance with the License.
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package exodb

import (
	"errors"
	"sync"

	"github.com/exodb/exodb/data"
	"github.com/exodb/exodb/index"
	"github.com/gofrs/flock"
)

const fileLockSuffix = ".lock"

// Store defines a typed key-value store instance. Keys are arbitrary byte
// sequences; every key maps to either a binary string or a sorted set.
// Binary strings may carry an absolute expiry and are evicted lazily on
// access as well as by ExpireSweep.
type Store struct {
	// options defines the user defined configurations
	options Options

	// mu defines the mutex for the store
	mu *sync.RWMutex

	// index defines the in-memory key index
	index index.Indexer

	// fileLock is a file lock that ensures mutual exclusion between multiple processes
	// refer to [https://github.com/gofrs/flock]
	fileLock *flock.Flock
}

// Open opens an ExoDB store instance.
//
// The snapshot file itself is not read here; call Load afterwards so that a
// malformed snapshot can be reported without preventing startup.
func Open(options Options) (*Store, error) {
	if options.SnapshotPath == "" {
		return nil, errors.New("store snapshot path is empty")
	}

	// determine whether the snapshot path is in use by another process
	fileLock := flock.New(options.SnapshotPath + fileLockSuffix)
	hold, err := fileLock.TryLock()
	if err != nil {
		return nil, err
	}
	if !hold {
		return nil, ErrDatabaseIsUsing
	}

	return &Store{
		options:  options,
		mu:       new(sync.RWMutex),
		index:    index.NewIndexer(options.IndexType),
		fileLock: fileLock,
	}, nil
}

// Close releases the file lock and the index. It does not save; persistence
// on shutdown is the caller's call to Save.
func (s *Store) Close() error {
	if err := s.fileLock.Unlock(); err != nil {
		return err
	}

	return s.index.Close()
}

// KeyExists reports whether the key is present. A binary string whose expiry
// has passed is removed by the probe and reported as absent.
func (s *Store) KeyExists(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.index.Get(key)
	if value == nil {
		return false
	}

	return !s.expireIfNeeded(key, value)
}

// GetBinaryString returns the binary string stored at key.
// It returns ErrKeyNotFound when the key is absent or just expired, and
// ErrWrongType when the key holds a sorted set.
func (s *Store) GetBinaryString(key []byte) (*data.BinaryString, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.index.Get(key)
	if value == nil || s.expireIfNeeded(key, value) {
		return nil, ErrKeyNotFound
	}

	bs, ok := value.(*data.BinaryString)
	if !ok {
		return nil, ErrWrongType
	}

	return bs, nil
}

// GetSortedSet returns the sorted set stored at key.
// It returns ErrKeyNotFound when the key is absent and ErrWrongType when the
// key holds a binary string.
func (s *Store) GetSortedSet(key []byte) (*data.SortedSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.index.Get(key)
	if value == nil || s.expireIfNeeded(key, value) {
		return nil, ErrKeyNotFound
	}

	zs, ok := value.(*data.SortedSet)
	if !ok {
		return nil, ErrWrongType
	}

	return zs, nil
}

// Put unconditionally replaces the value stored at key
func (s *Store) Put(key []byte, value data.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Put(key, value)
}

// Delete removes the entry for key, reporting whether one existed
func (s *Store) Delete(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.index.Delete(key)
	return ok
}

// Size returns the number of keys, counting not-yet-swept expired entries
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index.Size()
}

// Stat stores dataset statistics
type Stat struct {
	// KeyNum is the number of keys in the store
	KeyNum int
	// BinaryStringNum is the number of binary string values
	BinaryStringNum int
	// SortedSetNum is the number of sorted set values
	SortedSetNum int
}

// Stat gets the statistics of the store
func (s *Store) Stat() *Stat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stat := &Stat{KeyNum: s.index.Size()}

	iterator := s.index.Iterator(false)
	defer iterator.Close()

	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		if _, ok := iterator.Value().(*data.BinaryString); ok {
			stat.BinaryStringNum++
		} else {
			stat.SortedSetNum++
		}
	}

	return stat
}

// Fold obtains all entries and performs the operations specified by the user
// the traversal is terminated when the function returns false
func (s *Store) Fold(fn func(key []byte, value data.Value) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iterator := s.index.Iterator(false)
	defer iterator.Close() // remember to close the iterator

	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		if !fn(iterator.Key(), iterator.Value()) {
			break
		}
	}
}

// ExpireSweep removes every binary string whose expiry has passed and
// returns the number of evicted keys
func (s *Store) ExpireSweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired [][]byte

	iterator := s.index.Iterator(false)
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		if bs, ok := iterator.Value().(*data.BinaryString); ok && bs.Expired() {
			expired = append(expired, iterator.Key())
		}
	}
	iterator.Close()

	for _, key := range expired {
		s.index.Delete(key)
	}

	return len(expired)
}

// expireIfNeeded evicts the value when it is an expired binary string,
// reporting whether it did. Must hold the mutex lock before accessing this
// method.
func (s *Store) expireIfNeeded(key []byte, value data.Value) bool {
	bs, ok := value.(*data.BinaryString)
	if !ok || !bs.Expired() {
		return false
	}

	s.index.Delete(key)
	return true
}
