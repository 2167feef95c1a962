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

package index

import (
	"bytes"

	"github.com/exodb/exodb/data"
	"github.com/google/btree"
)

// Indexer is the abstract key index interface mapping binary keys to values
// If there are other data structures that require integration, implement this interface directly
type Indexer interface {
	// Put stores the value for the key and returns the previous value, if any
	Put(key []byte, value data.Value) data.Value

	// Get fetches the value stored for the key
	Get(key []byte) data.Value

	// Delete removes the entry for the key
	Delete(key []byte) (data.Value, bool)

	// Size defines the size of index
	Size() int

	// Iterator defines an iterator to iterate over the index
	Iterator(reverse bool) Iterator

	// Close closes the index
	Close() error
}

type IndexType = int8

const (
	// Btree indicates btree index
	Btree IndexType = iota + 1

	// ART indicates Adaptive Radix Tree index
	ART
)

// NewIndexer initializes the index according to the data structure type
func NewIndexer(tp IndexType) Indexer {
	switch tp {
	case Btree:
		return NewBTree()
	case ART:
		return NewART()
	default:
		panic("unsupported index type!")
	}
}

// Item defines each item to be inserted into the BTree structure
type Item struct {
	key   []byte
	value data.Value
}

// Less compares the current item with the right-hand side item
// it can be used to determine the order of the item in the BTree
func (i *Item) Less(rhs btree.Item) bool {
	return bytes.Compare(i.key, rhs.(*Item).key) == -1
}

// Iterator defines a generic index iterator
type Iterator interface {
	// Rewind returns to the start (first item) of the iterator
	Rewind()

	// Seek finds the first target key that is greater than (or less than) or equal to the key passed in
	// and starts traversing from this key
	Seek(key []byte)

	// Next jumps to the next key
	Next()

	// Valid checks the validity
	// by checking whether all keys have been traversed, which can be used to exit traversal
	Valid() bool

	// Key returns the current iterating Key data
	Key() []byte

	// Value returns the current iterating Value data
	Value() data.Value

	// Close closes the iterator, freeing the resources
	Close()
}
