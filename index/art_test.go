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
	"testing"

	"github.com/exodb/exodb/data"
	"github.com/stretchr/testify/assert"
)

func TestAdaptiveRadixTree_Put(t *testing.T) {
	art := NewART()

	result1 := art.Put([]byte("key-1"), data.NewBinaryString([]byte("one")))
	assert.Nil(t, result1)

	result2 := art.Put([]byte("key-2"), data.NewBinaryString([]byte("two")))
	assert.Nil(t, result2)

	// Put the same key
	result3 := art.Put([]byte("key-1"), data.NewBinaryString([]byte("three")))
	assert.Equal(t, []byte("one"), result3.(*data.BinaryString).Bytes())

	assert.Equal(t, 2, art.Size())
}

func TestAdaptiveRadixTree_Get(t *testing.T) {
	art := NewART()

	art.Put([]byte("key-1"), data.NewBinaryString([]byte("one")))

	value := art.Get([]byte("key-1"))
	assert.Equal(t, []byte("one"), value.(*data.BinaryString).Bytes())

	assert.Nil(t, art.Get([]byte("missing")))
}

func TestAdaptiveRadixTree_Delete(t *testing.T) {
	art := NewART()

	art.Put([]byte("key-1"), data.NewSortedSet())

	value, ok := art.Delete([]byte("key-1"))
	assert.True(t, ok)
	assert.NotNil(t, value)

	_, ok = art.Delete([]byte("missing"))
	assert.False(t, ok)

	assert.Equal(t, 0, art.Size())
}

func TestAdaptiveRadixTree_Iterator(t *testing.T) {
	art := NewART()

	art.Put([]byte("ccde"), data.NewBinaryString([]byte("v1")))
	art.Put([]byte("acee"), data.NewBinaryString([]byte("v2")))
	art.Put([]byte("bbcd"), data.NewBinaryString([]byte("v3")))

	iterator := art.Iterator(false)
	var keys []string
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		assert.NotNil(t, iterator.Value())
		keys = append(keys, string(iterator.Key()))
	}
	iterator.Close()
	assert.Equal(t, []string{"acee", "bbcd", "ccde"}, keys)

	reverse := art.Iterator(true)
	keys = keys[:0]
	for reverse.Rewind(); reverse.Valid(); reverse.Next() {
		keys = append(keys, string(reverse.Key()))
	}
	reverse.Close()
	assert.Equal(t, []string{"ccde", "bbcd", "acee"}, keys)
}
