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

package data

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedSet_Add(t *testing.T) {
	zs := NewSortedSet()

	added, changed := zs.Add([]byte("member1"), 115)
	assert.True(t, added)
	assert.True(t, changed)

	// updating to a different score is a change but not an addition
	added, changed = zs.Add([]byte("member1"), 514)
	assert.False(t, added)
	assert.True(t, changed)

	// updating to the identical score changes nothing
	added, changed = zs.Add([]byte("member1"), 514)
	assert.False(t, added)
	assert.False(t, changed)

	added, changed = zs.Add([]byte("member2"), 24)
	assert.True(t, added)
	assert.True(t, changed)

	assert.Equal(t, 2, zs.Len())
}

func TestSortedSet_Score(t *testing.T) {
	zs := NewSortedSet()

	zs.Add([]byte("a"), 1.5)
	assert.Equal(t, 1.5, zs.Score([]byte("a")))

	// absent members score zero; Contains disambiguates
	assert.Equal(t, float64(0), zs.Score([]byte("missing")))
	assert.False(t, zs.Contains([]byte("missing")))

	zs.Add([]byte("zero"), 0)
	assert.Equal(t, float64(0), zs.Score([]byte("zero")))
	assert.True(t, zs.Contains([]byte("zero")))
}

func TestSortedSet_ContainsWithScore(t *testing.T) {
	zs := NewSortedSet()

	zs.Add([]byte("a"), 3.25)
	assert.True(t, zs.ContainsWithScore([]byte("a"), 3.25))
	assert.False(t, zs.ContainsWithScore([]byte("a"), 3.5))
	assert.False(t, zs.ContainsWithScore([]byte("b"), 3.25))
}

func TestSortedSet_Range(t *testing.T) {
	zs := NewSortedSet()

	// inserted out of order on purpose
	zs.Add([]byte("c"), 3)
	zs.Add([]byte("a"), 1)
	zs.Add([]byte("b"), 2)

	elements := zs.Range(0, zs.Len())
	assert.Len(t, elements, 3)
	assert.Equal(t, []byte("a"), elements[0].Member)
	assert.Equal(t, []byte("b"), elements[1].Member)
	assert.Equal(t, []byte("c"), elements[2].Member)

	// half-open: [1, 2) yields the middle element only
	middle := zs.Range(1, 2)
	assert.Len(t, middle, 1)
	assert.Equal(t, []byte("b"), middle[0].Member)

	// out-of-range indexes truncate rather than fail
	assert.Len(t, zs.Range(0, 100), 3)
	assert.Len(t, zs.Range(2, 2), 0)
	assert.Len(t, zs.Range(5, 3), 0)
}

func TestSortedSet_RangeTieBreak(t *testing.T) {
	zs := NewSortedSet()

	// equal scores order by member bytes
	zs.Add([]byte("banana"), 7)
	zs.Add([]byte("apple"), 7)
	zs.Add([]byte("cherry"), 7)
	zs.Add([]byte(""), 7) // the empty member is a legal member and sorts first

	elements := zs.Range(0, zs.Len())
	assert.Equal(t, []byte(""), elements[0].Member)
	assert.Equal(t, []byte("apple"), elements[1].Member)
	assert.Equal(t, []byte("banana"), elements[2].Member)
	assert.Equal(t, []byte("cherry"), elements[3].Member)
}

func TestSortedSet_RangeAfterUpdate(t *testing.T) {
	zs := NewSortedSet()

	zs.Add([]byte("a"), 1)
	zs.Add([]byte("b"), 2)
	zs.Add([]byte("c"), 3)

	// moving a to the top must reposition it in the ordered index
	zs.Add([]byte("a"), 10)

	elements := zs.Range(0, zs.Len())
	assert.Len(t, elements, 3)
	assert.Equal(t, []byte("b"), elements[0].Member)
	assert.Equal(t, []byte("c"), elements[1].Member)
	assert.Equal(t, []byte("a"), elements[2].Member)
	assert.Equal(t, float64(10), elements[2].Score)
}

func TestSortedSet_Count(t *testing.T) {
	zs := NewSortedSet()

	zs.Add([]byte("a"), 1)
	zs.Add([]byte("b"), 2)
	zs.Add([]byte("bb"), 2)
	zs.Add([]byte("c"), 3)

	// both boundaries are inclusive
	assert.Equal(t, 4, zs.Count(1, 3))
	assert.Equal(t, 3, zs.Count(1, 2))
	assert.Equal(t, 3, zs.Count(2, 3))
	assert.Equal(t, 2, zs.Count(2, 2))
	assert.Equal(t, 0, zs.Count(4, 10))
	assert.Equal(t, 0, zs.Count(3, 1))
}

func TestSortedSet_Invariants(t *testing.T) {
	zs := NewSortedSet()

	// a pile of adds and score updates over a small member universe
	for i := 0; i < 1000; i++ {
		member := []byte(fmt.Sprintf("member-%03d", i%100))
		zs.Add(member, float64(i%17)-8)
	}

	assert.Equal(t, 100, zs.Len())

	elements := zs.Range(0, zs.Len())
	assert.Len(t, elements, 100)

	seen := make(map[string]bool)
	for i, element := range elements {
		// each member appears exactly once in the ordered index
		assert.False(t, seen[string(element.Member)])
		seen[string(element.Member)] = true

		// the ordered index agrees with the member index
		assert.True(t, zs.ContainsWithScore(element.Member, element.Score))

		// non-decreasing scores, ties broken by ascending member bytes
		if i > 0 {
			previous := elements[i-1]
			if previous.Score == element.Score {
				assert.Less(t, string(previous.Member), string(element.Member))
			} else {
				assert.Less(t, previous.Score, element.Score)
			}
		}
	}
}
