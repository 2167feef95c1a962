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

import "github.com/google/btree"

// SortedSet is an ordered multiset of (score, member) pairs in which every
// member appears at most once. It maintains two coordinated indexes:
//
//	members: member => *setItem, for O(1) expected membership and score lookup
//	tree:    *setItem ordered by (score asc, member asc), for range queries
//
// it mainly encapsulates Google's btree library: [https://github.com/google/btree]
//
// Both indexes hold the same *setItem, so the member bytes live in exactly
// one place and a score update never copies them.
type SortedSet struct {
	members map[string]*setItem
	tree    *btree.BTree
}

// Element is one (score, member) pair yielded by a range query
type Element struct {
	Member []byte
	Score  float64
}

// setItem defines each item to be inserted into the BTree structure
//
// low and top mark the sentinel probes used by Count: at equal score, a low
// item sorts strictly before every real member and a top item strictly after
type setItem struct {
	score  float64
	member string
	low    bool
	top    bool
}

// Less compares the current item with the right-hand side item.
// Items are ordered by score first and then by lexicographic byte order of
// the members.
func (it *setItem) Less(rhs btree.Item) bool {
	other := rhs.(*setItem)

	if it.score != other.score {
		return it.score < other.score
	}

	// equal scores: sentinels first, then member bytes
	if it.low {
		return !other.low
	}
	if other.low {
		return false
	}
	if it.top {
		return false
	}
	if other.top {
		return true
	}

	return it.member < other.member
}

// NewSortedSet creates an empty sorted set
func NewSortedSet() *SortedSet {
	return &SortedSet{
		members: make(map[string]*setItem),
		tree:    btree.New(32),
	}
}

// Contains reports whether member is present, regardless of its score
func (zs *SortedSet) Contains(member []byte) bool {
	_, ok := zs.members[string(member)]
	return ok
}

// ContainsWithScore reports whether member is present with exactly the given
// score (IEEE-754 equality, so a NaN score never matches)
func (zs *SortedSet) ContainsWithScore(member []byte, score float64) bool {
	it, ok := zs.members[string(member)]
	return ok && it.score == score
}

// Score returns the score stored for member, or 0 when the member is absent.
// The absent case is indistinguishable from a stored zero here; combine with
// Contains when the difference matters.
func (zs *SortedSet) Score(member []byte) float64 {
	it, ok := zs.members[string(member)]
	if !ok {
		return 0
	}

	return it.score
}

// Len returns the number of members
func (zs *SortedSet) Len() int {
	return len(zs.members)
}

// Add inserts member with the given score, or updates the score if the member
// already exists. It returns whether the member was newly added and whether
// anything changed at all (an update to the identical score changes nothing).
func (zs *SortedSet) Add(member []byte, score float64) (added bool, changed bool) {
	if it, ok := zs.members[string(member)]; ok {
		if it.score == score {
			return false, false
		}

		// reposition the existing item in the ordered index;
		// the member bytes stay where they are
		zs.tree.Delete(it)
		it.score = score
		zs.tree.ReplaceOrInsert(it)

		return false, true
	}

	// the single owned copy of the member bytes, shared by both indexes
	owned := string(member)
	it := &setItem{score: score, member: owned}
	zs.members[owned] = it
	zs.tree.ReplaceOrInsert(it)

	return true, true
}

// Count returns the number of members with min <= score <= max
func (zs *SortedSet) Count(min, max float64) int {
	lower := &setItem{score: min, low: true}
	upper := &setItem{score: max, top: true}

	var n int
	zs.tree.AscendRange(lower, upper, func(btree.Item) bool {
		n++
		return true
	})

	return n
}

// Range returns the elements at positional indexes [start, end) in
// (score, member) order. Indexes outside [0, Len()] are tolerated and
// simply truncate the result.
func (zs *SortedSet) Range(start, end int) []Element {
	if start < 0 {
		start = 0
	}
	if end > zs.tree.Len() {
		end = zs.tree.Len()
	}
	if start >= end {
		return nil
	}

	elements := make([]Element, 0, end-start)

	var idx int
	zs.tree.Ascend(func(i btree.Item) bool {
		if idx >= end {
			return false
		}

		if idx >= start {
			it := i.(*setItem)
			elements = append(elements, Element{
				Member: []byte(it.member),
				Score:  it.score,
			})
		}

		idx++
		return true
	})

	return elements
}

func (zs *SortedSet) valueKind() {}
