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

type Options struct {
	// SnapshotPath is the path to the snapshot file
	SnapshotPath string

	// IndexType defines the type for the key index
	IndexType IndexerType

	// MMapAtStartUp indicates whether to use mmap to load the snapshot file at startup
	MMapAtStartUp bool
}

type IndexerType = int8

const (
	// BTree indicates btree index
	BTree IndexerType = iota + 1

	// ART indicates Adaptive Radix Tree index
	ART
)

var DefaultOptions = Options{
	SnapshotPath:  "exodb.db",
	IndexType:     BTree,
	MMapAtStartUp: false,
}
