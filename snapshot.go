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
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/exodb/exodb/data"
	"github.com/exodb/exodb/fileio"
	"github.com/exodb/exodb/index"
)

// Snapshot layout:
//
//	magic "EXODB" (5 bytes)
//	num_keys (uint64 little-endian)
//	per key:
//	    key_len (uint64), key bytes
//	    tag "BSTR" or "ZSET" (4 bytes)
//	    BSTR: value_len (uint64), value bytes
//	    ZSET: n_members (uint64), then per member:
//	          score (IEEE-754 bits, uint64 little-endian),
//	          member_len (uint64), member bytes
//
// All integer widths are fixed at 64-bit little-endian on every platform.
// Expiry times are not persisted; reloaded binary strings never expire.
const (
	snapshotMagic = "EXODB"

	tagBinaryString = "BSTR"
	tagSortedSet    = "ZSET"
)

// Save rewrites the snapshot file with the current dataset.
// Expired keys are swept first so they never reach disk. The target path is
// truncated and rewritten in place; a crash mid-write may leave a partial
// file behind.
func (s *Store) Save() error {
	s.ExpireSweep()

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Create(s.options.SnapshotPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)

	_, _ = w.WriteString(snapshotMagic)
	writeUint64(w, uint64(s.index.Size()))

	iterator := s.index.Iterator(false)
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		key := iterator.Key()
		writeUint64(w, uint64(len(key)))
		_, _ = w.Write(key)

		switch value := iterator.Value().(type) {
		case *data.BinaryString:
			_, _ = w.WriteString(tagBinaryString)
			writeUint64(w, uint64(len(value.Bytes())))
			_, _ = w.Write(value.Bytes())

		case *data.SortedSet:
			_, _ = w.WriteString(tagSortedSet)
			writeUint64(w, uint64(value.Len()))
			for _, element := range value.Range(0, value.Len()) {
				writeUint64(w, math.Float64bits(element.Score))
				writeUint64(w, uint64(len(element.Member)))
				_, _ = w.Write(element.Member)
			}
		}
	}
	iterator.Close()

	// bufio keeps the first error sticky, so checking the flush is enough
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

// Load reads the snapshot file if it exists and replaces the in-memory
// dataset with its contents. Parsing goes through a staging index which is
// swapped in only on full success, so a malformed file leaves the current
// dataset untouched and returns ErrBadSnapshot.
func (s *Store) Load() error {
	if _, err := os.Stat(s.options.SnapshotPath); os.IsNotExist(err) {
		return nil
	}

	ioType := fileio.StandardFileIO
	if s.options.MMapAtStartUp {
		ioType = fileio.MemoryMap
	}

	manager, err := fileio.NewIOManager(s.options.SnapshotPath, ioType)
	if err != nil {
		return err
	}
	defer func() {
		_ = manager.Close()
	}()

	size, err := manager.Size()
	if err != nil {
		return err
	}

	r := &snapshotReader{manager: manager, size: size}

	magic, err := r.readFull(len(snapshotMagic))
	if err != nil || string(magic) != snapshotMagic {
		return fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}

	numKeys, err := r.readUint64()
	if err != nil {
		return fmt.Errorf("%w: truncated key count", ErrBadSnapshot)
	}

	staging := index.NewIndexer(s.options.IndexType)

	for i := uint64(0); i < numKeys; i++ {
		key, err := r.readBlob()
		if err != nil {
			return fmt.Errorf("%w: truncated key", ErrBadSnapshot)
		}

		tag, err := r.readFull(len(tagBinaryString))
		if err != nil {
			return fmt.Errorf("%w: truncated value tag", ErrBadSnapshot)
		}

		switch string(tag) {
		case tagBinaryString:
			payload, err := r.readBlob()
			if err != nil {
				return fmt.Errorf("%w: truncated binary string", ErrBadSnapshot)
			}
			staging.Put(key, data.NewBinaryString(payload))

		case tagSortedSet:
			numMembers, err := r.readUint64()
			if err != nil {
				return fmt.Errorf("%w: truncated member count", ErrBadSnapshot)
			}

			zs := data.NewSortedSet()
			for j := uint64(0); j < numMembers; j++ {
				scoreBits, err := r.readUint64()
				if err != nil {
					return fmt.Errorf("%w: truncated score", ErrBadSnapshot)
				}

				member, err := r.readBlob()
				if err != nil {
					return fmt.Errorf("%w: truncated member", ErrBadSnapshot)
				}

				zs.Add(member, math.Float64frombits(scoreBits))
			}
			staging.Put(key, zs)

		default:
			return fmt.Errorf("%w: unknown value tag %q", ErrBadSnapshot, tag)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.index.Close()
	s.index = staging

	return nil
}

func writeUint64(w *bufio.Writer, v uint64) {
	var buffer [8]byte
	binary.LittleEndian.PutUint64(buffer[:], v)
	_, _ = w.Write(buffer[:])
}

// snapshotReader reads consecutive snapshot fields through an IOManager,
// tracking its own offset so both standard and mmap IO can serve it
type snapshotReader struct {
	manager fileio.IOManager
	size    int64
	offset  int64
}

// readFull reads exactly n bytes, refusing lengths that cannot fit in the
// remainder of the file
func (r *snapshotReader) readFull(n int) ([]byte, error) {
	if n < 0 || int64(n) > r.size-r.offset {
		return nil, fmt.Errorf("field of %d bytes exceeds file size", n)
	}

	buffer := make([]byte, n)
	read, err := r.manager.Read(buffer, r.offset)
	if err != nil {
		return nil, err
	}

	r.offset += int64(read)
	return buffer, nil
}

func (r *snapshotReader) readUint64() (uint64, error) {
	buffer, err := r.readFull(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(buffer), nil
}

// readBlob reads a uint64 length followed by that many bytes
func (r *snapshotReader) readBlob() ([]byte, error) {
	length, err := r.readUint64()
	if err != nil {
		return nil, err
	}

	if length > uint64(r.size-r.offset) {
		return nil, fmt.Errorf("blob of %d bytes exceeds file size", length)
	}

	return r.readFull(int(length))
}
