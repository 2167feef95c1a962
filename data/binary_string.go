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

import "time"

// BinaryString is a binary-safe byte value with an optional absolute expiry.
// A zero expiry means the value never expires.
type BinaryString struct {
	bytes  []byte
	expiry time.Time
}

// NewBinaryString creates a binary string without an expiry time
func NewBinaryString(b []byte) *BinaryString {
	return &BinaryString{bytes: b}
}

// NewBinaryStringTTL creates a binary string expiring ttlMS milliseconds from now
//
// validation of the TTL (it must be strictly positive) belongs to the caller
func NewBinaryStringTTL(b []byte, ttlMS int64) *BinaryString {
	return &BinaryString{
		bytes:  b,
		expiry: time.Now().Add(time.Duration(ttlMS) * time.Millisecond),
	}
}

// Bytes returns the payload without copying
func (bs *BinaryString) Bytes() []byte {
	return bs.bytes
}

// SetBytes replaces the payload, keeping the expiry untouched
func (bs *BinaryString) SetBytes(b []byte) {
	bs.bytes = b
}

// Expired reports whether the expiry is set and lies strictly before the
// current wall-clock instant
func (bs *BinaryString) Expired() bool {
	if bs.expiry.IsZero() {
		return false
	}

	return bs.expiry.Before(time.Now())
}

func (bs *BinaryString) valueKind() {}
