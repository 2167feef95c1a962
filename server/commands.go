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

package server

import (
	"errors"
	"strconv"

	"github.com/exodb/exodb"
	"github.com/exodb/exodb/data"
	"github.com/exodb/exodb/utils"
	"go.uber.org/zap"
)

type cmdHandler func(s *Session, args [][]byte)

var supportedCommands = map[string]cmdHandler{
	"GET":    getCommand,
	"SET":    setCommand,
	"GETBIT": getBitCommand,
	"SETBIT": setBitCommand,
	"ZADD":   zaddCommand,
	"ZCARD":  zcardCommand,
	"ZCOUNT": zcountCommand,
	"ZRANGE": zrangeCommand,
	"SAVE":   saveCommand,
}

func getCommand(s *Session, args [][]byte) {
	if len(args) != 1 {
		s.errorIncorrectArgs("GET")
		return
	}

	bs, err := s.store.GetBinaryString(args[0])
	switch {
	case errors.Is(err, exodb.ErrKeyNotFound):
		s.writeNullBulk()
	case errors.Is(err, exodb.ErrWrongType):
		s.errorIncorrectType()
	default:
		s.writeBulk(bs.Bytes())
	}
}

func setCommand(s *Session, args [][]byte) {
	if len(args) < 2 || len(args) > 5 {
		s.errorIncorrectArgs("SET")
		return
	}

	key, value := args[0], args[1]

	var exSet, pxSet, nxSet, xxSet bool
	var ttlMS int64

	for i := 2; i < len(args); i++ {
		switch string(args[i]) {
		case "EX":
			if exSet || pxSet || i == len(args)-1 {
				s.errorSyntax()
				return
			}
			i++
			seconds, err := parsePositiveInt(args[i])
			if err != nil {
				s.errorSyntax()
				return
			}
			ttlMS = seconds * 1000
			exSet = true

		case "PX":
			if pxSet || exSet || i == len(args)-1 {
				s.errorSyntax()
				return
			}
			i++
			milliseconds, err := parsePositiveInt(args[i])
			if err != nil {
				s.errorSyntax()
				return
			}
			ttlMS = milliseconds
			pxSet = true

		case "NX":
			if nxSet || xxSet {
				s.errorSyntax()
				return
			}
			nxSet = true

		case "XX":
			if xxSet || nxSet {
				s.errorSyntax()
				return
			}
			xxSet = true

		default:
			s.errorSyntax()
			return
		}
	}

	exists := s.store.KeyExists(key)
	if (exists && nxSet) || (!exists && xxSet) {
		s.writeNullBulk()
		return
	}

	if exSet || pxSet {
		s.store.Put(key, data.NewBinaryStringTTL(value, ttlMS))
	} else {
		s.store.Put(key, data.NewBinaryString(value))
	}

	s.writeSimple("OK")
}

func getBitCommand(s *Session, args [][]byte) {
	if len(args) != 2 {
		s.errorIncorrectArgs("GETBIT")
		return
	}

	offset, err := parseNonNegativeInt(args[1])
	if err != nil {
		s.errorSyntax()
		return
	}

	bs, err := s.store.GetBinaryString(args[0])
	switch {
	case errors.Is(err, exodb.ErrKeyNotFound):
		s.writeInt(0)
		return
	case errors.Is(err, exodb.ErrWrongType):
		s.errorIncorrectType()
		return
	}

	payload := bs.Bytes()
	byteIndex := offset / 8
	if byteIndex >= int64(len(payload)) {
		s.writeInt(0)
		return
	}

	// bits are numbered MSB first within each byte
	s.writeInt(int64(payload[byteIndex] >> (7 - offset%8) & 1))
}

func setBitCommand(s *Session, args [][]byte) {
	if len(args) != 3 {
		s.errorIncorrectArgs("SETBIT")
		return
	}

	offset, err := parseNonNegativeInt(args[1])
	if err != nil {
		s.errorSyntax()
		return
	}

	bit, err := parseNonNegativeInt(args[2])
	if err != nil || bit > 1 {
		s.errorSyntax()
		return
	}

	bs, err := s.store.GetBinaryString(args[0])
	if errors.Is(err, exodb.ErrWrongType) {
		s.errorIncorrectType()
		return
	}
	if errors.Is(err, exodb.ErrKeyNotFound) {
		bs = data.NewBinaryString(nil)
		s.store.Put(args[0], bs)
	}

	payload := bs.Bytes()
	byteIndex := offset / 8
	if byteIndex >= int64(len(payload)) {
		grown := make([]byte, byteIndex+1)
		copy(grown, payload)
		payload = grown
	}

	mask := byte(1) << (7 - offset%8)
	previous := payload[byteIndex] & mask >> (7 - offset%8)

	if bit == 1 {
		payload[byteIndex] |= mask
	} else {
		payload[byteIndex] &^= mask
	}
	bs.SetBytes(payload)

	s.writeInt(int64(previous))
}

func zaddCommand(s *Session, args [][]byte) {
	if len(args) < 3 {
		s.errorIncorrectArgs("ZADD")
		return
	}

	key := args[0]
	scoreToken, member := args[len(args)-2], args[len(args)-1]

	var nxSet, xxSet, chSet, incrSet bool
	for _, flag := range args[1 : len(args)-2] {
		switch string(flag) {
		case "NX":
			if nxSet || xxSet {
				s.errorSyntax()
				return
			}
			nxSet = true
		case "XX":
			if xxSet || nxSet {
				s.errorSyntax()
				return
			}
			xxSet = true
		case "CH":
			if chSet {
				s.errorSyntax()
				return
			}
			chSet = true
		case "INCR":
			if incrSet {
				s.errorSyntax()
				return
			}
			incrSet = true
		default:
			s.errorSyntax()
			return
		}
	}

	score, err := utils.FloatFromBytes(scoreToken)
	if err != nil {
		s.errorSyntax()
		return
	}

	zs, err := s.store.GetSortedSet(key)
	if errors.Is(err, exodb.ErrWrongType) {
		s.errorIncorrectType()
		return
	}
	if errors.Is(err, exodb.ErrKeyNotFound) {
		if xxSet {
			if incrSet {
				s.writeNullBulk()
			} else {
				s.writeInt(0)
			}
			return
		}

		zs = data.NewSortedSet()
		s.store.Put(key, zs)
	}

	if incrSet {
		// the guards reply null instead of aborting the whole command
		if (nxSet && zs.Contains(member)) || (xxSet && !zs.Contains(member)) {
			s.writeNullBulk()
			return
		}

		newScore := zs.Score(member) + score
		zs.Add(member, newScore)
		s.writeBulk(utils.Float64ToBytes(newScore))
		return
	}

	if (nxSet && zs.Contains(member)) || (xxSet && !zs.Contains(member)) {
		s.writeInt(0)
		return
	}

	added, changed := zs.Add(member, score)
	if added || (chSet && changed) {
		s.writeInt(1)
	} else {
		s.writeInt(0)
	}
}

func zcardCommand(s *Session, args [][]byte) {
	if len(args) != 1 {
		s.errorIncorrectArgs("ZCARD")
		return
	}

	zs, err := s.store.GetSortedSet(args[0])
	switch {
	case errors.Is(err, exodb.ErrKeyNotFound):
		s.writeInt(0)
	case errors.Is(err, exodb.ErrWrongType):
		s.errorIncorrectType()
	default:
		s.writeInt(int64(zs.Len()))
	}
}

func zcountCommand(s *Session, args [][]byte) {
	if len(args) != 3 {
		s.errorIncorrectArgs("ZCOUNT")
		return
	}

	min, err := utils.FloatFromBytes(args[1])
	if err != nil {
		s.errorSyntax()
		return
	}

	max, err := utils.FloatFromBytes(args[2])
	if err != nil {
		s.errorSyntax()
		return
	}

	zs, err := s.store.GetSortedSet(args[0])
	switch {
	case errors.Is(err, exodb.ErrKeyNotFound):
		s.writeInt(0)
	case errors.Is(err, exodb.ErrWrongType):
		s.errorIncorrectType()
	default:
		s.writeInt(int64(zs.Count(min, max)))
	}
}

func zrangeCommand(s *Session, args [][]byte) {
	if len(args) != 3 && len(args) != 4 {
		s.errorIncorrectArgs("ZRANGE")
		return
	}

	withScores := false
	if len(args) == 4 {
		if string(args[3]) != "WITHSCORES" {
			s.errorSyntax()
			return
		}
		withScores = true
	}

	start, err := parseInt(args[1])
	if err != nil {
		s.errorSyntax()
		return
	}

	stop, err := parseInt(args[2])
	if err != nil {
		s.errorSyntax()
		return
	}

	zs, err := s.store.GetSortedSet(args[0])
	if errors.Is(err, exodb.ErrWrongType) {
		s.errorIncorrectType()
		return
	}
	if errors.Is(err, exodb.ErrKeyNotFound) || zs.Len() == 0 {
		s.writeArrayHeader(0)
		return
	}

	size := int64(zs.Len())

	// negative indexes wrap from the end, then both clamp into the set
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	start = clamp(start, 0, size-1)
	stop = clamp(stop, 0, size-1)

	if start > stop {
		s.writeArrayHeader(0)
		return
	}

	elements := zs.Range(int(start), int(stop)+1)

	if withScores {
		s.writeArrayHeader(2 * len(elements))
	} else {
		s.writeArrayHeader(len(elements))
	}

	for _, element := range elements {
		s.writeBulk(element.Member)
		if withScores {
			s.writeBulk(utils.Float64ToBytes(element.Score))
		}
	}
}

func saveCommand(s *Session, args [][]byte) {
	if len(args) != 0 {
		s.errorIncorrectArgs("SAVE")
		return
	}

	// best effort: a failed write is logged, not surfaced to the client
	if err := s.store.Save(); err != nil {
		s.log.Error("snapshot save failed", zap.Error(err))
	}

	s.writeSimple("OK")
}

func parseInt(b []byte) (int64, error) {
	return strconv.ParseInt(string(b), 10, 64)
}

func parseNonNegativeInt(b []byte) (int64, error) {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || v < 0 {
		return 0, strconv.ErrSyntax
	}

	return v, nil
}

func parsePositiveInt(b []byte) (int64, error) {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || v <= 0 {
		return 0, strconv.ErrSyntax
	}

	return v, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
