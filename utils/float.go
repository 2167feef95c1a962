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

package utils

import (
	"errors"
	"math"
	"strconv"
)

var ErrBadFloat = errors.New("value is not a valid float")

// Float64ToBytes renders a score as decimal text
func Float64ToBytes(value float64) []byte {
	return []byte(strconv.FormatFloat(value, 'f', -1, 64))
}

// FloatFromBytes parses decimal text into a float64, requiring the value to
// be finite (NaN and the infinities are rejected along with garbage input)
func FloatFromBytes(value []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(value), 64)
	if err != nil {
		return 0, ErrBadFloat
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrBadFloat
	}

	return f, nil
}
