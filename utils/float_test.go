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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat64ToBytes(t *testing.T) {
	assert.Equal(t, []byte("1"), Float64ToBytes(1))
	assert.Equal(t, []byte("1.5"), Float64ToBytes(1.5))
	assert.Equal(t, []byte("-0.25"), Float64ToBytes(-0.25))
	assert.Equal(t, []byte("0"), Float64ToBytes(0))
}

func TestFloatFromBytes(t *testing.T) {
	f, err := FloatFromBytes([]byte("3.14"))
	assert.Nil(t, err)
	assert.Equal(t, 3.14, f)

	f, err = FloatFromBytes([]byte("-12"))
	assert.Nil(t, err)
	assert.Equal(t, float64(-12), f)

	_, err = FloatFromBytes([]byte("not-a-number"))
	assert.Equal(t, ErrBadFloat, err)

	_, err = FloatFromBytes([]byte(""))
	assert.Equal(t, ErrBadFloat, err)

	// only finite scores are acceptable
	_, err = FloatFromBytes([]byte("NaN"))
	assert.Equal(t, ErrBadFloat, err)

	_, err = FloatFromBytes([]byte("+Inf"))
	assert.Equal(t, ErrBadFloat, err)

	_, err = FloatFromBytes([]byte("-Inf"))
	assert.Equal(t, ErrBadFloat, err)
}
