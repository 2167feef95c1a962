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

import "errors"

var (
	ErrKeyNotFound     = errors.New("key is not found in the store")
	ErrWrongType       = errors.New("value is of the wrong type")
	ErrBadSnapshot     = errors.New("snapshot file is malformed")
	ErrDatabaseIsUsing = errors.New("snapshot file is being used by another process")
)
