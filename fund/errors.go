// Copyright 2021-2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fund

import "errors"

var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrDuplicateInstrument = errors.New("duplicate instrument identifier")
	ErrEmptyInstrument     = errors.New("empty instrument identifier")
	ErrDuplicateDate       = errors.New("duplicate trading date")
	ErrNegativePrice       = errors.New("negative price")
	ErrInfinitePrice       = errors.New("infinite price")
	ErrInvalidShares       = errors.New("share count must be a finite non-negative number")
	ErrUnknownColumn       = errors.New("shares column not found")
)
