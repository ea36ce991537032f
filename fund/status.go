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

// Status tags the outcome of a computation. Only StatusOK carries data the
// caller should render; every other value explains why the result is empty.
type Status string

const (
	StatusOK                    Status = "ok"
	StatusNoSelection           Status = "no_selection"
	StatusInsufficientData      Status = "insufficient_data"
	StatusNotComputable         Status = "not_computable"
	StatusDegenerateDenominator Status = "degenerate_denominator"
)

// Computed returns true when the status carries a populated result
func (s Status) Computed() bool {
	return s == StatusOK
}
