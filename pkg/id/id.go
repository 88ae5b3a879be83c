// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package id generates identifiers: random UUIDs for rows and sortable
// xids for maintenance runs.
package id

import (
	"github.com/google/uuid"
	"github.com/rs/xid"
)

// NewUUID returns a random (v4) UUID.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// RunID returns a 20-character, time-sortable id used to correlate the log
// lines and metrics of one maintenance run.
func RunID() string {
	return xid.New().String()
}
