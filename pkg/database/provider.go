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

package database

import (
	"context"
	"errors"

	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/retry"
	"github.com/google/wire"
)

// ProviderSet provides database-related dependencies
var ProviderSet = wire.NewSet(ProvideManager)

// ProvideManager connects with retry on infrastructure failures and returns
// a cleanup that closes the pool.
func ProvideManager(ctx context.Context, conf Database, _ *log.Logger) (Manager, func(), error) {
	var m Manager
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		m, err = NewManager(ctx, conf)
		return err
	},
		retry.WithMaxAttempts(5),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, ErrInfrastructure) }),
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := m.Close(); err != nil {
			log.Warnw("close database", "error", err)
		}
	}
	return m, cleanup, nil
}
