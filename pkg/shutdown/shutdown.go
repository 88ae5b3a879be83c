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

package shutdown

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/safe"
)

// Manager tracks whether the process is shutting down.
type Manager struct {
	shuttingDown atomic.Bool
	done         chan struct{}
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// Shutdown triggers graceful shutdown. It returns false if shutdown was
// already triggered.
func (m *Manager) Shutdown() bool {
	if !m.shuttingDown.CompareAndSwap(false, true) {
		return false
	}
	close(m.done)
	return true
}

// Done is closed once Shutdown has been called.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Notify triggers Shutdown on SIGINT or SIGTERM. The returned func stops
// listening.
func (m *Manager) Notify() (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})
	safe.Go(func() {
		select {
		case sig := <-sigs:
			log.Infow("signal received, shutting down", "signal", sig.String())
			m.Shutdown()
		case <-quit:
		}
	})
	return func() {
		signal.Stop(sigs)
		close(quit)
	}
}
