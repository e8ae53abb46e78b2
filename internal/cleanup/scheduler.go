// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package cleanup

import (
	"context"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// DefaultInterval is the time between pruning passes
const DefaultInterval = 5 * time.Minute

// Pruner drops entries that expired before now and reports how many it removed
type Pruner interface {
	Prune(now time.Time) int
}

// Scheduler runs a Pruner on a fixed interval.
type Scheduler struct {
	pruner   Pruner
	interval time.Duration
	now      func() time.Time
}

// NewScheduler creates a new cleanup scheduler with the specified interval.
func NewScheduler(pruner Pruner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		pruner:   pruner,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the cleanup scheduler, running periodically until the context is canceled.
// It returns nil on graceful shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

// cleanup performs a single pruning pass
func (s *Scheduler) cleanup(ctx context.Context) int {
	removed := s.pruner.Prune(s.now())
	if removed > 0 {
		log.FromContext(ctx).V(1).Info("Pruned expired entries", "count", removed)
	}
	return removed
}
