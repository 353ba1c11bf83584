package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

const healthCheckInterval = 60 * time.Second

// HealthStatus is the snapshot the /health endpoint serves: dependency
// reachability plus the state of the notification pipeline.
type HealthStatus struct {
	Mongo                bool      `json:"mongo"`
	Redis                []bool    `json:"redis"`
	PendingNotifications int64     `json:"pendingNotifications"`
	LastSweepAt          time.Time `json:"lastSweepAt"`
	CheckedAt            time.Time `json:"checkedAt"`
}

var (
	healthMu    sync.RWMutex
	health      HealthStatus
	lastSweepAt time.Time
)

// ReportSweep records that a sweeper pass completed. A LastSweepAt that
// stops advancing means the sweeper goroutine is dead or wedged.
func ReportSweep() {
	healthMu.Lock()
	lastSweepAt = time.Now()
	healthMu.Unlock()
}

// GetHealthStatus returns the latest snapshot. LastSweepAt is read live
// rather than waiting for the next monitor tick.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	s := health
	s.LastSweepAt = lastSweepAt
	return s
}

// StartHealthMonitor pings the dependencies and counts the pending
// notification backlog on a fixed interval. pendingNotifications may be nil
// when no notification store is wired.
func StartHealthMonitor(redisClients []*redis.Client, mongoClient *mongo.Client, pendingNotifications func(context.Context) (int64, error)) {
	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()

		ctx := context.Background()

		for range ticker.C {
			redisHealth := make([]bool, 0, len(redisClients))
			for _, client := range redisClients {
				redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
			}

			var backlog int64
			if pendingNotifications != nil {
				if n, err := pendingNotifications(ctx); err == nil {
					backlog = n
				}
			}

			healthMu.Lock()
			health = HealthStatus{
				Mongo:                mongoClient.Ping(ctx, nil) == nil,
				Redis:                redisHealth,
				PendingNotifications: backlog,
				CheckedAt:            time.Now(),
			}
			healthMu.Unlock()
		}
	}()
}
