package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type poolMetric struct {
	desc *prometheus.Desc
	kind prometheus.ValueType
}

// PoolStatsCollector exports connection pool statistics. read returns one
// value per metric, in order, from a single stats snapshot.
type PoolStatsCollector struct {
	service string
	metrics []poolMetric
	read    func() []float64
}

func newPoolMetric(name, help string, kind prometheus.ValueType) poolMetric {
	return poolMetric{
		desc: prometheus.NewDesc(name, help, []string{"service"}, nil),
		kind: kind,
	}
}

// NewPgxPoolCollector exports pgxpool statistics under db_pool_*.
func NewPgxPoolCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	return &PoolStatsCollector{
		service: service,
		metrics: []poolMetric{
			newPoolMetric("db_pool_acquired_connections", "Number of currently acquired connections", prometheus.GaugeValue),
			newPoolMetric("db_pool_idle_connections", "Number of currently idle connections", prometheus.GaugeValue),
			newPoolMetric("db_pool_total_connections", "Total number of connections in the pool", prometheus.GaugeValue),
			newPoolMetric("db_pool_max_connections", "Maximum number of connections allowed", prometheus.GaugeValue),
			newPoolMetric("db_pool_acquire_count_total", "Total number of connection acquires", prometheus.CounterValue),
			newPoolMetric("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections", prometheus.CounterValue),
			newPoolMetric("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection", prometheus.CounterValue),
			newPoolMetric("db_pool_canceled_acquire_count_total", "Acquires canceled by the caller", prometheus.CounterValue),
		},
		read: func() []float64 {
			s := pool.Stat()
			return []float64{
				float64(s.AcquiredConns()),
				float64(s.IdleConns()),
				float64(s.TotalConns()),
				float64(s.MaxConns()),
				float64(s.AcquireCount()),
				s.AcquireDuration().Seconds(),
				float64(s.EmptyAcquireCount()),
				float64(s.CanceledAcquireCount()),
			}
		},
	}
}

// NewRedisPoolCollector exports go-redis pool statistics under redis_pool_*.
func NewRedisPoolCollector(client *redis.Client, service string) *PoolStatsCollector {
	return &PoolStatsCollector{
		service: service,
		metrics: []poolMetric{
			newPoolMetric("redis_pool_total_connections", "Total number of connections in the pool", prometheus.GaugeValue),
			newPoolMetric("redis_pool_idle_connections", "Number of idle connections", prometheus.GaugeValue),
			newPoolMetric("redis_pool_hits_total", "Times a free connection was found in the pool", prometheus.CounterValue),
			newPoolMetric("redis_pool_misses_total", "Times a free connection was not found in the pool", prometheus.CounterValue),
			newPoolMetric("redis_pool_timeouts_total", "Times a wait for a connection timed out", prometheus.CounterValue),
		},
		read: func() []float64 {
			s := client.PoolStats()
			return []float64{
				float64(s.TotalConns),
				float64(s.IdleConns),
				float64(s.Hits),
				float64(s.Misses),
				float64(s.Timeouts),
			}
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	values := c.read()
	for i, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, values[i], c.service)
	}
}
