// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// postgrest.Collector を満たし、データストア呼び出しと
// スキーマ取得のレイテンシ・失敗を記録する。
type Collector struct {
	dataStoreCalls    *prometheus.CounterVec
	dataStoreFailures *prometheus.CounterVec
	dataStoreLatency  prometheus.Histogram
	schemaFetches     prometheus.Counter
	schemaFailures    prometheus.Counter
	schemaLatency     prometheus.Histogram
	httpStatus        *prometheus.CounterVec
	generations       prometheus.Counter
	generationFails   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dataStoreCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cis_datastore_calls_total",
			Help: "データストア呼び出しの合計数（操作別）",
		}, []string{"operation"}),
		dataStoreFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cis_datastore_failures_total",
			Help: "データストア呼び出し失敗の合計数（操作別）",
		}, []string{"operation"}),
		dataStoreLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cis_datastore_latency_seconds",
			Help:    "データストア呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		schemaFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cis_schema_fetch_total",
			Help: "スキーマドキュメント取得の合計数",
		}),
		schemaFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cis_schema_fetch_failures_total",
			Help: "スキーマドキュメント取得失敗の合計数",
		}),
		schemaLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cis_schema_fetch_latency_seconds",
			Help:    "スキーマドキュメント取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cis_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cis_generation_total",
			Help: "コンテンツ生成リクエストの合計数",
		}),
		generationFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cis_generation_failures_total",
			Help: "コンテンツ生成失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.dataStoreCalls,
		c.dataStoreFailures,
		c.dataStoreLatency,
		c.schemaFetches,
		c.schemaFailures,
		c.schemaLatency,
		c.httpStatus,
		c.generations,
		c.generationFails,
	)

	return c
}

// RecordDataStoreCall はデータストア呼び出しを記録する。
func (c *Collector) RecordDataStoreCall(operation string, duration time.Duration, err error) {
	c.dataStoreCalls.WithLabelValues(operation).Inc()
	c.dataStoreLatency.Observe(duration.Seconds())
	if err != nil {
		c.dataStoreFailures.WithLabelValues(operation).Inc()
	}
}

// RecordSchemaFetch はスキーマドキュメント取得を記録する。
func (c *Collector) RecordSchemaFetch(duration time.Duration, err error) {
	c.schemaFetches.Inc()
	c.schemaLatency.Observe(duration.Seconds())
	if err != nil {
		c.schemaFailures.Inc()
	}
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordGeneration はコンテンツ生成の結果を記録する。
func (c *Collector) RecordGeneration(err error) {
	c.generations.Inc()
	if err != nil {
		c.generationFails.Inc()
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
