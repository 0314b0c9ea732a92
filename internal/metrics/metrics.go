// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// 認可ゲートの判定結果
const (
	DecisionAnonymous = "anonymous"
	DecisionDenied    = "denied"
	DecisionAllowed   = "allowed"
	DecisionError     = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、認可ゲート、ミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(outcome string)
	RecordDecision(outcome string)
	RecordBoardCreated()
	RecordBoardCreateLatency(duration time.Duration)
	RecordFlip()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	boardsCreated prometheus.Counter
	createLatency prometheus.Histogram
	flips         prometheus.Counter
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_logins_total",
			Help: "結果別のログイン試行数",
		}, []string{"outcome"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_gate_decisions_total",
			Help: "結果別の認可判定数",
		}, []string{"outcome"}),
		boardsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bingo_boards_created_total",
			Help: "作成された盤面の合計数",
		}),
		createLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bingo_board_create_latency_seconds",
			Help:    "盤面作成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		flips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bingo_flips_total",
			Help: "マスの反転操作の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.decisions,
		c.boardsCreated,
		c.createLatency,
		c.flips,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordDecision は認可判定を記録する。
func (c *Collector) RecordDecision(outcome string) {
	c.decisions.WithLabelValues(outcome).Inc()
}

// RecordBoardCreated は盤面作成を記録する。
func (c *Collector) RecordBoardCreated() {
	c.boardsCreated.Inc()
}

// RecordBoardCreateLatency は盤面作成のレイテンシを記録する。
func (c *Collector) RecordBoardCreateLatency(duration time.Duration) {
	c.createLatency.Observe(duration.Seconds())
}

// RecordFlip はマスの反転を記録する。
func (c *Collector) RecordFlip() {
	c.flips.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
