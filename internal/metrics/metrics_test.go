package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/voacom/commercial-intelligence-system/internal/postgrest"
)

// Collectorはpostgrest.Collectorインターフェースを満たすことを検証
func TestCollector_ImplementsPostgrestCollector(t *testing.T) {
	var _ postgrest.Collector = (*Collector)(nil)
}

func TestCollector_RecordDataStoreCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDataStoreCall("select", 10*time.Millisecond, nil)
	c.RecordDataStoreCall("select", 10*time.Millisecond, errors.New("boom"))
	c.RecordDataStoreCall("insert", 5*time.Millisecond, nil)

	if got := testutil.ToFloat64(c.dataStoreCalls.WithLabelValues("select")); got != 2 {
		t.Errorf("select呼び出し数 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.dataStoreFailures.WithLabelValues("select")); got != 1 {
		t.Errorf("select失敗数 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.dataStoreCalls.WithLabelValues("insert")); got != 1 {
		t.Errorf("insert呼び出し数 = %v, want 1", got)
	}
}

func TestCollector_RecordSchemaFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSchemaFetch(20*time.Millisecond, nil)
	c.RecordSchemaFetch(20*time.Millisecond, errors.New("unreachable"))

	if got := testutil.ToFloat64(c.schemaFetches); got != 2 {
		t.Errorf("取得数 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.schemaFailures); got != 1 {
		t.Errorf("失敗数 = %v, want 1", got)
	}
}

func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("200の数 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("404の数 = %v, want 1", got)
	}
}

func TestCollector_RecordGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGeneration(nil)
	c.RecordGeneration(errors.New("quota"))

	if got := testutil.ToFloat64(c.generations); got != 2 {
		t.Errorf("生成数 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.generationFails); got != 1 {
		t.Errorf("失敗数 = %v, want 1", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(200)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cis_http_status_total") {
		t.Error("メトリクス名が出力に含まれない")
	}
}
