package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Independent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.RecordCacheLookup(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("hit")))
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordCompile(t *testing.T) {
	r := NewRegistry()
	r.RecordCompile(StatusOK, 2*time.Millisecond, "warning", "warning", "info")
	r.RecordCompile(StatusSyntaxError, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.CompilesTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CompilesTotal.WithLabelValues(StatusSyntaxError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.DiagnosticsTotal.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DiagnosticsTotal.WithLabelValues("info")))

	var m dto.Metric
	require.NoError(t, r.CompileDuration.Write(&m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
}

func TestRecordPublishAndMessages(t *testing.T) {
	r := NewRegistry()
	r.RecordPublish(nil)
	r.RecordPublish(errors.New("boom"))
	r.RecordMessage("in", "compile")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.PublishesTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PublishesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MessagesTotal.WithLabelValues("in", "compile")))
}

func TestHandler_Exposition(t *testing.T) {
	r := NewRegistry()
	r.RecordCompile(StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eon_compiles_total{status="ok"} 1`)
}
