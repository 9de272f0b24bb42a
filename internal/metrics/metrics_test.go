package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.ObserveSuccess("direct", 10, 2*time.Millisecond, 1.5)
	m.ObserveSuccess("direct", 10, time.Millisecond, -0.5)
	m.ObserveFailure("gradient_descent")

	require.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("direct", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("gradient_descent", "error")))
	require.Equal(t, 20.0, testutil.ToFloat64(m.sweeps))
	require.Equal(t, -0.5, testutil.ToFloat64(m.freeEnergy))
}

func TestMustNewReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := MustNew(reg)
	b := MustNew(reg)

	a.ObserveSuccess("direct", 1, time.Millisecond, 0)
	require.Equal(t, 1.0, testutil.ToFloat64(b.sweeps))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSuccess("direct", 1, time.Second, 0)
	m.ObserveFailure("direct")
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg).ObserveSuccess("direct", 3, time.Millisecond, 2)

	path := filepath.Join(t.TempDir(), "mmp.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "mmp_inference_sweeps_total 3")
}
