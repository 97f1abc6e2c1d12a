package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveValidation(t *testing.T) {
	r := NewRecorder()
	r.ObserveValidation("json-path", "passed", time.Millisecond)
	r.ObserveValidation("json-path", "passed", time.Millisecond)
	r.ObserveValidation("json-path", "failed", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.validations.WithLabelValues("json-path", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues("json-path", "failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestObserveCase(t *testing.T) {
	r := NewRecorder()
	r.ObserveCase("passed")
	r.ObserveCase("skipped")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cases.WithLabelValues("skipped")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveValidation("x", "passed", time.Second)
	r.ObserveCase("failed")
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteFile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestWriteFile(t *testing.T) {
	r := NewRecorder()
	r.ObserveCase("passed")
	path := filepath.Join(t.TempDir(), "contract.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `message_contract_cases_total{result="passed"} 1`)
}
