package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_ReportsAtInterval(t *testing.T) {
	var reports [][2]uint64

	tr := NewTracker(10, func(written, total uint64) {
		reports = append(reports, [2]uint64{written, total})
	})

	tr.Observe(3, 20)
	assert.Empty(t, reports)

	tr.Observe(12, 20)
	require.Len(t, reports, 1)
	assert.Equal(t, [2]uint64{12, 20}, reports[0])

	// completion always reports, even below the interval
	tr.Observe(20, 20)
	require.Len(t, reports, 2)
	assert.Equal(t, [2]uint64{20, 20}, reports[1])
}

func TestTracker_IgnoresRegressingSamples(t *testing.T) {
	tr := NewTracker(10, nil)

	tr.Observe(12, 20)
	tr.Observe(5, 20)

	assert.Equal(t, uint64(12), tr.Written())
	assert.Equal(t, uint64(20), tr.Total())
}

func TestTracker_UnknownTotal(t *testing.T) {
	var reports [][2]uint64

	tr := NewTracker(10, func(written, total uint64) {
		reports = append(reports, [2]uint64{written, total})
	})

	tr.Observe(15, 0)

	require.Len(t, reports, 1)
	assert.Equal(t, [2]uint64{15, 0}, reports[0])
}

func TestTracker_NilCallback(t *testing.T) {
	tr := NewTracker(1, nil)

	tr.Observe(100, 100)

	assert.Equal(t, uint64(100), tr.Written())
}
