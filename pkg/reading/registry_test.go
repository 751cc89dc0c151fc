package reading

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/models"
)

func emptyGraph() *Graph {
	return &Graph{StoryID: 1, Parts: map[int]*models.StoryPart{}}
}

func assertGauge(t *testing.T, m *metrics.Metrics, n int) {
	t.Helper()
	expected := fmt.Sprintf(`
# HELP reading_sessions_active Reading sessions currently held in memory.
# TYPE reading_sessions_active gauge
reading_sessions_active %d
`, n)
	assert.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected), "reading_sessions_active"))
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	r := NewRegistry(time.Hour, m)

	mine := NewSession(1, emptyGraph())
	theirs := NewSession(2, emptyGraph())
	r.Add(mine)
	r.Add(theirs)
	assert.Equal(t, 2, r.Len())
	assertGauge(t, m, 2)

	got, err := r.Get(mine.ID, 1)
	require.NoError(t, err)
	assert.Same(t, mine, got)

	_, err = r.Get(mine.ID, 2)
	assert.ErrorIs(t, err, errcodes.NotFound("Reading session"))

	r.Remove(mine.ID)
	_, err = r.Get(mine.ID, 1)
	assert.Error(t, err)
	assertGauge(t, m, 1)
}

func TestRegistry_Sweep(t *testing.T) {
	t.Parallel()
	r := NewRegistry(time.Minute, nil)

	stale := NewSession(1, emptyGraph())
	stale.touched = time.Now().Add(-2 * time.Minute)
	fresh := NewSession(1, emptyGraph())
	r.Add(stale)
	r.Add(fresh)

	_, err := r.Get(stale.ID, 1)
	assert.Error(t, err, "expired sessions are hidden before the sweep runs")

	assert.Equal(t, 1, r.Sweep(time.Now()))
	assert.Equal(t, 1, r.Len())
	_, err = r.Get(fresh.ID, 1)
	assert.NoError(t, err)

	assert.Equal(t, 1, r.Sweep(time.Now().Add(time.Hour)))
	assert.Zero(t, r.Len())
}

func TestRegistry_WatchSignOut(t *testing.T) {
	t.Parallel()
	r := NewRegistry(time.Hour, nil)
	events := auth.NewEvents()
	stop := r.Watch(events)
	defer stop()

	r.Add(NewSession(1, emptyGraph()))
	r.Add(NewSession(2, emptyGraph()))

	auth.NewService(nil, "secret", events).SignOut(&auth.Session{User: &models.User{ID: 1}})
	assert.Equal(t, 1, r.Len())
}
