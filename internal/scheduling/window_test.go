package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"autopost/internal/models"
)

func tod(h, m int) models.TimeOfDay {
	return models.TimeOfDay{Hour: h, Minute: m}
}

func TestResolveWindow_SameDay(t *testing.T) {
	now := at(10, 0, 0)

	w := ResolveWindow(now, tod(9, 0), tod(17, 0))
	assert.Equal(t, at(9, 0, 0), w.Start)
	assert.Equal(t, at(17, 0, 0), w.End)
	assert.Equal(t, 8*time.Hour, w.Duration())
}

func TestResolveWindow_CrossesMidnight(t *testing.T) {
	now := at(23, 0, 0)

	w := ResolveWindow(now, tod(22, 0), tod(4, 0))
	assert.Equal(t, at(22, 0, 0), w.Start)
	assert.Equal(t, at(4, 0, 0).AddDate(0, 0, 1), w.End)
}

func TestResolveWindow_PastWindowRollsToNextDay(t *testing.T) {
	now := at(18, 30, 0)

	w := ResolveWindow(now, tod(9, 0), tod(17, 0))
	assert.Equal(t, at(9, 0, 0).AddDate(0, 0, 1), w.Start)
	assert.Equal(t, at(17, 0, 0).AddDate(0, 0, 1), w.End)
}

func TestResolveWindow_EndEqualsStartSpansFullDay(t *testing.T) {
	now := at(12, 0, 0)

	w := ResolveWindow(now, tod(9, 0), tod(9, 0))
	assert.Equal(t, 24*time.Hour, w.Duration())
}

func TestInWindow(t *testing.T) {
	cases := []struct {
		name  string
		now   time.Time
		start models.TimeOfDay
		end   models.TimeOfDay
		want  bool
	}{
		{"inside", at(12, 0, 0), tod(9, 0), tod(17, 0), true},
		{"at start", at(9, 0, 0), tod(9, 0), tod(17, 0), true},
		{"at end", at(17, 0, 0), tod(9, 0), tod(17, 0), true},
		{"before", at(8, 59, 59), tod(9, 0), tod(17, 0), false},
		{"after", at(17, 0, 1), tod(9, 0), tod(17, 0), false},
		{"wrap evening side", at(23, 0, 0), tod(22, 0), tod(4, 0), true},
		{"wrap morning side", at(3, 0, 0), tod(22, 0), tod(4, 0), true},
		{"wrap outside", at(12, 0, 0), tod(22, 0), tod(4, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InWindow(tc.now, tc.start, tc.end))
		})
	}
}
