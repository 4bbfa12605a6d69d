package surface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/placement"
)

func compareRequest(h model.SourceHandle, rev string) Request {
	return Request{
		Invocation: model.Invocation{Kind: model.KindCompare, StatusLabel: rev, Source: h},
		Output:     "content at " + rev + "\n",
		Placement:  placement.SplitVertical,
		Named:      true,
		Comparison: true,
	}
}

// TestComparison_CloseSourceDisposesSession covers the two-revision
// comparison scenario.
func TestComparison_CloseSourceDisposesSession(t *testing.T) {
	reg, sources, presenter := newTestRegistry(t)
	a := sources.Add("a.txt")
	other := sources.Add("b.txt")

	unrelated, err := reg.CreateOrReuse(statusRequest(other))
	require.NoError(t, err)

	c, err := reg.StartComparison(a)
	require.NoError(t, err)

	r3, err := reg.CreateOrReuse(compareRequest(a, "3"))
	require.NoError(t, err)
	r5, err := reg.CreateOrReuse(compareRequest(a, "5"))
	require.NoError(t, err)

	assert.Equal(t, "a.txt _vimdiff 3_", r3.Name)
	assert.Equal(t, "a.txt _vimdiff 5_", r5.Name)
	assert.Equal(t, []string{r3.ID, r5.ID}, c.Members())

	active, ok := reg.Comparison()
	require.True(t, ok)
	assert.Equal(t, a, active.Origin)

	assert.Equal(t, 0, reg.CloseSource(other), "closing an unrelated source is a no-op")
	assert.Equal(t, 2, reg.CloseSource(a))

	_, ok = reg.Comparison()
	assert.False(t, ok)
	_, ok = reg.Get(r3.ID)
	assert.False(t, ok)
	_, ok = reg.Get(r5.ID)
	assert.False(t, ok)
	_, ok = reg.Get(unrelated.ID)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{r3.ID, r5.ID}, presenter.disposed)
}

func TestComparison_LastMemberClosedEndsSession(t *testing.T) {
	reg, sources, _ := newTestRegistry(t)
	a := sources.Add("a.txt")

	_, err := reg.StartComparison(a)
	require.NoError(t, err)
	r3, err := reg.CreateOrReuse(compareRequest(a, "3"))
	require.NoError(t, err)
	r5, err := reg.CreateOrReuse(compareRequest(a, "5"))
	require.NoError(t, err)

	require.NoError(t, reg.Close(r3.ID))
	c, ok := reg.Comparison()
	require.True(t, ok)
	assert.Equal(t, []string{r5.ID}, c.Members())

	require.NoError(t, reg.Close(r5.ID))
	_, ok = reg.Comparison()
	assert.False(t, ok)
}

// TestComparison_RestartResetsPriorState verifies a new comparison wipes
// the surfaces of the previous one.
func TestComparison_RestartResetsPriorState(t *testing.T) {
	reg, sources, _ := newTestRegistry(t)
	a := sources.Add("a.txt")

	first, err := reg.StartComparison(a)
	require.NoError(t, err)
	_, err = reg.CreateOrReuse(compareRequest(a, "3"))
	require.NoError(t, err)

	second, err := reg.StartComparison(a)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, second.Members())

	s, err := reg.CreateOrReuse(compareRequest(a, "3"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt _vimdiff 3_", s.Name)
}

func TestComparison_RequiresActiveSession(t *testing.T) {
	reg, sources, _ := newTestRegistry(t)
	a := sources.Add("a.txt")
	b := sources.Add("b.txt")

	_, err := reg.CreateOrReuse(compareRequest(a, "3"))
	assert.True(t, errors.Is(err, ErrNoComparison))

	_, err = reg.StartComparison(a)
	require.NoError(t, err)
	_, err = reg.CreateOrReuse(compareRequest(b, "3"))
	assert.True(t, errors.Is(err, ErrNoComparison))
	assert.Equal(t, 0, reg.Len())
}

func TestComparison_StaleOrigin(t *testing.T) {
	reg, sources, _ := newTestRegistry(t)
	a := sources.Add("a.txt")
	sources.Remove(a)

	_, err := reg.StartComparison(a)
	assert.True(t, errors.Is(err, model.ErrStaleSource))
}

func TestEndComparison_NoSession(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	assert.Equal(t, 0, reg.EndComparison())
}
