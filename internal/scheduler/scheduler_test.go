package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-risk-engine/internal/runner"
)

type fakeLists map[string][]string

func (f fakeLists) GetWatchlist(_ context.Context, name string) ([]string, error) {
	if name == "broken" {
		return nil, errors.New("no such table")
	}
	return f[name], nil
}

type fakeRunner struct {
	got []string
	err error
}

func (f *fakeRunner) Run(_ context.Context, symbols []string) (*runner.Summary, error) {
	f.got = symbols
	finished := time.Date(2024, 6, 3, 16, 30, 5, 0, time.UTC)
	return &runner.Summary{RunID: "r1", FinishedAt: finished}, f.err
}

type fakeRuns map[string]time.Time

func (f fakeRuns) SetLastRun(name string, t time.Time) error {
	f[name] = t
	return nil
}

func TestRunNow(t *testing.T) {
	r := &fakeRunner{}
	runs := fakeRuns{}
	s := New(context.Background(), r, fakeLists{"default": {"INFY", "TCS"}}, runs, "default")

	var seen *runner.Summary
	s.OnSummary = func(sum *runner.Summary) { seen = sum }

	summary, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "TCS"}, r.got)
	assert.Equal(t, "r1", summary.RunID)
	assert.Same(t, summary, seen)
	assert.Equal(t, summary.FinishedAt, runs[JobName("default")])
}

func TestRunNow_EmptyWatchlist(t *testing.T) {
	r := &fakeRunner{}
	s := New(context.Background(), r, fakeLists{}, nil, "default")

	summary, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.Nil(t, r.got)
}

func TestRunNow_Errors(t *testing.T) {
	s := New(context.Background(), &fakeRunner{}, fakeLists{}, nil, "broken")
	_, err := s.RunNow(context.Background())
	assert.Error(t, err)

	runs := fakeRuns{}
	failing := &fakeRunner{err: context.Canceled}
	s = New(context.Background(), failing, fakeLists{"default": {"INFY"}}, runs, "default")
	_, err = s.RunNow(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runs, "interrupted runs are not recorded")
}

func TestRegister(t *testing.T) {
	s := New(context.Background(), &fakeRunner{}, fakeLists{}, nil, "default")

	assert.Error(t, s.Register("every weekday"))
	assert.True(t, s.Next().IsZero())

	require.NoError(t, s.Register("0 30 16 * * MON-FRI"))
	s.Start()
	defer s.Stop()

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 16, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.NotEqual(t, time.Saturday, next.Weekday())
	assert.NotEqual(t, time.Sunday, next.Weekday())
}
