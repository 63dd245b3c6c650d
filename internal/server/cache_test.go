package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
)

func countingBuild(calls *int, status gridsample.Status) func() (*gridsample.Result, error) {
	return func() (*gridsample.Result, error) {
		*calls++
		return &gridsample.Result{Status: status}, nil
	}
}

func TestResultCache_TTL(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := NewResultCache(time.Second)
	c.now = func() time.Time { return now }
	cfg := gridsample.DefaultConfig()

	calls := 0
	_, cached, err := c.BuildTree(cfg, countingBuild(&calls, gridsample.StatusComplete))
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, _ = c.BuildTree(cfg, countingBuild(&calls, gridsample.StatusComplete))
	assert.True(t, cached)
	assert.Equal(t, 1, calls)

	other := cfg
	other.SamplesX = 2
	_, cached, _ = c.BuildTree(other, countingBuild(&calls, gridsample.StatusComplete))
	assert.False(t, cached, "different config is a different key")

	now = now.Add(2 * time.Second)
	_, cached, _ = c.BuildTree(cfg, countingBuild(&calls, gridsample.StatusComplete))
	assert.False(t, cached)
	assert.Equal(t, 3, calls)
}

func TestResultCache_SkipsPartialAndErrors(t *testing.T) {
	c := NewResultCache(time.Minute)
	cfg := gridsample.DefaultConfig()

	calls := 0
	_, _, _ = c.BuildTree(cfg, countingBuild(&calls, gridsample.StatusPartial))
	assert.Zero(t, c.Len())

	_, _, err := c.BuildTree(cfg, func() (*gridsample.Result, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestResultCache_Disabled(t *testing.T) {
	c := NewResultCache(0)
	calls := 0
	for i := 0; i < 3; i++ {
		_, cached, _ := c.BuildTree(gridsample.DefaultConfig(), countingBuild(&calls, gridsample.StatusComplete))
		assert.False(t, cached)
	}
	assert.Equal(t, 3, calls)
	assert.Zero(t, c.Len())
}

func TestResultCache_PrunesExpiredEntries(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := NewResultCache(time.Second)
	c.now = func() time.Time { return now }

	calls := 0
	for x := 1; x <= 5; x++ {
		cfg := gridsample.DefaultConfig()
		cfg.SamplesX = x
		_, _, err := c.BuildTree(cfg, countingBuild(&calls, gridsample.StatusComplete))
		require.NoError(t, err)
	}
	assert.Equal(t, 5, c.Len())

	now = now.Add(2 * time.Second)
	_, _, err := c.BuildTree(gridsample.DefaultConfig(), countingBuild(&calls, gridsample.StatusComplete))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len(), "expired configs are dropped, only the new result remains")

	now = now.Add(2 * time.Second)
	_, cached, _ := c.BuildTree(gridsample.DefaultConfig(), countingBuild(&calls, gridsample.StatusPartial))
	assert.False(t, cached)
	assert.Zero(t, c.Len())
}
