package gridsample

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

func TestFetchAt_HitElement(t *testing.T) {
	e, _ := fixtureEngine(t, loginTree)
	snap, err := e.FetchAt(context.Background(), platform.Point{X: 100, Y: 320}, FetchParams{})
	require.NoError(t, err)

	assert.Equal(t, model.Identity("submit"), snap.Identity())
	assert.Empty(t, snap.Children())
	attrs, err := snap.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Log in", attrs[model.AttrLabel])
	assert.Equal(t, 20.0, attrs[model.AttrX])
}

func TestFetchAt_DepthAndFilters(t *testing.T) {
	e, _ := fixtureEngine(t, loginTree)
	ctx := context.Background()
	pt := platform.Point{X: 10, Y: 150} // form, away from its children

	snap, err := e.FetchAt(ctx, pt, FetchParams{MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"form", "email", "submit", "hidden"}, model.Identities(snap))

	snap, err = e.FetchAt(ctx, pt, FetchParams{MaxDepth: 1, Types: []string{"XCUIElementTypeButton"}})
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"form", "submit", "hidden"}, model.Identities(snap))

	snap, err = e.FetchAt(ctx, pt, FetchParams{MaxDepth: 1, Types: []string{"XCUIElementTypeButton"}, VisibleOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"form", "submit"}, model.Identities(snap))
}

func TestFetchAt_EmptySpaceReturnsApplication(t *testing.T) {
	e, _ := fixtureEngine(t, `
application:
  id: app
  frame: 0,0,100,100
`)
	snap, err := e.FetchAt(context.Background(), platform.Point{X: 50, Y: 50}, FetchParams{MaxDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, model.Identity("app"), snap.Identity())
}

func TestFetchAt_Errors(t *testing.T) {
	e, b := fixtureEngine(t, loginTree)
	ctx := context.Background()

	_, err := e.FetchAt(ctx, platform.Point{X: -5, Y: 10}, FetchParams{})
	assert.Equal(t, apperrors.ErrCodePointOutOfBounds, apperrors.CodeOf(err))

	_, err = e.FetchAt(ctx, platform.Point{X: 10, Y: 10}, FetchParams{MaxDepth: -1})
	assert.Equal(t, apperrors.ErrCodeInvalidConfig, apperrors.CodeOf(err))

	b.SetLatency(time.Second)
	tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = e.FetchAt(tctx, platform.Point{X: 10, Y: 10}, FetchParams{})
	assert.Equal(t, apperrors.ErrCodePlatformQuery, apperrors.CodeOf(err))
}

func TestFetchSkeletonAt_ClampsDepth(t *testing.T) {
	e, _ := fixtureEngine(t, loginTree)
	ctx := context.Background()
	pt := platform.Point{X: 10, Y: 150}

	snap, err := e.FetchSkeletonAt(ctx, pt, SkeletonParams{})
	require.NoError(t, err)
	assert.Equal(t, model.Identity("form"), snap.Identity())
	assert.Empty(t, snap.Children())

	snap, err = e.FetchSkeletonAt(ctx, platform.Point{X: 100, Y: 50}, SkeletonParams{MaxDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"nav", "title"}, model.Identities(snap))
}

func TestFetchAsync_DeliversOnce(t *testing.T) {
	e, _ := fixtureEngine(t, loginTree)
	ctx := context.Background()

	ch := e.FetchAsync(ctx, platform.Point{X: 100, Y: 320}, FetchParams{})
	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, model.Identity("submit"), res.Snapshot.Identity())
	_, ok = <-ch
	assert.False(t, ok, "channel should be closed after one result")

	ch = e.FetchSkeletonAsync(ctx, platform.Point{X: 1000, Y: 1000}, SkeletonParams{})
	res = <-ch
	assert.Nil(t, res.Snapshot)
	assert.Equal(t, apperrors.ErrCodePointOutOfBounds, apperrors.CodeOf(res.Err))
	_, ok = <-ch
	assert.False(t, ok)
}
