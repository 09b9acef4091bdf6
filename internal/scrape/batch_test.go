package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perTarget(fail map[string]error) *fakeProvider {
	return &fakeProvider{open: func(req Request) (Adapter, error) {
		if err := fail[req.Target]; err != nil {
			return nil, err
		}
		return &scriptedAdapter{
			endpoint: "top_v1",
			pages:    []PageResult{{Items: posts(req.Target+"-", 2, 1000)}},
		}, nil
	}}
}

func TestRunBatch_FailingTargetBecomesWarning(t *testing.T) {
	prov := perTarget(map[string]error{"b": errors.New("upstream exploded")})
	obs := &recordingObserver{}
	p := newTestPipeline(prov, WithObserver(obs))

	out := p.RunBatch(context.Background(), baseRequest(), []string{"a", "b", "c"})

	require.Len(t, out.Warnings, 1, "exactly one warning per failed target")
	assert.Equal(t, "b: upstream exploded", out.Warnings[0])
	assert.Equal(t, []string{"a-1", "a-2", "c-1", "c-2"}, codes(out.Rows), "rows of surviving targets should keep target order")
	assert.Equal(t, []string{"b"}, obs.failed)
	assert.Equal(t, []string{"a", "b", "c"}, out.Meta.Targets)
}

func TestRunBatch_TagsRowsWithTarget(t *testing.T) {
	p := newTestPipeline(perTarget(nil))

	out := p.RunBatch(context.Background(), baseRequest(), []string{"dogs", "cats"})

	require.Len(t, out.Rows, 4)
	assert.Equal(t, "#dogs", out.Rows[0].Target)
	assert.Equal(t, "#dogs", out.Rows[1].Target)
	assert.Equal(t, "#cats", out.Rows[2].Target)
	assert.Equal(t, "#cats", out.Rows[3].Discovery)
}

func TestRunBatch_SumsMetaAcrossTargets(t *testing.T) {
	p := newTestPipeline(perTarget(nil))

	out := p.RunBatch(context.Background(), baseRequest().WithMaxItems(1), []string{"x", "y", "z"})

	assert.Equal(t, 6, out.Meta.Fetched, "fetched should include items past the quota")
	assert.Equal(t, 3, out.Meta.Kept)
	assert.Equal(t, 3, out.Meta.Requests)
	assert.Equal(t, 1, out.Meta.Requested)
	assert.Equal(t, "top_v1", out.Meta.Endpoint, "repeated endpoints should be listed once")
	assert.False(t, out.Meta.FallbackUsed)
	assert.Empty(t, out.Warnings)
}

func TestRunBatch_FallbackFlagIsOredAcrossTargets(t *testing.T) {
	prov := &fakeProvider{open: func(req Request) (Adapter, error) {
		if req.Target == "sparse" && req.Feed == FeedTop {
			return &scriptedAdapter{endpoint: "top_v1", pages: []PageResult{{Items: posts("s", 1, 1000)}}}, nil
		}
		return &endlessAdapter{endpoint: string(req.Feed) + "_v1", perPage: 5}, nil
	}}
	req := baseRequest().WithFeed(FeedAuto).WithMaxItems(5)

	out := newTestPipeline(prov).RunBatch(context.Background(), req, []string{"busy", "sparse"})

	assert.True(t, out.Meta.FallbackUsed)
	assert.Len(t, out.Rows, 10)
	assert.Equal(t, "top_v1, top_v1 + recent_v1", out.Meta.Endpoint)
}

func TestRunBatch_InvalidTargetIsReportedNotSent(t *testing.T) {
	prov := perTarget(nil)

	out := newTestPipeline(prov).RunBatch(context.Background(), baseRequest(), []string{"ok", "bad tag"})

	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "bad tag: invalid hashtag")
	assert.Len(t, prov.opened, 1)
}

type stubRunner struct {
	calls []Request
}

func (r *stubRunner) RunSingleTarget(_ context.Context, req Request) (*Result, error) {
	r.calls = append(r.calls, req)
	return &Result{
		Rows: []Row{{ID: req.Target + "-row", Discovery: req.Discovery()}},
		Meta: Meta{Endpoint: "stub", Fetched: 1, Kept: 1, Requests: 1},
	}, nil
}

func TestAggregator_UsesInjectedRunner(t *testing.T) {
	runner := &stubRunner{}
	agg := &Aggregator{Runner: runner}
	base := baseRequest()
	base.Method = MethodUsername
	base.Feed = FeedPosts

	out := agg.Run(context.Background(), base, []string{"nasa", "esa"})

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "nasa", runner.calls[0].Target)
	assert.Equal(t, FeedPosts, runner.calls[1].Feed, "every target should share the base request")
	assert.Equal(t, "@esa", out.Rows[1].Target)
}
