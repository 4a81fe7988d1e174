package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

type fakeWhitelist struct {
	approved map[string]bool
	writes   []string
	err      error
}

func (f *fakeWhitelist) IsTitleApproved(title, intention string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.approved[title], nil
}

func (f *fakeWhitelist) ApproveTitle(title, intention string) error {
	f.writes = append(f.writes, title)
	return f.err
}

type fakeRemote struct {
	verdict domain.Verdict
	err     error
	calls   int
}

func (f *fakeRemote) Score(ctx context.Context, target domain.Target, intention string) (domain.Verdict, error) {
	f.calls++
	return f.verdict, f.err
}

func (f *fakeRemote) ApproveTitle(title, intention string) error { return nil }

func tab(key, name string) domain.Target {
	return domain.Target{Key: domain.TargetKey(key), DisplayName: name, Class: domain.TargetTab}
}

func TestHeuristicScorer_Precedence(t *testing.T) {
	wl := &fakeWhitelist{approved: map[string]bool{"Rust forum": true}}
	remote := &fakeRemote{verdict: domain.Verdict{Relevant: false, Reason: "remote said no"}}
	s := NewHeuristicScorer(
		[]string{"com.apple.Terminal"},
		[]string{"reddit.com"},
		[]string{"news.ycombinator.com"},
		wl, remote)

	cases := []struct {
		name     string
		target   domain.Target
		relevant bool
		reason   string
	}{
		{"whitelist wins first", tab("reddit.com", "Rust forum"), true, "previously approved"},
		{"always allowed", tab("com.apple.terminal", "Terminal"), true, "always allowed"},
		{"social media", tab("reddit.com", "r/aww"), false, "social media"},
		{"distracting list", tab("news.ycombinator.com", "HN"), false, "on your distracting list"},
		{"unknown goes remote", tab("example.com", "Some page"), false, "remote said no"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := s.Score(context.Background(), tc.target, "write the parser")
			require.NoError(t, err)
			assert.Equal(t, tc.relevant, v.Relevant)
			assert.Equal(t, tc.reason, v.Reason)
		})
	}
}

func TestHeuristicScorer_CaseInsensitiveKeys(t *testing.T) {
	s := NewHeuristicScorer(nil, []string{"Reddit.com"}, nil, nil, nil)

	v, err := s.Score(context.Background(), tab("REDDIT.COM", "r/golang"), "email")
	require.NoError(t, err)
	assert.False(t, v.Relevant)
}

func TestHeuristicScorer_FailsOpenWithoutRemote(t *testing.T) {
	s := NewHeuristicScorer(nil, nil, nil, nil, nil)

	v, err := s.Score(context.Background(), tab("example.com", "Some page"), "email")
	require.NoError(t, err)
	assert.True(t, v.Relevant)
	assert.Equal(t, 0, v.Confidence)
}

func TestHeuristicScorer_WhitelistErrorSkipsToLists(t *testing.T) {
	wl := &fakeWhitelist{err: errors.New("db locked")}
	s := NewHeuristicScorer(nil, []string{"reddit.com"}, nil, wl, nil)

	v, err := s.Score(context.Background(), tab("reddit.com", "r/aww"), "email")
	require.NoError(t, err)
	assert.False(t, v.Relevant, "whitelist failure falls through to the list checks")
}

func TestHeuristicScorer_ApproveTitleWritesThrough(t *testing.T) {
	wl := &fakeWhitelist{approved: map[string]bool{}}
	s := NewHeuristicScorer(nil, nil, nil, wl, nil)

	require.NoError(t, s.ApproveTitle("Rust forum", "write the parser"))
	assert.Equal(t, []string{"Rust forum"}, wl.writes)

	// Without a whitelist it is a silent no-op.
	s2 := NewHeuristicScorer(nil, nil, nil, nil, nil)
	assert.NoError(t, s2.ApproveTitle("anything", "email"))
}

func TestHeuristicScorer_RemoteErrorPropagates(t *testing.T) {
	remote := &fakeRemote{err: errors.New("timeout")}
	s := NewHeuristicScorer(nil, nil, nil, nil, remote)

	_, err := s.Score(context.Background(), tab("example.com", "Some page"), "email")
	assert.Error(t, err)
	assert.Equal(t, 1, remote.calls)
}
