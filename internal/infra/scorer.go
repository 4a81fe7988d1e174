package infra

import (
	"context"
	"strings"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// Whitelist is the durable approved-title store the scorer consults first.
// Implemented by HistoryStore.
type Whitelist interface {
	IsTitleApproved(title, intention string) (bool, error)
	ApproveTitle(title, intention string) error
}

// HeuristicScorer resolves relevance with offline heuristics before any
// slow round trip: durable whitelist, always-allowed list, social-media
// list, user-configured distracting list, then an optional remote scorer.
// With no remote scorer and no list hit it fails open (relevant).
type HeuristicScorer struct {
	allowed     map[domain.TargetKey]struct{}
	social      map[domain.TargetKey]struct{}
	distracting map[domain.TargetKey]struct{}
	whitelist   Whitelist              // optional
	remote      domain.RelevanceScorer // optional
}

// NewHeuristicScorer builds a scorer from the configured lists.
func NewHeuristicScorer(allowed, social, distracting []string, whitelist Whitelist, remote domain.RelevanceScorer) *HeuristicScorer {
	return &HeuristicScorer{
		allowed:     keySet(allowed),
		social:      keySet(social),
		distracting: keySet(distracting),
		whitelist:   whitelist,
		remote:      remote,
	}
}

func keySet(keys []string) map[domain.TargetKey]struct{} {
	m := make(map[domain.TargetKey]struct{}, len(keys))
	for _, k := range keys {
		m[domain.TargetKey(strings.ToLower(k))] = struct{}{}
	}
	return m
}

// Score evaluates the target, heuristics first.
func (s *HeuristicScorer) Score(ctx context.Context, target domain.Target, intention string) (domain.Verdict, error) {
	key := domain.TargetKey(strings.ToLower(string(target.Key)))

	if s.whitelist != nil && target.DisplayName != "" {
		approved, err := s.whitelist.IsTitleApproved(target.DisplayName, intention)
		if err == nil && approved {
			return domain.Verdict{Relevant: true, Confidence: 100, Reason: "previously approved"}, nil
		}
	}

	if _, ok := s.allowed[key]; ok {
		return domain.Verdict{Relevant: true, Confidence: 100, Reason: "always allowed"}, nil
	}
	if _, ok := s.social[key]; ok {
		return domain.Verdict{Relevant: false, Confidence: 95, Reason: "social media"}, nil
	}
	if _, ok := s.distracting[key]; ok {
		return domain.Verdict{Relevant: false, Confidence: 90, Reason: "on your distracting list"}, nil
	}

	if s.remote != nil {
		return s.remote.Score(ctx, target, intention)
	}

	return domain.Verdict{Relevant: true, Confidence: 0, Reason: "unknown content, assuming relevant"}, nil
}

// ApproveTitle writes through to the durable whitelist.
func (s *HeuristicScorer) ApproveTitle(title, intention string) error {
	if s.whitelist == nil {
		return nil
	}
	return s.whitelist.ApproveTitle(title, intention)
}

var _ domain.RelevanceScorer = (*HeuristicScorer)(nil)
