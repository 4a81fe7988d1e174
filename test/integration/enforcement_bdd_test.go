//go:build integration

package integration

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/enforcement"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/infra"
)

// recordingPresenter is a concurrency-safe presenter capturing all commands.
type recordingPresenter struct {
	mu            sync.Mutex
	nudges        []domain.NudgeCommand
	overlays      []domain.OverlayCommand
	interventions []domain.InterventionCommand
	blockPages    []string
	redirects     []string
	grayActive    bool
}

func (r *recordingPresenter) ShowNudge(cmd domain.NudgeCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nudges = append(r.nudges, cmd)
}

func (r *recordingPresenter) DismissNudge() {}

func (r *recordingPresenter) ShowOverlay(cmd domain.OverlayCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays = append(r.overlays, cmd)
}

func (r *recordingPresenter) DismissOverlay() {}

func (r *recordingPresenter) ShowIntervention(cmd domain.InterventionCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interventions = append(r.interventions, cmd)
}

func (r *recordingPresenter) SetGrayscale(active bool, intensity float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grayActive = active
}

func (r *recordingPresenter) SetTimerIndicator(bool) {}

func (r *recordingPresenter) RedirectToURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, url)
}

func (r *recordingPresenter) RedirectToBlockPage(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blockPages = append(r.blockPages, reason)
}

func (r *recordingPresenter) nudgeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nudges)
}

func (r *recordingPresenter) blockPageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blockPages)
}

func (r *recordingPresenter) lastNudge() domain.NudgeCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nudges[len(r.nudges)-1]
}

var _ = Describe("Enforcement pipeline", func() {
	var (
		tmpDir    string
		store     *infra.HistoryStore
		scorer    *infra.HeuristicScorer
		presenter *recordingPresenter
		engine    *enforcement.Engine
		cfg       *config.Config
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		key, err := infra.EnsureKey(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		store, err = infra.NewHistoryStore(tmpDir, key)
		Expect(err).NotTo(HaveOccurred())

		cfg = config.Default()
		scorer = infra.NewHeuristicScorer(cfg.AlwaysAllowed, cfg.SocialHosts, cfg.Distracting, store, nil)
		presenter = &recordingPresenter{}
		engine = enforcement.NewEngine(cfg, presenter, scorer, store, zap.NewNop())
	})

	AfterEach(func() {
		store.Close()
	})

	reddit := domain.Target{Key: "reddit.com", DisplayName: "r/golang", Class: domain.TargetTab}

	pollOnce := func(target domain.Target) {
		engine.SetFrontmost(&target)
		engine.ScoreAndObserve(context.Background(), target)
	}

	Describe("deep work", func() {
		BeforeEach(func() {
			engine.SetBlock(&domain.TimeBlock{
				ID:          "dw-1",
				Title:       "Write the parser",
				Kind:        domain.BlockDeepWork,
				StartMinute: 540,
				EndMinute:   660,
			})
		})

		Context("when a social tab stays frontmost", func() {
			It("nudges, then force-redirects with grayscale", func() {
				pollOnce(reddit)
				Expect(presenter.nudgeCount()).To(Equal(1))
				Expect(presenter.lastNudge().Intention).To(Equal("Write the parser"))

				pollOnce(reddit)
				Expect(presenter.blockPageCount()).To(Equal(1))
				Expect(presenter.grayActive).To(BeTrue())
				Expect(engine.State().CounterSeconds).To(BeZero())
			})

			It("persists an assessment row per observation", func() {
				pollOnce(reddit)
				pollOnce(reddit)

				rows, err := store.Recent(10)
				Expect(err).NotTo(HaveOccurred())
				Expect(rows).To(HaveLen(2))
				Expect(rows[0].TargetKey).To(Equal(domain.TargetKey("reddit.com")))
				Expect(rows[0].BlockID).To(Equal("dw-1"))
				Expect(rows[0].Relevant).To(BeFalse())
				Expect(rows[0].Reason).To(Equal("social media"))
			})
		})

		Context("when unknown content is frontmost", func() {
			It("fails open and accrues nothing", func() {
				docs := domain.Target{Key: "pkg.go.dev", DisplayName: "strconv docs", Class: domain.TargetTab}
				pollOnce(docs)

				Expect(presenter.nudgeCount()).To(BeZero())
				Expect(engine.State().OffTarget).To(BeFalse())
			})
		})
	})

	Describe("focus hours justification", func() {
		BeforeEach(func() {
			engine.SetBlock(&domain.TimeBlock{
				ID:          "fh-1",
				Title:       "Email and reviews",
				Kind:        domain.BlockFocusHours,
				StartMinute: 660,
				EndMinute:   780,
			})
		})

		It("escalates to a persistent nudge when the re-score still says no", func() {
			pollOnce(reddit)
			Expect(presenter.nudgeCount()).To(Equal(1))

			engine.SubmitJustification("just checking the golang subreddit")

			Eventually(func() bool {
				if presenter.nudgeCount() < 2 {
					return false
				}
				return presenter.lastNudge().Escalated
			}).Should(BeTrue(), "social hosts stay irrelevant even with a justification")
		})
	})

	Describe("durable whitelist", func() {
		It("round-trips approved titles through the scorer into the store", func() {
			Expect(scorer.ApproveTitle("Rust forum", "Write the parser")).To(Succeed())

			verdict, err := scorer.Score(context.Background(),
				domain.Target{Key: "users.rust-lang.org", DisplayName: "Rust forum", Class: domain.TargetTab},
				"Write the parser")
			Expect(err).NotTo(HaveOccurred())
			Expect(verdict.Relevant).To(BeTrue())
			Expect(verdict.Reason).To(Equal("previously approved"))

			approved, err := store.IsTitleApproved("Rust forum", "Write the parser")
			Expect(err).NotTo(HaveOccurred())
			Expect(approved).To(BeTrue())
		})
	})
})
