package usecase

import (
	"sort"

	"github.com/macrolens/productmatch/internal/domain"
)

// SelectBest ranks scored candidates by FinalScore and resolves near-ties by
// unit price, then absolute price. scored is sorted in place; equal scores
// keep their input order.
func SelectBest(scored []domain.ScoredCandidate, tieDelta, confThreshold float64) domain.MatchResult {
	if len(scored) == 0 {
		return domain.MatchResult{
			Reason:        domain.ReasonNoCandidates,
			AllCandidates: []domain.ScoredCandidate{},
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	topScore := scored[0].FinalScore
	nearTop := 1
	for nearTop < len(scored) && topScore-scored[nearTop].FinalScore <= tieDelta {
		nearTop++
	}

	chosen, reason := 0, domain.ReasonTopSingle
	if nearTop > 1 {
		chosen, reason = breakTie(scored[:nearTop])
	}

	winner := scored[chosen]
	selected := winner.Candidate
	return domain.MatchResult{
		Selected:      &selected,
		Score:         winner.FinalScore,
		ConfidenceOK:  winner.FinalScore >= confThreshold,
		Reason:        reason,
		AllCandidates: scored,
	}
}

// breakTie picks among near-top candidates; the first minimum wins
func breakTie(nearTop []domain.ScoredCandidate) (int, domain.Reason) {
	best := -1
	for i, c := range nearTop {
		if c.PricePerLiter == nil {
			continue
		}
		if best < 0 || *c.PricePerLiter < *nearTop[best].PricePerLiter {
			best = i
		}
	}
	if best >= 0 {
		return best, domain.ReasonTieBrokenByPricePerLiter
	}

	for i, c := range nearTop {
		if !c.Candidate.HasPrice() {
			continue
		}
		if best < 0 || *c.Candidate.Price < *nearTop[best].Candidate.Price {
			best = i
		}
	}
	if best >= 0 {
		return best, domain.ReasonTieBrokenByAbsPrice
	}

	return 0, domain.ReasonTieKeptTop
}
