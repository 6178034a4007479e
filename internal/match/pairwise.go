package match

import (
	"github.com/hyperifyio/pagediff/internal/extract"
	"github.com/hyperifyio/pagediff/internal/report"
)

// pairwiseIdenticalCeiling is the raw-text similarity at or above which the
// pairwise mode treats a best match as the same block rather than a
// modification.
const pairwiseIdenticalCeiling = 0.95

// pairwise is the simpler historical matcher: every new block is matched
// against its most similar old block on raw (non-normalized) text. A best
// match below the threshold means the block is new; between the threshold
// and the identical ceiling it is a modification. Removed blocks are found
// symmetrically. Unlike strict mode this reports whitespace and punctuation
// level changes, which is exactly why strict mode replaced it as default.
func pairwise(oldBlocks, newBlocks []extract.Block, threshold float64) report.Report {
	var rep report.Report

	for _, nb := range newBlocks {
		bestSim := 0.0
		bestIdx := -1
		for i := range oldBlocks {
			sim := similarity(nb.Text, oldBlocks[i].Text)
			if sim > bestSim {
				bestSim = sim
				bestIdx = i
			}
		}
		switch {
		case bestSim < threshold:
			rep.Added = append(rep.Added, report.ExcerptOf(nb))
		case bestSim < pairwiseIdenticalCeiling && bestIdx >= 0:
			rep.Modified = append(rep.Modified, report.Modification{
				Old: report.ExcerptOf(oldBlocks[bestIdx]),
				New: report.ExcerptOf(nb),
			})
		}
	}

	for _, ob := range oldBlocks {
		bestSim := 0.0
		for _, nb := range newBlocks {
			if sim := similarity(ob.Text, nb.Text); sim > bestSim {
				bestSim = sim
			}
		}
		if bestSim < threshold {
			rep.Removed = append(rep.Removed, report.ExcerptOf(ob))
		}
	}

	return rep
}
