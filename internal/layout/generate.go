package layout

import "github.com/danielpatrickdp/balance-strategy/internal/coin"

// #region generate
// Generate enumerates every legal weighing for a suspect multiset.
//
// Pans hold 1, 2, ... coins each while the scale holds at most
// min(2*|suspects|, population) coins. No state is used more often than it is
// available, genuine coins only ever go on pan B (at most genuineAvailable of
// them), and a layout whose mirror was already produced is skipped: weighing B
// against A tells nothing that A against B does not.
func Generate(suspects Counts, population, genuineAvailable int) []Layout {
	suspects = suspects.Suspects()
	states := suspects.Distinct()
	maxOnScale := min(2*suspects.Total(), population)
	genuineAvailable = max(genuineAvailable, 0)

	aCaps := make([]int, len(states))
	for i, s := range states {
		aCaps[i] = suspects[s]
	}

	seen := make(map[string]bool)
	var out []Layout
	for perPan := 1; 2*perPan <= maxOnScale; perPan++ {
		for _, av := range compositions(perPan, aCaps) {
			var aCounts Counts
			bCaps := make([]int, len(states)+1)
			for i, s := range states {
				aCounts[s] = av[i]
				bCaps[i] = suspects[s] - av[i]
			}
			bCaps[len(states)] = genuineAvailable

			for _, bv := range compositions(perPan, bCaps) {
				var bCounts Counts
				for i, s := range states {
					bCounts[s] = bv[i]
				}
				bCounts[coin.Genuine] = bv[len(states)]

				// Nothing but genuine coins on the scale tells nothing.
				if aCounts.Suspects().Total()+bCounts.Suspects().Total() == 0 {
					continue
				}

				l := Layout{A: aCounts.Expand(), B: bCounts.Expand()}
				fp := l.Fingerprint()
				if seen[fp] || seen[l.Mirror().Fingerprint()] {
					continue
				}
				seen[fp] = true
				out = append(out, l)
			}
		}
	}
	return out
}

// #endregion generate

// #region compositions
// compositions lists every vector v with sum(v) == total and 0 <= v[i] <= caps[i].
func compositions(total int, caps []int) [][]int {
	var out [][]int
	cur := make([]int, len(caps))
	var walk func(i, left int)
	walk = func(i, left int) {
		if i == len(caps) {
			if left == 0 {
				out = append(out, append([]int(nil), cur...))
			}
			return
		}
		for v := min(left, caps[i]); v >= 0; v-- {
			cur[i] = v
			walk(i+1, left-v)
		}
		cur[i] = 0
	}
	walk(0, total)
	return out
}

// #endregion compositions
