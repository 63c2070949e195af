package recon

// Acceptance thresholds for the fuzzy profile matcher. A pair matches when
// the mean per-field difference stays below matchThreshold and the name
// fields alone are at least nameThreshold similar. Blank fields on either
// side carry no information and are excluded from the distance sum rather
// than counted as mismatches.
const (
	matchThreshold = 0.40
	nameThreshold  = 0.55
)

// MatchResult is the outcome of comparing two identity tuples.
type MatchResult struct {
	IsMatch bool
	// TotalDifference is the sum of per-field normalized edit distances
	// over the fields that were actually comparable. Lower is closer; it
	// ranks candidate groups when several match.
	TotalDifference float64
}

// MatchIdentity decides whether two identity tuples denote the same
// real-world trading partner. Both tuples must already be normalized.
func MatchIdentity(a, b IdentityTuple) MatchResult {
	// A blank name on either side never matches: without a name the other
	// fields cannot keep unrelated blank profiles from collapsing into one.
	if a.Name == "" || b.Name == "" {
		return MatchResult{}
	}

	nameSim := levenshteinSimilarity(a.Name, b.Name)
	total := 1 - nameSim
	compared := 1

	for _, pair := range [...][2]string{
		{a.FatherOrSpouseName, b.FatherOrSpouseName},
		{a.Address, b.Address},
		{a.Contact, b.Contact},
	} {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		total += 1 - levenshteinSimilarity(pair[0], pair[1])
		compared++
	}

	mean := total / float64(compared)
	return MatchResult{
		IsMatch:         nameSim >= nameThreshold && mean < matchThreshold,
		TotalDifference: total,
	}
}

// levenshteinSimilarity returns 1 for identical strings and degrades toward
// 0 with edit distance, normalized by the longer rune length.
func levenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ar := []rune(a)
	br := []rune(b)
	longer := len(ar)
	if len(br) > longer {
		longer = len(br)
	}
	if longer == 0 {
		return 1
	}
	sim := 1 - float64(levenshteinDistance(ar, br))/float64(longer)
	if sim < 0 {
		return 0
	}
	return sim
}

func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
