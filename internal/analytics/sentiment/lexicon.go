package sentiment

// lexicon maps lowercase tokens to a valence in [-1, 1]. The weights follow
// the usual AFINN convention (integer -5..5) scaled down to the unit range.
var lexicon = map[string]float64{
	"amazing":        0.8,
	"awesome":        0.8,
	"excellent":      0.8,
	"fantastic":      0.8,
	"outstanding":    1.0,
	"perfect":        0.6,
	"superb":         1.0,
	"wonderful":      0.8,
	"brilliant":      0.8,
	"incredible":     0.8,
	"love":           0.6,
	"loved":          0.6,
	"loves":          0.6,
	"best":           0.6,
	"great":          0.6,
	"impressive":     0.6,
	"delightful":     0.6,
	"happy":          0.6,
	"pleased":        0.6,
	"satisfied":      0.4,
	"recommend":      0.4,
	"recommended":    0.4,
	"good":           0.6,
	"nice":           0.6,
	"solid":          0.4,
	"useful":         0.4,
	"helpful":        0.4,
	"reliable":       0.4,
	"sturdy":         0.4,
	"comfortable":    0.4,
	"easy":           0.4,
	"fast":           0.4,
	"quick":          0.4,
	"smooth":         0.4,
	"beautiful":      0.6,
	"gorgeous":       0.6,
	"clean":          0.4,
	"worth":          0.4,
	"value":          0.2,
	"fine":           0.2,
	"works":          0.2,
	"working":        0.2,
	"decent":         0.2,
	"okay":           0.2,
	"ok":             0.2,
	"enjoy":          0.6,
	"enjoyed":        0.6,
	"glad":           0.6,
	"favorite":       0.6,
	"quality":        0.2,
	"durable":        0.4,
	"bargain":        0.4,
	"cheap":          -0.2,
	"flimsy":         -0.4,
	"mediocre":       -0.2,
	"average":        -0.1,
	"bad":            -0.6,
	"poor":           -0.4,
	"worse":          -0.6,
	"worst":          -0.6,
	"terrible":       -0.6,
	"horrible":       -0.6,
	"awful":          -0.6,
	"disgusting":     -0.6,
	"dreadful":       -0.6,
	"useless":        -0.4,
	"broken":         -0.4,
	"breaks":         -0.4,
	"broke":          -0.4,
	"defective":      -0.6,
	"faulty":         -0.4,
	"disappointed":   -0.4,
	"disappointing":  -0.4,
	"disappointment": -0.4,
	"frustrating":    -0.4,
	"frustrated":     -0.4,
	"annoying":       -0.4,
	"annoyed":        -0.4,
	"hate":           -0.6,
	"hated":          -0.6,
	"regret":         -0.4,
	"waste":          -0.4,
	"wasted":         -0.4,
	"slow":           -0.2,
	"noisy":          -0.2,
	"loud":           -0.2,
	"uncomfortable":  -0.4,
	"difficult":      -0.2,
	"hard":           -0.2,
	"confusing":      -0.4,
	"misleading":     -0.6,
	"overpriced":     -0.4,
	"expensive":      -0.2,
	"refund":         -0.4,
	"return":         -0.2,
	"returned":       -0.2,
	"returning":      -0.2,
	"scam":           -0.8,
	"fraud":          -0.8,
	"junk":           -0.6,
	"garbage":        -0.6,
	"trash":          -0.6,
	"fail":           -0.4,
	"failed":         -0.4,
	"fails":          -0.4,
	"failure":        -0.4,
	"problem":        -0.4,
	"problems":       -0.4,
	"issue":          -0.2,
	"issues":         -0.2,
	"damaged":        -0.6,
	"missing":        -0.4,
	"late":           -0.2,
	"wrong":          -0.4,
	"error":          -0.4,
	"errors":         -0.4,
	"stuck":          -0.4,
	"leaks":          -0.4,
	"leaked":         -0.4,
	"smells":         -0.2,
	"stopped":        -0.2,
	"died":           -0.6,
	"dead":           -0.6,
}

// negators flip the valence of sentiment-bearing words that follow within
// negationWindow tokens.
var negators = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"n't":     {},
	"neither": {},
	"nor":     {},
	"hardly":  {},
	"barely":  {},
	"without": {},
	"cannot":  {},
	"can't":   {},
	"won't":   {},
	"don't":   {},
	"doesn't": {},
	"didn't":  {},
	"isn't":   {},
	"wasn't":  {},
	"aren't":  {},
}

// boosters scale the valence of the word immediately after them.
var boosters = map[string]float64{
	"very":       1.25,
	"really":     1.25,
	"extremely":  1.5,
	"incredibly": 1.5,
	"absolutely": 1.5,
	"totally":    1.25,
	"so":         1.25,
	"quite":      1.1,
	"pretty":     1.1,
	"somewhat":   0.75,
	"slightly":   0.5,
	"a":          1.0,
	"bit":        0.5,
	"fairly":     0.9,
}
