package shape

import (
	"sync"

	"janshi/internal/domain"
)

// Candidate is one discard from a 14-tile hand that leaves a waiting hand.
type Candidate struct {
	Discard int   // 34-index of the discard
	Waits   []int // 34-indexes the remaining hand waits on
	Ukeire  int   // live copies of those waits
}

var _ Estimator = (*Searcher)(nil)

// Searcher answers exact shanten, agari and wait queries with memoization.
// Safe for concurrent use.
type Searcher struct {
	mu           sync.RWMutex
	shantenCache map[string]int
	agariCache   map[string]bool
	waitsCache   map[string][]int
}

func NewSearcher() *Searcher {
	return &Searcher{
		shantenCache: make(map[string]int, 4096),
		agariCache:   make(map[string]bool, 4096),
		waitsCache:   make(map[string][]int, 4096),
	}
}

// Shanten returns the exact shanten of the concealed hand, -1 when it is
// already complete. Chiitoi and kokushi count only for fully closed hands.
func (s *Searcher) Shanten(h Hand34, fixedMelds int) int {
	key := h.key(fixedMelds)
	s.mu.RLock()
	if v, ok := s.shantenCache[key]; ok {
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	best := shantenNormal(h, fixedMelds)
	if fixedMelds == 0 {
		if v := ShantenChiitoi(h); v < best {
			best = v
		}
		if v := ShantenKokushi(h); v < best {
			best = v
		}
	}

	s.mu.Lock()
	s.shantenCache[key] = best
	s.mu.Unlock()
	return best
}

// Improvers lists the draws that lower the exact shanten.
func (s *Searcher) Improvers(h Hand34, fixedMelds int) []int {
	base := s.Shanten(h, fixedMelds)
	var out []int
	for t := 0; t < 34; t++ {
		if h[t] >= 4 {
			continue
		}
		work := h
		work[t]++
		if s.Shanten(work, fixedMelds) < base {
			out = append(out, t)
		}
	}
	return out
}

// IsAgari reports whether the hand is complete. Chiitoi and kokushi apply
// only with no open melds.
func (s *Searcher) IsAgari(h Hand34, fixedMelds int) bool {
	key := h.key(fixedMelds)
	s.mu.RLock()
	if v, ok := s.agariCache[key]; ok {
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	ok := isAgariNormal(h, fixedMelds)
	if !ok && fixedMelds == 0 {
		ok = IsAgariChiitoi(h) || IsAgariKokushi(h)
	}

	s.mu.Lock()
	s.agariCache[key] = ok
	s.mu.Unlock()
	return ok
}

// Waits enumerates the tiles completing a 13-tile hand, plus the live-copy
// count of those tiles given what is visible elsewhere.
func (s *Searcher) Waits(h13 Hand34, fixedMelds int, visible *[34]uint8) ([]int, int) {
	key := h13.key(fixedMelds)
	s.mu.RLock()
	if v, ok := s.waitsCache[key]; ok {
		waits := append([]int(nil), v...)
		s.mu.RUnlock()
		return waits, s.ukeireByWaits(h13, waits, visible)
	}
	s.mu.RUnlock()

	var waits []int
	for t := 0; t < 34; t++ {
		if h13[t] >= 4 {
			continue
		}
		work := h13
		work[t]++
		if s.IsAgari(work, fixedMelds) {
			waits = append(waits, t)
		}
	}

	s.mu.Lock()
	s.waitsCache[key] = append([]int(nil), waits...)
	s.mu.Unlock()

	return waits, s.ukeireByWaits(h13, waits, visible)
}

// SeekCandidates lists every discard from a 14-tile hand that leaves the
// hand waiting.
func (s *Searcher) SeekCandidates(h14 Hand34, fixedMelds int, visible *[34]uint8) []Candidate {
	var out []Candidate
	for i := 0; i < 34; i++ {
		if h14[i] == 0 {
			continue
		}
		h13 := h14
		h13[i]--
		waits, ukeire := s.Waits(h13, fixedMelds, visible)
		if len(waits) == 0 {
			continue
		}
		out = append(out, Candidate{Discard: i, Waits: waits, Ukeire: ukeire})
	}
	return out
}

func (s *Searcher) ukeireByWaits(h13 Hand34, waits []int, visible *[34]uint8) int {
	ukeire := 0
	for _, t := range waits {
		add := 4 - int(h13[t])
		if visible != nil {
			add -= int((*visible)[t])
		}
		if add > 0 {
			ukeire += add
		}
	}
	return ukeire
}

func (h Hand34) key(fixedMelds int) string {
	var b [35]byte
	for i := 0; i < 34; i++ {
		b[i] = h[i]
	}
	b[34] = byte(fixedMelds)
	return string(b[:])
}

func isAgariNormal(h Hand34, fixedMelds int) bool {
	need := 4 - fixedMelds
	if need < 0 {
		return false
	}
	for j := 0; j < 34; j++ {
		if h[j] < 2 {
			continue
		}
		work := h
		work[j] -= 2
		if canFormMelds(&work, need) {
			return true
		}
	}
	return false
}

func IsAgariChiitoi(h Hand34) bool {
	pairs := 0
	for i := 0; i < 34; i++ {
		pairs += int(h[i] / 2)
	}
	return pairs >= 7
}

func IsAgariKokushi(h Hand34) bool {
	unique := 0
	pair := false
	for _, idx := range kokushiIndexes {
		if h[idx] > 0 {
			unique++
			if h[idx] >= 2 {
				pair = true
			}
		}
	}
	return unique == 13 && pair
}

func canFormMelds(h *Hand34, need int) bool {
	if need == 0 {
		for i := 0; i < 34; i++ {
			if (*h)[i] != 0 {
				return false
			}
		}
		return true
	}

	i := -1
	for k := 0; k < 34; k++ {
		if (*h)[k] > 0 {
			i = k
			break
		}
	}
	if i == -1 {
		return false
	}
	if (*h)[i] >= 3 {
		(*h)[i] -= 3
		if canFormMelds(h, need-1) {
			(*h)[i] += 3
			return true
		}
		(*h)[i] += 3
	}
	if isNumberIndex(i) && i+2 < 34 && suitOfIndex(i) == suitOfIndex(i+2) {
		if (*h)[i] > 0 && (*h)[i+1] > 0 && (*h)[i+2] > 0 {
			(*h)[i]--
			(*h)[i+1]--
			(*h)[i+2]--
			if canFormMelds(h, need-1) {
				(*h)[i]++
				(*h)[i+1]++
				(*h)[i+2]++
				return true
			}
			(*h)[i]++
			(*h)[i+1]++
			(*h)[i+2]++
		}
	}
	return false
}

func ShantenChiitoi(h Hand34) int {
	pairs := 0
	unique := 0
	for i := 0; i < 34; i++ {
		if h[i] > 0 {
			unique++
		}
		pairs += int(h[i] / 2)
	}
	sh := 6 - pairs
	if unique < 7 {
		sh += 7 - unique
	}
	return sh
}

func ShantenKokushi(h Hand34) int {
	unique := 0
	pair := false
	for _, idx := range kokushiIndexes {
		if h[idx] > 0 {
			unique++
			if h[idx] >= 2 {
				pair = true
			}
		}
	}
	sh := 13 - unique
	if pair {
		sh--
	}
	return sh
}

func shantenNormal(h Hand34, fixedMelds int) int {
	best := 8
	work := h
	dfsShanten(&work, fixedMelds, 0, 0, &best)
	return best
}

// dfsShanten walks every decomposition at the first occupied index:
// triplet, sequence, the pair head, a pair kept as a partial triplet,
// the two sequence partials, or dropping the tile. m counts melds (open
// ones included), p the head, t the partial sets.
func dfsShanten(h *Hand34, m, p, t int, best *int) {
	if m > 4 {
		return
	}
	t2 := t
	if limit := 4 - m; t2 > limit {
		t2 = limit
	}
	if sh := 8 - 2*m - t2 - p; sh < *best {
		*best = sh
	}

	i := -1
	for k := 0; k < 34; k++ {
		if (*h)[k] > 0 {
			i = k
			break
		}
	}
	if i == -1 {
		return
	}

	if (*h)[i] >= 3 {
		(*h)[i] -= 3
		dfsShanten(h, m+1, p, t, best)
		(*h)[i] += 3
	}
	if (*h)[i] >= 2 {
		(*h)[i] -= 2
		if p == 0 {
			dfsShanten(h, m, 1, t, best)
		}
		dfsShanten(h, m, p, t+1, best)
		(*h)[i] += 2
	}
	if isNumberIndex(i) && i+2 < 34 && suitOfIndex(i) == suitOfIndex(i+2) {
		if (*h)[i] > 0 && (*h)[i+1] > 0 && (*h)[i+2] > 0 {
			(*h)[i]--
			(*h)[i+1]--
			(*h)[i+2]--
			dfsShanten(h, m+1, p, t, best)
			(*h)[i]++
			(*h)[i+1]++
			(*h)[i+2]++
		}
	}
	if isNumberIndex(i) && i+1 < 34 && suitOfIndex(i) == suitOfIndex(i+1) {
		if (*h)[i] > 0 && (*h)[i+1] > 0 {
			(*h)[i]--
			(*h)[i+1]--
			dfsShanten(h, m, p, t+1, best)
			(*h)[i]++
			(*h)[i+1]++
		}
	}
	if isNumberIndex(i) && i+2 < 34 && suitOfIndex(i) == suitOfIndex(i+2) {
		if (*h)[i] > 0 && (*h)[i+2] > 0 {
			(*h)[i]--
			(*h)[i+2]--
			dfsShanten(h, m, p, t+1, best)
			(*h)[i]++
			(*h)[i+2]++
		}
	}

	(*h)[i]--
	dfsShanten(h, m, p, t, best)
	(*h)[i]++
}

var kokushiIndexes = [13]int{
	domain.MustTile("1m").Index34(), domain.MustTile("9m").Index34(),
	domain.MustTile("1p").Index34(), domain.MustTile("9p").Index34(),
	domain.MustTile("1s").Index34(), domain.MustTile("9s").Index34(),
	domain.East.Index34(), domain.South.Index34(), domain.West.Index34(), domain.North.Index34(),
	domain.Haku.Index34(), domain.Hatsu.Index34(), domain.Chun.Index34(),
}
