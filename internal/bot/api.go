// Package bot holds the decision stack: a tracker that mirrors the table
// from the event stream, a lookahead that ranks discards, an expected-value
// engine for the push/fold actions, and the agent that ties them together.
package bot

import (
	"context"

	"janshi/internal/bot/brain"
	"janshi/internal/domain"
)

// Objective is the placement goal steering the scorer.
type Objective uint8

const (
	ObjectiveAuto Objective = iota
	ObjectiveGoTop
	ObjectiveAvoidLast
	ObjectiveMaintain
)

func (o Objective) String() string {
	switch o {
	case ObjectiveGoTop:
		return "go_top"
	case ObjectiveAvoidLast:
		return "avoid_last"
	case ObjectiveMaintain:
		return "maintain"
	default:
		return "auto"
	}
}

// WaitClass buckets what kind of tile a tenpai hand waits on.
type WaitClass uint8

const (
	WaitUnknown WaitClass = iota
	WaitMiddle
	WaitEdge
	WaitTerminal
	WaitHonor
	WaitYakuhai
)

// YakuPotential carries soft 0..1 estimates of the cheap open-hand routes.
type YakuPotential struct {
	Tanyao        float64
	Honitsu       float64
	Toitoi        float64
	YakuhaiSeat   float64
	YakuhaiRound  float64
	YakuhaiDragon float64
}

// Best returns the strongest route estimate.
func (y YakuPotential) Best() float64 {
	best := y.Tanyao
	for _, v := range []float64{y.Honitsu, y.Toitoi, y.YakuhaiSeat, y.YakuhaiRound, y.YakuhaiDragon} {
		if v > best {
			best = v
		}
	}
	return best
}

// Context is everything the scorer reads at one decision point. The
// tracker assembles it; the policies treat it as read-only. Fields default
// through NewContext so a sparse caller still gets sane priors.
type Context struct {
	// Seats and the score table.
	Me      int
	Oya     int
	Players int
	Scores  []int
	Bakaze  domain.Tile
	Kyoku   int // 1-based hand within the round wind
	Round   int // 1-based hand since east 1
	Honba   int
	Kyotaku int

	// Clock.
	Turn      int // own discards so far
	TurnsLeft int
	LiveWall  int
	AllLast   bool

	// Hand estimates.
	WinRate       float64
	DealInRate    float64
	TempaiRate    float64
	BasePoints    float64
	Shanten       int
	Ukeire        int
	ClosedHand    bool
	ReachDeclared bool

	// Shape quality.
	Ryanmen         bool
	GoodWait        float64
	DoraVisible     int
	RedCount        int
	HiddenDora      int
	UraLuck         float64
	ImproveCount    int
	UpgradeNext2    float64
	NextTurnUpgrade float64
	GoodShapeQ      float64
	ShantenQ        float64
	RyanmenPot      float64
	RiskGradient    float64
	SafeNextCount   int
	WallInfo        float64

	// Seven-pairs line.
	Chitoi          bool
	ChitoiWaits     int
	TankiImprove    float64
	WaitKind        WaitClass
	DoraTouch       float64
	VisibleWaits    int
	BadWaitHardness float64

	// Own safety stock.
	SafetyScore   float64
	GenbutsuCount int
	SujiCount     int

	// Table pressure.
	ThreatActive    bool
	RiichiCount     int
	EarliestRiichi  int // discard count of the first declaration, -1
	TsumogiriStreak int // longest current streak among opponents
	OppAggression   float64
	OppDefense      float64
	RecentSafeShift bool
	LastCutYakuhai  bool
	NoSujiCount     int
	SafeSujiCount   int
	SharedSafeCount int

	// Calls.
	CallShapeGain float64
	Yaku          YakuPotential
	OtakazeCall   bool

	// Goals.
	Objective     Objective
	RankUpNeed    int
	NeedSecond    float64
	NeedTop       float64
	OyaFutureGain float64
	RenchanChance float64
	DrawRate      float64
	StasisTurns   int
	CoverageNext  float64
	CoverageNext2 float64
	TargetPoints  int
}

// NewContext returns a context primed with the neutral priors the scorer
// was calibrated against.
func NewContext() Context {
	return Context{
		Players:        4,
		Scores:         []int{25000, 25000, 25000, 25000},
		Bakaze:         domain.East,
		Kyoku:          1,
		Round:          1,
		TurnsLeft:      12,
		LiveWall:       70,
		WinRate:        0.18,
		DealInRate:     0.07,
		TempaiRate:     0.45,
		BasePoints:     2600,
		Shanten:        1,
		Ukeire:         8,
		ClosedHand:     true,
		SafetyScore:    0.5,
		GenbutsuCount:  3,
		SujiCount:      6,
		EarliestRiichi: -1,
	}
}

// Rank returns the 1-based placement of the own seat; ties break toward
// the earlier seat, the standard table rule.
func (c *Context) Rank() int {
	rank := 1
	my := c.Scores[c.Me]
	for seat, s := range c.Scores {
		if seat == c.Me {
			continue
		}
		if s > my || (s == my && seat < c.Me) {
			rank++
		}
	}
	return rank
}

// BestOther returns the highest opposing score.
func (c *Context) BestOther() int {
	best := 0
	first := true
	for seat, s := range c.Scores {
		if seat == c.Me {
			continue
		}
		if first || s > best {
			best = s
			first = false
		}
	}
	return best
}

// WorstOther returns the lowest opposing score.
func (c *Context) WorstOther() int {
	worst := 0
	first := true
	for seat, s := range c.Scores {
		if seat == c.Me {
			continue
		}
		if first || s < worst {
			worst = s
			first = false
		}
	}
	return worst
}

// LeadMargin is the gap to the strongest opponent, negative when behind.
func (c *Context) LeadMargin() int {
	return c.Scores[c.Me] - c.BestOther()
}

// DiffToAbove is the points needed to pass the seat one rank up, zero at
// the top.
func (c *Context) DiffToAbove() int {
	my := c.Scores[c.Me]
	best := -1
	for seat, s := range c.Scores {
		if seat == c.Me {
			continue
		}
		if s >= my && (best < 0 || s < best) {
			best = s
		}
	}
	if best < 0 {
		return 0
	}
	return best - my
}

// DiffToLast is the cushion over the lowest seat, zero when last.
func (c *Context) DiffToLast() int {
	my := c.Scores[c.Me]
	worst := c.WorstOther()
	if my <= worst {
		return 0
	}
	return my - worst
}

// IsDealer reports whether the own seat holds the deal.
func (c *Context) IsDealer() bool { return c.Me == c.Oya }

// MeldKind distinguishes the open set shapes.
type MeldKind uint8

const (
	MeldChi MeldKind = iota
	MeldPon
	MeldKanOpen
	MeldKanClosed
	MeldKanAdded
)

// Meld is one fixed set beside the hand.
type Meld struct {
	Kind  MeldKind
	Tiles []domain.Tile
	From  int // seat claimed from, -1 for closed kans
}

// Legal is the move mask for the current decision point.
type Legal struct {
	Discard   bool
	Riichi    bool
	Tsumo     bool
	Ron       bool
	Nuki      bool
	Chi       [][]domain.Tile // consumed pair options
	Pon       [][]domain.Tile
	Daiminkan [][]domain.Tile
	Ankan     [][]domain.Tile
	Kakan     []domain.Tile
	ClaimTile domain.Tile // tile being claimed or won on
	ClaimFrom int
}

// CanAct reports whether any move beyond a silent pass is available.
func (l *Legal) CanAct() bool {
	return l.Discard || l.Riichi || l.Tsumo || l.Ron || l.Nuki ||
		len(l.Chi) > 0 || len(l.Pon) > 0 || len(l.Daiminkan) > 0 ||
		len(l.Ankan) > 0 || len(l.Kakan) > 0
}

// Snapshot is one frozen decision point handed to a strategy.
type Snapshot struct {
	Seat   int
	Hand   []domain.Tile
	Drawn  domain.Tile // zero unless deciding on an own draw
	Melds  []Meld
	Legal  Legal
	View   *brain.TableView
	Paishu *brain.Paishu
	Ctx    Context

	// Events is the hand transcript so far, for backends that replay it.
	Events []domain.Event
}

// Strategy is a decision backend. The local stack implements it, and so
// does the external solver port; the agent falls back from one to the
// other.
type Strategy interface {
	Decide(ctx context.Context, snap *Snapshot) (domain.Decision, error)
}
