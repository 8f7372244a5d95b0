package bot

import (
	"janshi/internal/config"
)

// Tuning carries the knobs of the discard search and the push/fold
// weighting. A Tuning is built once per agent and never mutated after;
// policies receive it by value.
type Tuning struct {
	// Discard lookahead.
	MaxShantenLookahead int
	Width               [3]float64 // shape weight by shanten 0..2
	ShapeWeight         float64
	ScoreWeight         float64
	DefenseWeight       float64
	DoraWeight          float64
	AkaWeight           float64

	// Riichi and call gates.
	RiichiMinGain       float64
	AllowBadWaitEarly   bool
	BadWaitWallFloor    int
	PushThreshold       float64
	KanUraBonus         float64
	KanRiskPenalty      float64
	RiichiDangerPenalty float64
	ThreatScale         float64

	// Placement pressure, bracketed by the gap to the seat below.
	PlacementBrackets   [2]int
	PlacementDefense    [3]float64
	PlacementPush       [3]float64
	PlacementGain       [3]float64
	LastPlaceAggression float64
	SouthDefense        float64

	// Expected deal-in losses and lead handling.
	DealInChild      float64
	DealInParent     float64
	LastSafeCap      float64
	LeadSafeMargin   int
	LeadDefenseBonus float64
	LastRiichiDrop   float64

	// Score-level flags, uma and per-action scales.
	Engine config.Engine
}

// baseTuning is the balance preset; the other styles shift seven knobs.
func baseTuning(eng config.Engine) Tuning {
	return Tuning{
		MaxShantenLookahead: 2,
		Width:               [3]float64{1.00, 0.85, 0.72},
		ShapeWeight:         1.0,
		ScoreWeight:         0.32,
		DefenseWeight:       0.52,
		DoraWeight:          0.25,
		AkaWeight:           0.20,

		RiichiMinGain:       0.42,
		AllowBadWaitEarly:   true,
		BadWaitWallFloor:    30,
		PushThreshold:       0.28,
		KanUraBonus:         0.10,
		KanRiskPenalty:      0.07,
		RiichiDangerPenalty: 0.20,
		ThreatScale:         1.10,

		PlacementBrackets:   [2]int{2000, 5000},
		PlacementDefense:    [3]float64{1.5, 1.25, 1.0},
		PlacementPush:       [3]float64{0.12, 0.06, 0},
		PlacementGain:       [3]float64{0.18, 0.07, 0},
		LastPlaceAggression: 0.08,
		SouthDefense:        0.07,

		DealInChild:      3900,
		DealInParent:     5800,
		LastSafeCap:      0.6,
		LeadSafeMargin:   6000,
		LeadDefenseBonus: 0.10,
		LastRiichiDrop:   0.10,

		Engine: eng,
	}
}

// StyleTuning returns the preset for a style name. Unknown styles fall
// back to balance.
func StyleTuning(style string, eng config.Engine) Tuning {
	t := baseTuning(eng)
	switch style {
	case "attack":
		t.ScoreWeight = 0.42
		t.DefenseWeight = 0.38
		t.RiichiMinGain = 0.33
		t.PushThreshold = 0.23
		t.RiichiDangerPenalty = 0.16
		t.ThreatScale = 0.9
		t.SouthDefense = 0.04
	case "defense":
		t.ScoreWeight = 0.28
		t.DefenseWeight = 0.58
		t.RiichiMinGain = 0.46
		t.PushThreshold = 0.30
		t.RiichiDangerPenalty = 0.24
		t.ThreatScale = 1.20
		t.SouthDefense = 0.09
	}
	return t
}
