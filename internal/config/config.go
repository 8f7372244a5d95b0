// Package config loads the agent configuration once at startup. Scoring code
// never reads the process environment; it receives an immutable Config (or a
// Tuning derived from it) and stays a pure function of its inputs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration tree. Zero values are never used directly;
// build one through Load or Default so every field carries its default.
type Config struct {
	Log       Log       `mapstructure:"log"`
	Agent     Agent     `mapstructure:"agent"`
	Engine    Engine    `mapstructure:"engine"`
	Danger    Danger    `mapstructure:"danger"`
	LastAvoid LastAvoid `mapstructure:"last_avoid"`
	Bridge    Bridge    `mapstructure:"bridge"`
	Redis     Redis     `mapstructure:"redis"`
	Solver    Solver    `mapstructure:"solver"`
	Debug     Debug     `mapstructure:"debug"`
}

type Log struct {
	Prefix string `mapstructure:"prefix"`
	Level  string `mapstructure:"level"`
}

type Agent struct {
	// Style selects a tuning preset: attack, defense or balance.
	Style string `mapstructure:"style"`
	// Estimator selects the shape estimator: heuristic or exact.
	Estimator string `mapstructure:"estimator"`
}

// Engine carries every tunable of the expected-value engine. Defaults are the
// calibrated values the policies were tuned with; override sparingly.
type Engine struct {
	TableSpeedMul        float64 `mapstructure:"table_speed_mul"`
	DefendValueScalar    float64 `mapstructure:"defend_value_scalar"`
	LastEscapeBonus      float64 `mapstructure:"last_escape_bonus"`
	PlacementWeight      float64 `mapstructure:"placement_weight"`
	UmaTop               float64 `mapstructure:"uma_top"`
	UmaSecond            float64 `mapstructure:"uma_second"`
	UmaThird             float64 `mapstructure:"uma_third"`
	UmaLast              float64 `mapstructure:"uma_last"`
	UmaPointUnit         float64 `mapstructure:"uma_point_unit"`
	OyaPlacementWinMul   float64 `mapstructure:"oya_placement_win_mul"`
	OyaPlacementLossMul  float64 `mapstructure:"oya_placement_loss_mul"`
	OyaRenchanPlacementK float64 `mapstructure:"oya_renchan_placement_k"`
	WestInTarget         int     `mapstructure:"west_in_target"`
	AllowAgariyame       bool    `mapstructure:"allow_agariyame"`
	AllowTenpaiyame      bool    `mapstructure:"allow_tenpaiyame"`
	SuddenDeathAfterWest bool    `mapstructure:"sudden_death_after_west"`
	CallNoYakuWinMul     float64 `mapstructure:"call_no_yaku_win_mul"`
	CallNoYakuBpMul      float64 `mapstructure:"call_no_yaku_bp_mul"`
	DamaNoYakuWinMul     float64 `mapstructure:"dama_no_yaku_win_mul"`
	DamaNoYakuBpMul      float64 `mapstructure:"dama_no_yaku_bp_mul"`
	ScaleReach           float64 `mapstructure:"scale_reach"`
	ScaleDama            float64 `mapstructure:"scale_dama"`
	ScaleCall            float64 `mapstructure:"scale_call"`
	ScaleKan             float64 `mapstructure:"scale_kan"`
	InitLiveTiles4P      int     `mapstructure:"init_live_tiles_4p"`
	InitLiveTiles3P      int     `mapstructure:"init_live_tiles_3p"`
}

// Danger tunes the per-tile danger estimator.
type Danger struct {
	HonorBaseBonus          float64 `mapstructure:"honor_base_bonus"`
	HonorSeen2Bonus         float64 `mapstructure:"honor_seen2_bonus"`
	HonorSeen3Bonus         float64 `mapstructure:"honor_seen3_bonus"`
	HonorEndgameBoost       float64 `mapstructure:"honor_endgame_boost"`
	HonorDoraPenalty        float64 `mapstructure:"honor_dora_penalty"`
	HonorYakuhaiUnseenPenal float64 `mapstructure:"honor_yakuhai_unseen_penal"`
	EarlyDealerRiichiTurn   int     `mapstructure:"early_dealer_riichi_turn"`
	EarlyDealerRiichiAdd    float64 `mapstructure:"early_dealer_riichi_add"`
}

// LastAvoid tunes the last-place-avoidance discard selector.
type LastAvoid struct {
	Enabled             bool    `mapstructure:"enabled"`
	DangerThresholdHigh float64 `mapstructure:"danger_threshold_high"`
	DangerThresholdLow  float64 `mapstructure:"danger_threshold_low"`
	MustFoldPointDiff   int     `mapstructure:"must_fold_point_diff"`
	CanEscapePointDiff  int     `mapstructure:"can_escape_point_diff"`
}

type Bridge struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Solver struct {
	// Path to the external solver executable; empty disables it.
	Path string `mapstructure:"path"`
}

type Debug struct {
	// StatsAddr serves runtime metrics when non-empty, e.g. ":8090".
	StatsAddr string `mapstructure:"stats_addr"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("JANSHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.prefix", "janshi")
	v.SetDefault("log.level", "info")

	v.SetDefault("agent.style", "attack")
	v.SetDefault("agent.estimator", "heuristic")

	v.SetDefault("engine.table_speed_mul", 1.0)
	v.SetDefault("engine.defend_value_scalar", 1.05)
	v.SetDefault("engine.last_escape_bonus", 1.10)
	v.SetDefault("engine.placement_weight", 0.35)
	v.SetDefault("engine.uma_top", 15.0)
	v.SetDefault("engine.uma_second", 5.0)
	v.SetDefault("engine.uma_third", -5.0)
	v.SetDefault("engine.uma_last", -15.0)
	v.SetDefault("engine.uma_point_unit", 1000.0)
	v.SetDefault("engine.oya_placement_win_mul", 1.08)
	v.SetDefault("engine.oya_placement_loss_mul", 1.02)
	v.SetDefault("engine.oya_renchan_placement_k", 800.0)
	v.SetDefault("engine.west_in_target", 30000)
	v.SetDefault("engine.allow_agariyame", true)
	v.SetDefault("engine.allow_tenpaiyame", true)
	v.SetDefault("engine.sudden_death_after_west", true)
	v.SetDefault("engine.call_no_yaku_win_mul", 0.2)
	v.SetDefault("engine.call_no_yaku_bp_mul", 0.85)
	v.SetDefault("engine.dama_no_yaku_win_mul", 0.4)
	v.SetDefault("engine.dama_no_yaku_bp_mul", 0.9)
	v.SetDefault("engine.scale_reach", 1.0)
	v.SetDefault("engine.scale_dama", 1.0)
	v.SetDefault("engine.scale_call", 1.0)
	v.SetDefault("engine.scale_kan", 0.98)
	v.SetDefault("engine.init_live_tiles_4p", 70)
	v.SetDefault("engine.init_live_tiles_3p", 83)

	v.SetDefault("danger.honor_base_bonus", 0.08)
	v.SetDefault("danger.honor_seen2_bonus", 0.05)
	v.SetDefault("danger.honor_seen3_bonus", 0.15)
	v.SetDefault("danger.honor_endgame_boost", 1.3)
	v.SetDefault("danger.honor_dora_penalty", 0.18)
	v.SetDefault("danger.honor_yakuhai_unseen_penal", 0.06)
	v.SetDefault("danger.early_dealer_riichi_turn", 8)
	v.SetDefault("danger.early_dealer_riichi_add", 0.10)

	v.SetDefault("last_avoid.enabled", true)
	v.SetDefault("last_avoid.danger_threshold_high", 0.5)
	v.SetDefault("last_avoid.danger_threshold_low", 0.8)
	v.SetDefault("last_avoid.must_fold_point_diff", 8000)
	v.SetDefault("last_avoid.can_escape_point_diff", 2000)

	v.SetDefault("bridge.url", "nats://127.0.0.1:4222")
	v.SetDefault("bridge.subject", "janshi")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("solver.path", "")

	v.SetDefault("debug.stats_addr", "")

	return v
}

// Load reads the config file at path (any format viper understands) over the
// defaults and the environment (JANSHI_ prefix, dots become underscores).
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Unmarshal of pure defaults cannot fail; keep the signature clean.
		panic(err)
	}
	return cfg
}
