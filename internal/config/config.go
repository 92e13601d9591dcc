package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/service"
	"github.com/ericogr/encounters/internal/storage"
)

type duelSection struct {
	MaxHP            *int     `json:"max_hp"`
	AttackMin        *int     `json:"attack_min"`
	AttackMax        *int     `json:"attack_max"`
	SpecialMin       *int     `json:"special_min"`
	SpecialMax       *int     `json:"special_max"`
	DefendFactor     *float64 `json:"defend_factor"`
	FirstTurnRate    *float64 `json:"first_turn_rate"`
	ChallengeSeconds int      `json:"challenge_seconds"`
	TurnSeconds      int      `json:"turn_seconds"`
	XPWinner         *int64   `json:"xp_winner"`
	XPLoser          *int64   `json:"xp_loser"`
	MaxWager         *int64   `json:"max_wager"`
}

type heistSection struct {
	MinSize        *int     `json:"min_size"`
	MaxSize        *int     `json:"max_size"`
	SuccessRate    *float64 `json:"success_rate"`
	RewardTotals   []int64  `json:"reward_totals"`
	FormingSeconds int      `json:"forming_seconds"`
	ActiveSeconds  int      `json:"active_seconds"`
	EntryFee       *int64   `json:"entry_fee"`
	XP             *int64   `json:"xp"`
	Bounty         *int64   `json:"bounty"`
	LootItemID     string   `json:"loot_item_id"`
}

type robberySection struct {
	CaptureRate  *float64 `json:"capture_rate"`
	EntryFee     *int64   `json:"entry_fee"`
	Bounty       *int64   `json:"bounty"`
	WantedBounty *int64   `json:"wanted_bounty"`
}

type punishmentSection struct {
	JailSeconds   int `json:"jail_seconds"`
	WantedSeconds int `json:"wanted_seconds"`
}

type economySection struct {
	StartingBalance *int64 `json:"starting_balance"`
	MaxBalance      *int64 `json:"max_balance"`
	XPPerLevel      *int64 `json:"xp_per_level"`
}

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	Duel       *duelSection       `json:"duel"`
	Heist      *heistSection      `json:"heist"`
	Robbery    *robberySection    `json:"robbery"`
	Punishment *punishmentSection `json:"punishment"`
	Economy    *economySection    `json:"economy"`
	// Cooldowns maps an action type (duel, heist, robbery) to seconds.
	Cooldowns map[string]int `json:"cooldowns"`
}

// LoadedConfig contains everything the server needs to start.
type LoadedConfig struct {
	ServerAddress string
	DBPath        string
	LogLevel      string
	JWTSecret     string
	Encounters    service.Config
	Storage       storage.Options
}

// envOverrides are read after the file and win over it.
type envOverrides struct {
	ConfigPath string `env:"ENCOUNTERS_CONFIG" envDefault:"./encounters_config.json"`
	Address    string `env:"ENCOUNTERS_ADDRESS"`
	DBPath     string `env:"ENCOUNTERS_DB" envDefault:"./data/encounters.db"`
	LogLevel   string `env:"ENCOUNTERS_LOG_LEVEL" envDefault:"info"`
	JWTSecret  string `env:"ENCOUNTERS_JWT_SECRET"`
}

// Load reads the environment, then the config file it points to, then
// applies the environment overrides. A missing config file means defaults.
func Load() (*LoadedConfig, error) {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg, err := LoadConfig(ov.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = FromBytes(nil)
	}
	if err != nil {
		return nil, err
	}
	if ov.Address != "" {
		cfg.ServerAddress = ov.Address
	}
	cfg.DBPath = ov.DBPath
	cfg.LogLevel = ov.LogLevel
	cfg.JWTSecret = ov.JWTSecret
	return cfg, nil
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := FromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// FromBytes parses a JSON document. Every section is optional; an empty
// document yields the shipped defaults.
func FromBytes(b []byte) (*LoadedConfig, error) {
	var rc rawConfig
	if len(strings.TrimSpace(string(b))) > 0 {
		if err := json.Unmarshal(b, &rc); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	enc := service.DefaultConfig()
	st := storage.DefaultOptions()
	addr := constants.DefaultAddress
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	if d := rc.Duel; d != nil {
		setInt(&enc.Duel.MaxHP, d.MaxHP)
		setInt(&enc.Duel.AttackMin, d.AttackMin)
		setInt(&enc.Duel.AttackMax, d.AttackMax)
		setInt(&enc.Duel.SpecialMin, d.SpecialMin)
		setInt(&enc.Duel.SpecialMax, d.SpecialMax)
		setFloat(&enc.Duel.DefendFactor, d.DefendFactor)
		setFloat(&enc.Duel.FirstTurnRate, d.FirstTurnRate)
		setSeconds(&enc.ChallengeWindow, d.ChallengeSeconds)
		setSeconds(&enc.TurnWindow, d.TurnSeconds)
		setInt64(&enc.DuelXPWinner, d.XPWinner)
		setInt64(&enc.DuelXPLoser, d.XPLoser)
		setInt64(&enc.MaxWager, d.MaxWager)
	}
	if h := rc.Heist; h != nil {
		setInt(&enc.Heist.MinSize, h.MinSize)
		setInt(&enc.Heist.MaxSize, h.MaxSize)
		setFloat(&enc.Heist.SuccessRate, h.SuccessRate)
		if len(h.RewardTotals) > 0 {
			enc.Heist.RewardTotals = append([]int64(nil), h.RewardTotals...)
		}
		setSeconds(&enc.FormingWindow, h.FormingSeconds)
		setSeconds(&enc.ActivePhase, h.ActiveSeconds)
		setInt64(&enc.HeistEntryFee, h.EntryFee)
		setInt64(&enc.HeistXP, h.XP)
		setInt64(&enc.HeistBounty, h.Bounty)
		enc.LootItemID = strings.TrimSpace(h.LootItemID)
	}
	if r := rc.Robbery; r != nil {
		setFloat(&enc.Heist.CaptureRate, r.CaptureRate)
		setInt64(&enc.RobberyFee, r.EntryFee)
		setInt64(&enc.RobberyBounty, r.Bounty)
		setInt64(&enc.WantedBounty, r.WantedBounty)
	}
	if p := rc.Punishment; p != nil {
		setSeconds(&st.PunishmentDuration, p.JailSeconds)
		setSeconds(&st.WantedDuration, p.WantedSeconds)
	}
	if e := rc.Economy; e != nil {
		setInt64(&st.StartingBalance, e.StartingBalance)
		setInt64(&st.MaxBalance, e.MaxBalance)
		setInt64(&st.XPPerLevel, e.XPPerLevel)
	}
	for action, secs := range rc.Cooldowns {
		if _, ok := enc.Cooldowns[action]; !ok {
			return nil, fmt.Errorf("unknown cooldown action type '%s'", action)
		}
		if secs < 0 {
			return nil, fmt.Errorf("cooldown for '%s' must not be negative", action)
		}
		enc.Cooldowns[action] = time.Duration(secs) * time.Second
	}

	cfg := &LoadedConfig{
		ServerAddress: addr,
		DBPath:        constants.DefaultDBPath,
		LogLevel:      "info",
		Encounters:    enc,
		Storage:       st,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *LoadedConfig) validate() error {
	d := c.Encounters.Duel
	if d.MaxHP <= 0 {
		return errors.New("duel.max_hp must be positive")
	}
	if d.AttackMin < 0 || d.AttackMax < d.AttackMin {
		return errors.New("duel attack range is invalid")
	}
	if d.SpecialMin < 0 || d.SpecialMax < d.SpecialMin {
		return errors.New("duel special range is invalid")
	}
	h := c.Encounters.Heist
	if h.MinSize < 2 || h.MaxSize > 4 || h.MinSize > h.MaxSize {
		return fmt.Errorf("heist party size must stay within 2..4, got %d..%d", h.MinSize, h.MaxSize)
	}
	for name, rate := range map[string]float64{
		"duel.defend_factor":   d.DefendFactor,
		"duel.first_turn_rate": d.FirstTurnRate,
		"heist.success_rate":   h.SuccessRate,
		"robbery.capture_rate": h.CaptureRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, rate)
		}
	}
	if len(h.RewardTotals) == 0 {
		return errors.New("heist.reward_totals must not be empty")
	}
	for _, t := range h.RewardTotals {
		if t < 0 {
			return errors.New("heist.reward_totals must not contain negative values")
		}
	}
	if c.Encounters.HeistEntryFee < 0 || c.Encounters.RobberyFee < 0 {
		return errors.New("entry fees must not be negative")
	}
	if c.Storage.StartingBalance < 0 || c.Storage.MaxBalance < 0 {
		return errors.New("economy balances must not be negative")
	}
	if c.Storage.XPPerLevel <= 0 {
		return errors.New("economy.xp_per_level must be positive")
	}
	e := c.Encounters
	for name, v := range map[string]int64{
		"duel.xp_winner":        e.DuelXPWinner,
		"duel.xp_loser":         e.DuelXPLoser,
		"duel.max_wager":        e.MaxWager,
		"heist.xp":              e.HeistXP,
		"heist.bounty":          e.HeistBounty,
		"robbery.bounty":        e.RobberyBounty,
		"robbery.wanted_bounty": e.WantedBounty,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Numeric settings are pointers so an explicit zero overrides the default.
func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, secs int) {
	if secs > 0 {
		*dst = time.Duration(secs) * time.Second
	}
}
