package tuning

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Settings configures the binaries. None of it reaches the simulation.
type Settings struct {
	SaveDir    string `yaml:"save_dir"`
	DataDir    string `yaml:"data_dir"`
	ListenAddr string `yaml:"listen_addr"`
	WSAddr     string `yaml:"ws_addr"`
	// Volume is kept for the presentation layer, 0..100.
	Volume int `yaml:"volume"`

	Index IndexSettings `yaml:"index"`
}

type IndexSettings struct {
	// Backend is "sqlite", "postgres" or "none".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
}

func DefaultSettings() Settings {
	return Settings{
		SaveDir:    "savegames",
		DataDir:    "data",
		ListenAddr: "127.0.0.1:6666",
		Volume:     100,
		Index:      IndexSettings{Backend: "sqlite", Path: "data/index.sqlite"},
	}
}

// LoadSettings reads path over the defaults. A missing file gives the
// defaults unchanged.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if err := load(path, "settings.schema.json", &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return s, err
	}
	s.Volume = clamp(s.Volume, 0, 100)
	return s, nil
}

// Skirmish is the yaml form of a fresh battle's settings.
type Skirmish struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	PlayerAUnits int    `yaml:"player_a_units"`
	PlayerBUnits int    `yaml:"player_b_units"`
	PlayerAType  string `yaml:"player_a_type"`
	PlayerBType  string `yaml:"player_b_type"`
	Light        int    `yaml:"light"`
}

func DefaultSkirmish() Skirmish {
	return Skirmish{
		Width:        30,
		Height:       30,
		PlayerAUnits: 6,
		PlayerBUnits: 4,
		PlayerAType:  "squaddie",
		PlayerBType:  "machine",
		Light:        10,
	}
}

func LoadSkirmish(path string) (Skirmish, error) {
	s := DefaultSkirmish()
	if err := load(path, "skirmish.schema.json", &s); err != nil {
		return s, err
	}
	return s, nil
}

// Rule is one doctrine entry: when the condition holds the action is tried.
type Rule struct {
	Name   string `yaml:"name"`
	When   string `yaml:"when"`
	Action string `yaml:"action"`
}

type Doctrine struct {
	Name string `yaml:"name"`
	// RepositionBelow is the chance to hit under which a unit looks for a
	// better firing position.
	RepositionBelow float64 `yaml:"reposition_below"`
	Rules           []Rule  `yaml:"rules"`
}

func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:            "default",
		RepositionBelow: 0.25,
		Rules: []Rule{
			{Name: "reload-empty", When: "Ammo == 0 && CanReload", Action: "reload"},
			{Name: "patch-up", When: "CanHeal", Action: "heal"},
			{Name: "look-around", When: "EnemiesVisible == 0", Action: "search"},
			{Name: "close-in", When: "ChanceToHit < RepositionBelow", Action: "reposition"},
			{Name: "shoot", When: "CanFire", Action: "fire"},
		},
	}
}

func LoadDoctrine(path string) (Doctrine, error) {
	var d Doctrine
	if err := load(path, "doctrine.schema.json", &d); err != nil {
		return d, err
	}
	if d.RepositionBelow == 0 {
		d.RepositionBelow = DefaultDoctrine().RepositionBelow
	}
	return d, nil
}

func load(path, schema string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Validate(schema, raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks a yaml document against one of the embedded schemas.
func Validate(schema string, raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yaml to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	s, err := compile(schema)
	if err != nil {
		return err
	}
	return s.Validate(v)
}

func compile(name string) (*jsonschema.Schema, error) {
	src, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(src)); err != nil {
		return nil, err
	}
	return c.Compile(name)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Battle converts to the simulation's settings. Unknown unit types fall back
// to the defaults when the battle clamps them.
func (s Skirmish) Battle() battle.Skirmish {
	a, _ := units.ParseUnitType(s.PlayerAType)
	b, _ := units.ParseUnitType(s.PlayerBType)
	return battle.Skirmish{
		Width:        s.Width,
		Height:       s.Height,
		PlayerAUnits: s.PlayerAUnits,
		PlayerBUnits: s.PlayerBUnits,
		PlayerAType:  a,
		PlayerBType:  b,
		Light:        s.Light,
	}.Clamped()
}
