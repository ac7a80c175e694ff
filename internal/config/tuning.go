package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// Tuning holds the planner heuristics operators may change without a deploy.
type Tuning struct {
	Putaway  PutawayTuning  `toml:"putaway"`
	Picking  PickingTuning  `toml:"picking"`
	Slotting SlottingTuning `toml:"slotting"`
}

type PutawayTuning struct {
	DefaultStrategy string            `toml:"default_strategy"`
	DefaultZone     string            `toml:"default_zone"`
	Weights         WeightsTuning     `toml:"weights"`
	CategoryZones   map[string]string `toml:"category_zones"`
}

// WeightsTuning parameterizes the DIRECTED score:
// base + holds_item*[holds] + zone_match*[zone] - qty_penalty*qty - bin_penalty*bin
type WeightsTuning struct {
	Base       decimal.Decimal `toml:"base"`
	HoldsItem  decimal.Decimal `toml:"holds_item"`
	ZoneMatch  decimal.Decimal `toml:"zone_match"`
	QtyPenalty decimal.Decimal `toml:"qty_penalty"`
	BinPenalty decimal.Decimal `toml:"bin_penalty"`
}

type PickingTuning struct {
	MaxOrders       int             `toml:"max_orders"`
	MaxLines        int             `toml:"max_lines"`
	MaxQuantity     decimal.Decimal `toml:"max_quantity"`
	DefaultStrategy string          `toml:"default_strategy"`
}

type SlottingTuning struct {
	WindowDays int    `toml:"window_days"`
	ABCPolicy  string `toml:"abc_policy"`

	// threshold policy: A above AThreshold moves, B above BThreshold
	AThreshold int `toml:"a_threshold"`
	BThreshold int `toml:"b_threshold"`

	// percentile policy: top AShare of items are A, next BShare are B
	AShare decimal.Decimal `toml:"a_share"`
	BShare decimal.Decimal `toml:"b_share"`

	// VelocityZones maps an ABC class to the zone it belongs in
	VelocityZones map[string]string `toml:"velocity_zones"`
}

// LoadError reports a tuning file that exists but cannot be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("tuning file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func DefaultTuning() Tuning {
	return Tuning{
		Putaway: PutawayTuning{
			DefaultStrategy: "DIRECTED",
			DefaultZone:     "C",
			Weights: WeightsTuning{
				Base:       decimal.NewFromInt(100),
				HoldsItem:  decimal.NewFromInt(50),
				ZoneMatch:  decimal.NewFromInt(30),
				QtyPenalty: decimal.RequireFromString("0.1"),
				BinPenalty: decimal.RequireFromString("0.5"),
			},
			CategoryZones: map[string]string{},
		},
		Picking: PickingTuning{
			MaxOrders:       50,
			MaxLines:        200,
			MaxQuantity:     decimal.NewFromInt(10000),
			DefaultStrategy: "WAVE",
		},
		Slotting: SlottingTuning{
			WindowDays:    30,
			ABCPolicy:     "threshold",
			AThreshold:    50,
			BThreshold:    20,
			AShare:        decimal.RequireFromString("0.20"),
			BShare:        decimal.RequireFromString("0.30"),
			VelocityZones: map[string]string{"A": "A", "B": "B", "C": "C"},
		},
	}
}

// LoadTuning decodes path over DefaultTuning. An empty path or a missing
// file yields the defaults. Unknown keys are rejected.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	md, err := toml.DecodeFile(path, &t)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultTuning(), nil
	}
	if err != nil {
		return Tuning{}, &LoadError{Path: path, Err: err}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Tuning{}, &LoadError{Path: path, Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
	}

	if err := t.Validate(); err != nil {
		return Tuning{}, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

func (t Tuning) Validate() error {
	p, k, s := t.Putaway, t.Picking, t.Slotting
	return validation.Errors{
		"putaway": validation.ValidateStruct(&p,
			validation.Field(&p.DefaultStrategy, validation.Required,
				validation.In("CONSOLIDATE", "VELOCITY", "ZONE", "RANDOM", "DIRECTED")),
			validation.Field(&p.DefaultZone, validation.Required),
		),
		"picking": validation.ValidateStruct(&k,
			validation.Field(&k.MaxOrders, validation.Required, validation.Min(1)),
			validation.Field(&k.MaxLines, validation.Required, validation.Min(1)),
			validation.Field(&k.MaxQuantity, validation.By(positive)),
			validation.Field(&k.DefaultStrategy, validation.Required,
				validation.In("ZONE", "BATCH", "CLUSTER", "DISCRETE", "WAVE")),
		),
		"slotting": validation.ValidateStruct(&s,
			validation.Field(&s.WindowDays, validation.Required, validation.Min(1)),
			validation.Field(&s.ABCPolicy, validation.Required, validation.In("threshold", "percentile")),
			validation.Field(&s.BThreshold, validation.Min(0), validation.Max(s.AThreshold)),
			validation.Field(&s.AShare, validation.By(fraction)),
			validation.Field(&s.BShare, validation.By(fraction), validation.By(func(interface{}) error {
				if s.AShare.Add(s.BShare).GreaterThan(decimal.NewFromInt(1)) {
					return errors.New("a_share + b_share must not exceed 1")
				}
				return nil
			})),
		),
	}.Filter()
}

func positive(value interface{}) error {
	if d, _ := value.(decimal.Decimal); !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func fraction(value interface{}) error {
	d, _ := value.(decimal.Decimal)
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("must be between 0 and 1")
	}
	return nil
}
