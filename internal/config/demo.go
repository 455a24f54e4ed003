package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// DemoModule provides the hot-reloadable demo-loop configuration holder.
var DemoModule = fx.Provide(NewDemoConfigHolder)

// DelayRange bounds a randomized delay. Max == Min yields a fixed delay.
type DelayRange struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

// CategoryPick asks the demo loop to add Count random products of Category.
// An empty category means any catalog product.
type CategoryPick struct {
	Category string `mapstructure:"category"`
	Count    int    `mapstructure:"count"`
}

// OrderPattern is one weighted entry in the demo-order pattern table. New
// patterns are data additions, not code branches.
type OrderPattern struct {
	Name   string         `mapstructure:"name"`
	Weight int            `mapstructure:"weight"`
	Picks  []CategoryPick `mapstructure:"picks"`
}

// DemoConfig tunes the autonomous demo loop.
type DemoConfig struct {
	ItemDelay          DelayRange     `mapstructure:"itemDelay"`
	PreCheckoutDelay   DelayRange     `mapstructure:"preCheckoutDelay"`
	PostPaymentDelay   DelayRange     `mapstructure:"postPaymentDelay"`
	RetryDelay         DelayRange     `mapstructure:"retryDelay"`
	ErrorRecoveryDelay DelayRange     `mapstructure:"errorRecoveryDelay"`
	MaxPaymentAttempts int            `mapstructure:"maxPaymentAttempts"`
	Patterns           []OrderPattern `mapstructure:"patterns"`
}

func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		ItemDelay:          DelayRange{Min: 300 * time.Millisecond, Max: 900 * time.Millisecond},
		PreCheckoutDelay:   DelayRange{Min: 800 * time.Millisecond, Max: 2 * time.Second},
		PostPaymentDelay:   DelayRange{Min: 2 * time.Second, Max: 4 * time.Second},
		RetryDelay:         DelayRange{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond},
		ErrorRecoveryDelay: DelayRange{Min: 2 * time.Second, Max: 3 * time.Second},
		MaxPaymentAttempts: 3,
		Patterns: []OrderPattern{
			{Name: "combo", Weight: 30, Picks: []CategoryPick{
				{Category: "pizza", Count: 1},
				{Category: "side", Count: 1},
				{Category: "drink", Count: 1},
			}},
			{Name: "family", Weight: 15, Picks: []CategoryPick{
				{Category: "pizza", Count: 2},
				{Category: "side", Count: 2},
				{Category: "drink", Count: 2},
			}},
			{Name: "double", Weight: 20, Picks: []CategoryPick{
				{Category: "pizza", Count: 2},
			}},
			{Name: "single-item", Weight: 20, Picks: []CategoryPick{
				{Category: "", Count: 1},
			}},
			{Name: "pizza-only", Weight: 15, Picks: []CategoryPick{
				{Category: "pizza", Count: 1},
			}},
		},
	}
}

// DemoConfigHolder exposes the current demo configuration and swaps it
// atomically when the backing file changes.
type DemoConfigHolder struct {
	current atomic.Value // holds DemoConfig
}

func NewDemoConfigHolder() (*DemoConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("demo")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tillsync/config") // Volume-mounted config
	v.AddConfigPath("/etc/tillsync")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("TILLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &DemoConfigHolder{}

	cfg := DefaultDemoConfig()
	if fileFound {
		if err := v.UnmarshalKey("demo", &cfg); err != nil {
			return nil, err
		}
		if err := validateDemoConfig(cfg); err != nil {
			return nil, err
		}
	}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated := DefaultDemoConfig()
			if err := v.UnmarshalKey("demo", &updated); err != nil {
				log.Printf("[demo-config] reload failed: %v", err)
				return
			}
			if err := validateDemoConfig(updated); err != nil {
				log.Printf("[demo-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[demo-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *DemoConfigHolder) Get() DemoConfig {
	return h.current.Load().(DemoConfig)
}

// Store swaps the active configuration; used by tests.
func (h *DemoConfigHolder) Store(cfg DemoConfig) {
	h.current.Store(cfg)
}

// NewStaticDemoConfigHolder wraps a fixed configuration without file watching.
func NewStaticDemoConfigHolder(cfg DemoConfig) *DemoConfigHolder {
	holder := &DemoConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateDemoConfig(cfg DemoConfig) error {
	if cfg.MaxPaymentAttempts < 1 {
		return errors.New("demo.maxPaymentAttempts must be at least 1")
	}
	if len(cfg.Patterns) == 0 {
		return errors.New("demo.patterns cannot be empty")
	}
	total := 0
	for _, p := range cfg.Patterns {
		if p.Weight > 0 {
			total += p.Weight
		}
		if len(p.Picks) == 0 {
			return fmt.Errorf("demo.patterns[%s] has no picks", p.Name)
		}
	}
	if total == 0 {
		return errors.New("demo.patterns carry no positive weight")
	}
	for _, r := range []DelayRange{cfg.ItemDelay, cfg.PreCheckoutDelay, cfg.PostPaymentDelay, cfg.RetryDelay, cfg.ErrorRecoveryDelay} {
		if r.Min < 0 || r.Max < r.Min {
			return errors.New("demo delay ranges must satisfy 0 <= min <= max")
		}
	}
	return nil
}
