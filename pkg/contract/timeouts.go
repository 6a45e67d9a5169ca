package contract

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/arbiter/pkg/domain"
)

// Timeouts maps operation wire names to the bound of a blocking call.
// Operations without an entry are fire-and-forget. A Timeouts value is
// read-only once built and is shared by all channels of a run.
type Timeouts struct {
	bounds map[string]time.Duration
}

// NewTimeouts copies bounds into a table. Non-positive bounds are dropped.
func NewTimeouts(bounds map[string]time.Duration) *Timeouts {
	t := &Timeouts{bounds: make(map[string]time.Duration, len(bounds))}
	for name, d := range bounds {
		if d > 0 {
			t.bounds[name] = d
		}
	}
	return t
}

// Lookup returns the bound for op. The second value is false for
// fire-and-forget operations. A nil table has no bounds.
func (t *Timeouts) Lookup(op string) (time.Duration, bool) {
	if t == nil {
		return 0, false
	}
	d, ok := t.bounds[op]
	return d, ok
}

// Bounded lists the operations with a bound, sorted.
func (t *Timeouts) Bounded() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.bounds))
	for name := range t.bounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the timeout table of a run. It starts from the defaults the
// contract declares and applies overrides, keyed by wire name. An override may be
// a duration string ("250ms"), an integer number of milliseconds, or nil to make
// the operation fire-and-forget. Unknown names and malformed values are
// configuration errors.
func Resolve(c Contract, overrides map[string]any) (*Timeouts, error) {
	index, err := c.Index()
	if err != nil {
		return nil, err
	}

	bounds := make(map[string]time.Duration)
	for name, op := range index {
		if op.Default != nil {
			bounds[name] = *op.Default
		}
	}

	for name, raw := range overrides {
		if _, ok := index[name]; !ok {
			return nil, domain.Configurationf("timeout for unknown operation %q", name)
		}
		if raw == nil {
			delete(bounds, name)
			continue
		}
		d, err := ParseDuration(raw)
		if err != nil {
			return nil, domain.Configurationf("timeout for %q: %v", name, err)
		}
		bounds[name] = d
	}

	return NewTimeouts(bounds), nil
}

// ParseDuration decodes a configured duration with the same rules as Resolve.
func ParseDuration(raw any) (time.Duration, error) {
	var d time.Duration
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DurationHook(),
		Result:     &d,
	})
	if err != nil {
		return 0, err
	}
	if err := dec.Decode(raw); err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// DurationHook is a mapstructure hook reading time.Duration fields from duration
// strings or from integers counted in milliseconds.
func DurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case uint64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			return time.Duration(v * float64(time.Millisecond)), nil
		}
		return data, nil
	}
}
