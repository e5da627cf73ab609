package labs

import (
	"fmt"
	"math"
	"sort"
)

// Param describes a numeric lab parameter.
type Param struct {
	Name    string
	Default float64
	Doc     string
}

// RunFunc runs a lab with the given parameter overrides.
type RunFunc func(params map[string]float64, opts Options) (Result, error)

// Lab is a registered simulation lab.
type Lab struct {
	Name        string
	Description string
	Params      []Param
	Run         RunFunc
}

var registry = map[string]Lab{}

// Register adds a lab. Registering the same name twice panics.
func Register(l Lab) {
	if _, dup := registry[l.Name]; dup {
		panic("lab " + l.Name + " registered twice")
	}

	registry[l.Name] = l
}

// Get returns the lab registered under name.
func Get(name string) (Lab, error) {
	l, ok := registry[name]
	if !ok {
		return Lab{}, fmt.Errorf("%w: %q", ErrUnknownLab, name)
	}

	return l, nil
}

// Names returns the registered lab names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResolveParams merges overrides into the defaults of params. Unknown names
// and non-finite values are rejected.
func ResolveParams(
	params []Param,
	overrides map[string]float64,
) (map[string]float64, error) {
	values := make(map[string]float64, len(params))
	for _, p := range params {
		values[p.Name] = p.Default
	}

	for name, v := range overrides {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidParam, name, v)
		}

		values[name] = v
	}

	return values, nil
}

// Positive returns an ErrInvalidParam error unless every named value is
// greater than zero.
func Positive(values map[string]float64, names ...string) error {
	for _, name := range names {
		if !(values[name] > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v",
				ErrInvalidParam, name, values[name])
		}
	}

	return nil
}

// Flag reads a 0/1 parameter.
func Flag(values map[string]float64, name string) (bool, error) {
	switch values[name] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s must be 0 or 1, got %v",
			ErrInvalidParam, name, values[name])
	}
}
