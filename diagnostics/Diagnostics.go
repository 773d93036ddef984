// Package diagnostics summarises the per-step information produced by
// environments over a number of episodes
package diagnostics

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Path is a single episode, the sequence of TimeSteps returned by an
// environment from Reset until the episode ended
type Path []ts.TimeStep

// Stat is a single named statistic
type Stat struct {
	Name  string
	Value float64
}

// Stats is an ordered collection of statistics
type Stats []Stat

// Get returns the value of the first statistic with the argument name
func (s Stats) Get(name string) (float64, bool) {
	for _, stat := range s {
		if stat.Name == name {
			return stat.Value, true
		}
	}
	return 0, false
}

// Names returns the names of all statistics, in order
func (s Stats) Names() []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}
	return names
}

// StatInPaths returns, for each path, the values recorded under key in
// the Info of each TimeStep of the path. TimeSteps without the key
// (such as the first TimeStep of an episode) are skipped.
func StatInPaths(paths []Path, key string) [][][]float64 {
	out := make([][][]float64, 0, len(paths))
	for _, path := range paths {
		var values [][]float64
		for _, step := range path {
			if v, ok := step.Info[key]; ok {
				values = append(values, v)
			}
		}
		out = append(out, values)
	}
	return out
}

// Create returns the Mean, Std, Max, and Min of values, named by
// prefixing name. If all values are equal and alwaysShowAll is false,
// only the value itself is returned. An empty set of values produces
// no statistics.
func Create(name string, values []float64, alwaysShowAll bool) Stats {
	if len(values) == 0 {
		return nil
	}

	if !alwaysShowAll && floats.Max(values) == floats.Min(values) {
		return Stats{{Name: name, Value: values[0]}}
	}

	mean := stat.Mean(values, nil)
	std := math.Sqrt(stat.MomentAbout(2, values, mean, nil))

	return Stats{
		{Name: fmt.Sprintf("%v Mean", name), Value: mean},
		{Name: fmt.Sprintf("%v Std", name), Value: std},
		{Name: fmt.Sprintf("%v Max", name), Value: floats.Max(values)},
		{Name: fmt.Sprintf("%v Min", name), Value: floats.Min(values)},
	}
}

// PathStats returns the statistics of an Info key over all TimeSteps
// of all paths, followed by the statistics of its value on the final
// TimeStep of each path. Statistic names are prefixed by prefix.
func PathStats(paths []Path, key, prefix string) Stats {
	perPath := StatInPaths(paths, key)

	var all, final []float64
	for _, values := range perPath {
		for _, v := range values {
			all = append(all, v...)
		}
		if len(values) > 0 {
			final = append(final, values[len(values)-1]...)
		}
	}

	stats := Create(prefix+key, all, true)
	return append(stats, Create("Final "+prefix+key, final, true)...)
}
