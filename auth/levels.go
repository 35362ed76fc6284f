package auth

import (
	"fmt"
	"sort"
)

// Level is a named privilege tier
type Level string

const (
	LevelNone   Level = "none"
	LevelLogin  Level = "login"
	LevelEditor Level = "editor"
	LevelAdmin  Level = "admin"
)

// Ranks are compared numerically; only their order matters.
var levelRanks = map[Level]int{
	LevelNone:   1,
	LevelLogin:  10,
	LevelEditor: 100,
	LevelAdmin:  1000,
}

// InvalidLevelError is the panic value of Compare when a level name is unknown.
type InvalidLevelError struct {
	Actual   Level
	Required Level
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid level(s): %q, %q", e.Actual, e.Required)
}

// IsKnown reports whether l is one of the defined levels
func IsKnown(l Level) bool {
	_, ok := levelRanks[l]
	return ok
}

// ParseLevel validates a level name coming from input or configuration
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !IsKnown(l) {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

// Levels returns every known level from lowest to highest
func Levels() []Level {
	out := make([]Level, 0, len(levelRanks))
	for l := range levelRanks {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return levelRanks[out[i]] < levelRanks[out[j]] })
	return out
}

// Compare reports whether actual grants at least the access of required.
// An unknown level is a programming error and panics with *InvalidLevelError;
// it is never turned into a denial.
func Compare(actual, required Level) bool {
	a, okA := levelRanks[actual]
	r, okR := levelRanks[required]
	if !okA || !okR {
		panic(&InvalidLevelError{Actual: actual, Required: required})
	}
	return a >= r
}
