package distribution

import (
	"strings"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
)

// Strategy names a distribution algorithm.
type Strategy string

const (
	StrategySimple    Strategy = "simple"
	StrategyGender    Strategy = "gender"
	StrategyPioneer   Strategy = "pioneer"
	StrategyPrivilege Strategy = "privilege"
	StrategyFamily    Strategy = "family"

	StrategyEqual      Strategy = "equal"
	StrategyDifficulty Strategy = "difficulty"
	StrategySize       Strategy = "size"
)

var strategiesByKind = map[Kind][]Strategy{
	KindMember:    {StrategySimple, StrategyGender, StrategyPioneer, StrategyPrivilege, StrategyFamily},
	KindTerritory: {StrategyEqual, StrategyDifficulty, StrategySize},
}

// Strategies returns the strategies valid for kind.
func Strategies(kind Kind) []Strategy {
	return append([]Strategy(nil), strategiesByKind[kind]...)
}

// ParseStrategy validates a strategy name for the given roster kind.
// Names are matched case-insensitively.
func ParseStrategy(kind Kind, name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, ok := range strategiesByKind[kind] {
		if s == ok {
			return s, nil
		}
	}
	return "", apperr.ErrUnknownStrategy.Wrap("distribution.ParseStrategy",
		apperr.Validationf("", "%q is not a %s strategy", name, kind))
}

// ParseKind validates a roster kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindMember, KindTerritory:
		return k, nil
	}
	return "", apperr.Validationf("distribution.ParseKind", "unknown roster kind %q", name)
}
