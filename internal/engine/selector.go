package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEngineNotFound is returned for unknown engine identifiers
var ErrEngineNotFound = errors.New("engine not found")

// Engine identifiers
const (
	WEBJS = "WEBJS"
	NOWEB = "NOWEB"
	VENOM = "VENOM"
)

var constructors = map[string]Constructor{
	WEBJS: NewWebJS,
	NOWEB: NewNoweb,
	VENOM: NewVenom,
}

// NewWebJS drives a browser-automation worker
func NewWebJS(p Params) (Engine, error) { return newRemote(WEBJS, p) }

// NewNoweb drives a direct-protocol worker
func NewNoweb(p Params) (Engine, error) { return newRemote(NOWEB, p) }

// NewVenom drives a venom-bot worker
func NewVenom(p Params) (Engine, error) { return newRemote(VENOM, p) }

// Select returns the constructor for an engine identifier (case-insensitive)
func Select(name string) (Constructor, error) {
	ctor, ok := constructors[Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrEngineNotFound, name, strings.Join(Names(), ", "))
	}
	return ctor, nil
}

// Normalize returns the canonical form of an engine identifier
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Names lists supported engine identifiers
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
