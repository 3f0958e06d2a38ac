package framework

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

// Name identifies a supported target framework.
type Name string

const (
	React           Name = "react"
	ReactThreeFiber Name = "react-three-fiber"
	ReactBabylon    Name = "react-babylonjs"
	ReactPixi       Name = "react-pixi"
)

var aliases = map[string]Name{
	"react":             React,
	"reactjs":           React,
	"react-three-fiber": ReactThreeFiber,
	"r3f":               ReactThreeFiber,
	"three":             ReactThreeFiber,
	"threejs":           ReactThreeFiber,
	"react-babylonjs":   ReactBabylon,
	"babylon":           ReactBabylon,
	"babylonjs":         ReactBabylon,
	"react-pixi":        ReactPixi,
	"pixi":              ReactPixi,
	"pixijs":            ReactPixi,
}

// All returns every supported framework in a stable order.
func All() []Name {
	return []Name{React, ReactThreeFiber, ReactBabylon, ReactPixi}
}

// ParseName resolves a framework tag or alias, case-insensitively.
func ParseName(s string) (Name, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if n, ok := aliases[key]; ok {
		return n, nil
	}
	return "", errors.ValidationError(fmt.Sprintf("unsupported framework %q", s)).
		WithContext("supported", All()).
		Build()
}

func (n Name) String() string { return string(n) }

// Valid reports whether n is one of the supported frameworks.
func (n Name) Valid() bool {
	for _, v := range All() {
		if v == n {
			return true
		}
	}
	return false
}

// UnmarshalText lets flags, YAML and JSON decode aliases directly.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) { return []byte(n), nil }
