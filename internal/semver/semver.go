package semver

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a shared package version as written in share configuration.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
type Version struct {
	v *mm.Version
}

// Constraint is a requiredVersion range.
//
// Examples:
// - "^18.2.0"
// - ">=1.2.0 <2.0.0"
// - "~4.17 || ^5.0.0"
type Constraint struct {
	c *mm.Constraints
}

func ParseVersion(raw string) (Version, error) {
	v, err := mm.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(strings.TrimSpace(raw))
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{c: c}, nil
}

// IsVersion reports whether raw is a full semantic version.
func IsVersion(raw string) bool {
	_, err := ParseVersion(raw)
	return err == nil
}

// IsConstraint reports whether raw parses as a version range.
func IsConstraint(raw string) bool {
	_, err := ParseConstraint(raw)
	return err == nil
}

func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}
