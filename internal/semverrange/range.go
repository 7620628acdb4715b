// Package semverrange translates flymake's manifest version-range syntax
// (a bare prefix like "1.2" meaning ">=1.2.0 <2.0.0", or "*" meaning any
// version) into a github.com/Masterminds/semver/v3 constraint, and resolves
// a concrete version string against it.
package semverrange

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Satisfies reports whether actual satisfies the requested range. "*"
// matches any (valid or not) actual version. An actual version that fails
// to parse as semver only satisfies "*".
func Satisfies(rangeExpr, actual string) (bool, error) {
	rangeExpr = strings.TrimSpace(rangeExpr)
	if rangeExpr == "" || rangeExpr == "*" {
		return true, nil
	}

	c, err := toConstraint(rangeExpr)
	if err != nil {
		return false, fmt.Errorf("bad version range %q: %w", rangeExpr, err)
	}

	v, err := semver.NewVersion(actual)
	if err != nil {
		return false, fmt.Errorf("bad version %q: %w", actual, err)
	}

	return c.Check(v), nil
}

// toConstraint builds a semver.Constraints from flymake's prefix-range
// syntax. A bare prefix like "1.2" becomes ">=1.2.0, <2.0.0"; "1" becomes
// ">=1.0.0, <2.0.0"; a fully qualified version "1.2.3" is treated as an
// exact requirement. Expressions already containing comparison operators
// are passed straight through to the underlying semver library.
func toConstraint(rangeExpr string) (*semver.Constraints, error) {
	if strings.ContainsAny(rangeExpr, "<>=^~, ") {
		return semver.NewConstraint(rangeExpr)
	}

	parts := strings.Split(rangeExpr, ".")
	switch len(parts) {
	case 1:
		return semver.NewConstraint(fmt.Sprintf(">=%s.0.0, <%s.0.0", parts[0], bump(parts[0])))
	case 2:
		return semver.NewConstraint(fmt.Sprintf(">=%s.%s.0, <%s.0.0", parts[0], parts[1], bump(parts[0])))
	default:
		// Fully qualified version: exact match.
		return semver.NewConstraint("=" + rangeExpr)
	}
}

func bump(majorStr string) string {
	var major int
	fmt.Sscanf(majorStr, "%d", &major)
	return fmt.Sprintf("%d", major+1)
}

// Valid reports whether expr is a parseable range expression (used by the
// manifest loader to reject malformed `version=` values early).
func Valid(expr string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" {
		return true
	}
	_, err := toConstraint(expr)
	return err == nil
}
