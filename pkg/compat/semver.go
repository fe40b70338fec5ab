package compat

import (
	"regexp"
	"strconv"
	"strings"
)

// semverRe is the SemVer 2.0.0 grammar from https://semver.org/.
var semverRe = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// IsValidSemVer checks if a string is a valid Semantic Version.
func IsValidSemVer(v string) bool {
	return semverRe.MatchString(v)
}

// CompareVersions returns -1, 0, or 1 as a is lower than, equal to, or higher
// than b. Inputs that do not parse as semver compare as lowest, so an
// unparseable declared version never satisfies a feature gate.
func CompareVersions(a, b string) int {
	am, aok := parseVersion(a)
	bm, bok := parseVersion(b)
	if !aok && !bok {
		return 0
	}
	if !aok {
		return -1
	}
	if !bok {
		return 1
	}
	for i := 0; i < 3; i++ {
		if am.nums[i] != bm.nums[i] {
			if am.nums[i] < bm.nums[i] {
				return -1
			}
			return 1
		}
	}
	// A pre-release sorts below its release.
	if am.pre != "" && bm.pre == "" {
		return -1
	}
	if am.pre == "" && bm.pre != "" {
		return 1
	}
	if am.pre != bm.pre {
		if am.pre < bm.pre {
			return -1
		}
		return 1
	}
	return 0
}

type parsedVersion struct {
	nums [3]int
	pre  string
}

func parseVersion(v string) (parsedVersion, bool) {
	m := semverRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return parsedVersion{}, false
	}
	var p parsedVersion
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return parsedVersion{}, false
		}
		p.nums[i] = n
	}
	p.pre = m[4]
	return p, true
}
