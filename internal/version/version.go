// Package version models Odoo release identifiers such as "16.0", "saas-16.1"
// and "master", and the arithmetic used to find the branch an upgrade starts from.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinorsPerMajor is the number of minor releases (0..5) in one major release line.
const MinorsPerMajor = 6

var numbered = regexp.MustCompile(`^(saas~|saas-)?(\d+)\.(\d+)`)

// Version is an immutable Odoo release identifier.
// Major and Minor are meaningless when IsMaster is set.
type Version struct {
	Major    int
	Minor    int
	IsMaster bool
}

// Master is the development branch version.
var Master = Version{IsMaster: true}

// New returns a numbered release version.
func New(major, minor int) Version {
	return Version{Major: major, Minor: minor}
}

// Parse recognizes "master", "master-<suffix>" and "[saas~|saas-]<major>.<minor>"
// optionally followed by anything. It reports false for any other text.
func Parse(text string) (Version, bool) {
	s := strings.TrimSpace(text)
	if s == "master" || strings.HasPrefix(s, "master-") {
		return Master, true
	}
	m := numbered.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	major, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.Atoi(m[3])
	if err != nil {
		return Version{}, false
	}
	return New(major, minor), true
}

// Compare returns -1, 0 or 1. Master is greater than any numbered release
// and equal to itself.
func (v Version) Compare(other Version) int {
	if v.IsMaster != other.IsMaster {
		if v.IsMaster {
			return 1
		}
		return -1
	}
	if v.IsMaster {
		return 0
	}
	switch {
	case v.Major < other.Major:
		return -1
	case v.Major > other.Major:
		return 1
	case v.Minor < other.Minor:
		return -1
	case v.Minor > other.Minor:
		return 1
	}
	return 0
}

// Previous returns the release preceding v: 16.1 → 16.0, 16.0 → 15.5.
// Master has no previous release.
func (v Version) Previous() (Version, bool) {
	if v.IsMaster {
		return Version{}, false
	}
	if v.Minor > 0 {
		return New(v.Major, v.Minor-1), true
	}
	return New(v.Major-1, MinorsPerMajor-1), true
}

// BranchName returns the git branch name of the release:
// "master", "16.0" or "saas-16.1".
func (v Version) BranchName() string {
	if v.IsMaster {
		return "master"
	}
	if v.Minor == 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("saas-%d.%d", v.Major, v.Minor)
}

func (v Version) String() string {
	return v.BranchName()
}
