// Package placement decides where a new result surface is shown.
//
// The decision is a pure function of the option set; the presenter is
// responsible for carrying it out.
package placement

import (
	"fmt"
	"strings"

	"github.com/shinji-kodama/hgbuf/internal/options"
)

// Directive tells the presenter how to position a new surface relative to
// the current view.
type Directive string

const (
	// Replace shows the surface in place of the current view.
	Replace Directive = "replace"

	// SplitHorizontal opens the surface in a horizontal split.
	SplitHorizontal Directive = "split-horizontal"

	// SplitVertical opens the surface in a vertical split.
	SplitVertical Directive = "split-vertical"

	// ReuseExisting refreshes the live surface for the same source and
	// command kind instead of opening a new one.
	ReuseExisting Directive = "reuse-existing"
)

// String satisfies fmt.Stringer.
func (d Directive) String() string {
	return string(d)
}

// IsSplit reports whether d opens a split.
func (d Directive) IsSplit() bool {
	return d == SplitHorizontal || d == SplitVertical
}

// ParseDirective accepts the directive names plus the short forms
// "horizontal", "vertical", "reuse" and "edit".
func ParseDirective(s string) (Directive, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace", "edit":
		return Replace, nil
	case "split-horizontal", "horizontal":
		return SplitHorizontal, nil
	case "split-vertical", "vertical":
		return SplitVertical, nil
	case "reuse-existing", "reuse":
		return ReuseExisting, nil
	default:
		return "", fmt.Errorf("invalid placement %q (valid: replace, horizontal, vertical, reuse)", s)
	}
}

// Feature selects which feature-specific option is consulted.
type Feature int

const (
	// FeatureResult is an ordinary command result.
	FeatureResult Feature = iota

	// FeatureComparison is a revision view inside a comparison session.
	FeatureComparison
)

// For resolves the directive for a new surface. The first rule that
// yields a valid directive wins:
//
//  1. the per-call "placement" override;
//  2. the feature-specific orientation ("diff_split" for comparisons);
//  3. the general "edit" mode, with "split" choosing the orientation;
//     an unset "edit" with a set "split" also splits;
//  4. Replace.
//
// Unrecognized values are skipped rather than reported. A comparison never
// reuses a surface: ReuseExisting becomes SplitVertical for it.
func For(set options.Set, feature Feature) Directive {
	d := resolve(set, feature)
	if feature == FeatureComparison && d == ReuseExisting {
		return SplitVertical
	}
	return d
}

func resolve(set options.Set, feature Feature) Directive {
	if v, ok := set.Override[options.Placement]; ok {
		if d, err := ParseDirective(v); err == nil {
			return d
		}
	}

	// Scoped options are consulted from every layer, including the
	// override layer (e.g. --split given on the command line).
	if feature == FeatureComparison {
		if v, _, ok := set.Lookup(options.DiffSplit); ok {
			if d, ok := orientation(v); ok {
				return d
			}
		}
	}

	edit, _, editSet := set.Lookup(options.Edit)
	switch strings.ToLower(strings.TrimSpace(edit)) {
	case "split":
		if d, ok := orientation(set.Resolve(options.Split, "horizontal")); ok {
			return d
		}
		return SplitHorizontal
	case "reuse":
		return ReuseExisting
	case "replace", "edit":
		return Replace
	}

	if !editSet {
		if v, _, ok := set.Lookup(options.Split); ok {
			if d, ok := orientation(v); ok {
				return d
			}
		}
	}

	return Replace
}

func orientation(v string) (Directive, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "horizontal", "split-horizontal":
		return SplitHorizontal, true
	case "vertical", "split-vertical":
		return SplitVertical, true
	}
	return "", false
}
