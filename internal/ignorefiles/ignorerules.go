// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package ignorefiles deals with the ".bootignore" files that exclude parts
// of a directory tree when it is added to an archive.
//
// The rule syntax follows the common subset of .gitignore: one glob pattern
// per line, "#" comments, "!" negations, "*" and "?" that never cross a
// directory boundary, and "**" that matches any number of directories.
package ignorefiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreFileName is the name of the file that holds the ignore rules for a
// directory tree. It is only consulted at the root of the tree.
const IgnoreFileName = ".bootignore"

// Ruleset is an ordered set of ignore rules. Later rules take precedence
// over earlier ones.
type Ruleset struct {
	rules []rule
}

// ExcludesResult is the outcome of matching a path against a [Ruleset].
type ExcludesResult struct {
	// Excluded is true if the path must be left out of the archive.
	Excluded bool

	// Dominating is true if the last rule that matched the path is not
	// followed by any negated rule, in which case nothing beneath the path
	// can be re-included either. Callers walking a tree use this to skip
	// whole directories.
	Dominating bool
}

// LoadPackageIgnoreRules reads the ignore file at the root of the given
// directory. A directory without an ignore file gets [DefaultRuleset].
func LoadPackageIgnoreRules(root string) (*Ruleset, error) {
	file, err := os.Open(filepath.Join(root, IgnoreFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultRuleset(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", IgnoreFileName, err)
	}
	defer file.Close()

	return ParseIgnoreFileContent(file)
}

// ParseIgnoreFileContent parses the content of an ignore file. The default
// rules always come first, so that an ignore file can negate them.
func ParseIgnoreFileContent(r io.Reader) (*Ruleset, error) {
	rules := defaultRules()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		pattern := strings.TrimSpace(scanner.Text())
		if pattern == "" || pattern[0] == '#' {
			continue
		}
		negated := false
		if pattern[0] == '!' {
			negated = true
			pattern = pattern[1:]
		}
		rule, err := newRule(pattern, negated)
		if err != nil {
			return nil, fmt.Errorf("invalid rule %q in %s: %w", scanner.Text(), IgnoreFileName, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", IgnoreFileName, err)
	}

	return newRuleset(rules), nil
}

// DefaultRuleset returns the rules that apply when a directory has no
// ignore file:
//
//	.git/
//	**/.DS_Store
//	**/.idea/
func DefaultRuleset() *Ruleset {
	return newRuleset(defaultRules())
}

func defaultRules() []rule {
	ret := make([]rule, 0, len(defaultPatterns))
	for _, p := range defaultPatterns {
		r, err := newRule(p, false)
		if err != nil {
			panic(fmt.Sprintf("invalid default ignore rule %q: %s", p, err))
		}
		ret = append(ret, r)
	}
	return ret
}

var defaultPatterns = []string{
	".git/",
	"**/.DS_Store",
	"**/.idea/",
}

func newRuleset(rules []rule) *Ruleset {
	negationsAfter := false
	for i := len(rules) - 1; i >= 0; i-- {
		rules[i].negationsAfter = negationsAfter
		if rules[i].negated {
			negationsAfter = true
		}
	}
	return &Ruleset{rules: rules}
}

// Excludes matches the given slash-separated path, relative to the root of
// the tree, against the ruleset. Directory paths must end with a slash.
func (r *Ruleset) Excludes(p string) (ExcludesResult, error) {
	if r == nil {
		return ExcludesResult{}, nil
	}

	var result ExcludesResult
	p = filepath.ToSlash(p)
	dir, filename := path.Split(p)
	dirSplit := strings.Split(dir, "/")

	for _, rule := range r.rules {
		if rule.matches(p, dir, filename, dirSplit) {
			result.Excluded = !rule.negated
			result.Dominating = !rule.negationsAfter
		}
	}
	return result, nil
}

type rule struct {
	val            string
	negated        bool
	negationsAfter bool

	regex *regexp.Regexp

	// rooted matches the pattern without its leading slash, for rules that
	// are anchored to the root of the tree.
	rooted *regexp.Regexp
}

func newRule(pattern string, negated bool) (rule, error) {
	ret := rule{val: pattern, negated: negated}
	re, err := compilePattern(pattern)
	if err != nil {
		return ret, err
	}
	ret.regex = re
	if strings.HasPrefix(pattern, "/") {
		ret.rooted, err = compilePattern(pattern[1:])
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (r rule) matches(p, dir, filename string, dirSplit []string) bool {
	if r.regex.MatchString(p) || r.regex.MatchString(filename) {
		return true
	}
	if r.rooted != nil && dir == "" && r.rooted.MatchString(filename) {
		return true
	}
	// Does some combination of the parent directories match?
	for i := 0; i < len(dirSplit); i++ {
		if r.regex.MatchString(strings.Join(dirSplit[:i], "/") + "/") {
			return true
		}
	}
	return r.rooted != nil && r.rooted.MatchString(dir)
}

// compilePattern converts a glob pattern into an anchored regular
// expression.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '*' && i+1 < len(runes) && runes[i+1] == '*':
			i++
			// "**/" is the same as "**".
			if i+1 < len(runes) && runes[i+1] == '/' {
				i++
			}
			if i+1 >= len(runes) {
				b.WriteString(".*")
			} else {
				b.WriteString("(.*/)?")
			}
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		case ch == '.' || ch == '$' || ch == '+' || ch == '(' || ch == ')' || ch == '|' || ch == '{' || ch == '}' || ch == '^':
			b.WriteString(`\` + string(ch))
		case ch == '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteRune(ch)
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}
