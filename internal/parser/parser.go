// Package parser extracts front-matter metadata and body text from article
// sources. Parsing is strict: an article without valid front-matter, a title,
// and a parseable date is rejected rather than defaulted.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is wrapped by every parse failure caused by the source
// document itself (as opposed to I/O).
var ErrMalformed = errors.New("malformed front-matter")

// dateLayouts are tried in order when the date field is a plain string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
}

// Meta holds the decoded front-matter of one article.
type Meta struct {
	Title         string
	Description   string
	Date          time.Time
	Categories    []string
	Published     bool
	CanonicalLink string
	RedirectFrom  []string
}

// Result holds the output of parsing an article source.
type Result struct {
	Meta Meta
	Body string
}

// stringList accepts either a YAML scalar or a sequence of scalars, so that
// `categories: testing` and `categories: [testing, react]` both decode.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s != "" {
			*l = []string{s}
		}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("expected scalar or sequence, got %v", node.Kind)
	}
}

type rawMeta struct {
	Title         string     `yaml:"title"`
	Description   string     `yaml:"description"`
	Date          string     `yaml:"date"`
	Categories    stringList `yaml:"categories"`
	Published     *bool      `yaml:"published"`
	CanonicalLink string     `yaml:"canonical_link"`
	RedirectFrom  stringList `yaml:"redirect_from"`
}

// Parse decodes front-matter and body from raw article bytes.
func Parse(data []byte) (*Result, error) {
	block, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var raw rawMeta
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, fmt.Errorf("parser: invalid YAML: %v: %w", err, ErrMalformed)
	}

	meta, err := buildMeta(raw)
	if err != nil {
		return nil, err
	}

	return &Result{Meta: meta, Body: body}, nil
}

// splitFrontmatter separates the YAML block (between leading --- delimiters)
// from the body. A source without both delimiters is rejected.
func splitFrontmatter(data []byte) ([]byte, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", fmt.Errorf("parser: missing front-matter block: %w", ErrMalformed)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", fmt.Errorf("parser: unterminated front-matter block: %w", ErrMalformed)
	}

	block := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	return block, body, nil
}

// buildMeta validates required fields and normalises optional ones.
func buildMeta(raw rawMeta) (Meta, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return Meta{}, fmt.Errorf("parser: missing required field title: %w", ErrMalformed)
	}
	if strings.TrimSpace(raw.Date) == "" {
		return Meta{}, fmt.Errorf("parser: missing required field date: %w", ErrMalformed)
	}
	date, err := parseDate(raw.Date)
	if err != nil {
		return Meta{}, err
	}

	// Absent published means published; only an explicit false hides a draft.
	published := true
	if raw.Published != nil {
		published = *raw.Published
	}

	return Meta{
		Title:         title,
		Description:   strings.TrimSpace(raw.Description),
		Date:          date,
		Categories:    cleaned(raw.Categories),
		Published:     published,
		CanonicalLink: strings.TrimSpace(raw.CanonicalLink),
		RedirectFrom:  cleaned(raw.RedirectFrom),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parser: unparseable date %q: %w", s, ErrMalformed)
}

// cleaned trims entries and drops empty ones, preserving order.
func cleaned(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
