// Package parser reads design protocol files: Markdown with YAML frontmatter
// carrying the move count and links, and a numbered list of moves in the body.
//
//	---
//	title: Chair study
//	move_count: 5
//	links:
//	  - [1, 4]
//	  - {move1: 2, move2: 5}
//	---
//	1. Sketch seat outline
//	2. Consider materials [[1]]
//	3. Refine handle [[1]] [[2]]
//
// A [[k]] marker on move n records a link between moves k and n. Moves are
// numbered from 1; frontmatter links exported from a 0-based tool set
// zero_based: true and are renumbered on read.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
)

var (
	moveLineRe = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.*)$`)
	backlinkRe = regexp.MustCompile(`\[\[\s*(\d+)\s*\]\]`)
)

// Result holds the output of parsing a protocol file.
type Result struct {
	Title     string
	MoveCount int
	Moves     []models.Move
	Links     []linkograph.Link
}

type frontmatter struct {
	Title     string      `yaml:"title"`
	MoveCount int         `yaml:"move_count"`
	ZeroBased bool        `yaml:"zero_based"`
	Links     []linkEntry `yaml:"links"`
}

// linkEntry accepts either a [move1, move2] pair or a {move1, move2} mapping.
type linkEntry linkograph.Link

func (e *linkEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var pair []int
		if err := n.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: link needs two moves, got %d", n.Line, len(pair))
		}
		e.Move1, e.Move2 = pair[0], pair[1]
		return nil
	}
	var l linkograph.Link
	if err := n.Decode(&l); err != nil {
		return err
	}
	*e = linkEntry(l)
	return nil
}

// Parse extracts title, moves and links from raw protocol bytes.
//
// The move count is taken from frontmatter when set, otherwise it is the
// highest move number seen in the list or in any link. Moves missing from
// the list get default names. Links are returned once each, ordered by
// (move1, move2); range checks are left to linkograph.New, except that a
// move count above linkograph.MaxMoves is refused before moves are built.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	named, inline := extractMoves(body)

	seen := make(map[linkograph.Link]struct{})
	var links []linkograph.Link
	add := func(l linkograph.Link) {
		if _, dup := seen[l]; dup {
			return
		}
		seen[l] = struct{}{}
		links = append(links, l)
	}
	for _, e := range fm.Links {
		l := linkograph.Link(e)
		if fm.ZeroBased {
			l.Move1++
			l.Move2++
		}
		add(l)
	}
	for _, l := range inline {
		add(l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Move1 != links[j].Move1 {
			return links[i].Move1 < links[j].Move1
		}
		return links[i].Move2 < links[j].Move2
	})

	moveCount := fm.MoveCount
	if moveCount <= 0 {
		for id := range named {
			moveCount = max(moveCount, id)
		}
		for _, l := range links {
			moveCount = max(moveCount, l.Move2)
		}
	}

	if moveCount > linkograph.MaxMoves {
		return nil, fmt.Errorf("%w: parser: move count %d exceeds %d", apperr.ErrInvalidInput, moveCount, linkograph.MaxMoves)
	}

	moves := models.DefaultMoves(moveCount)
	for i := range moves {
		if name, ok := named[moves[i].ID]; ok && name != "" {
			moves[i].Name = name
		}
	}

	return &Result{
		Title:     deriveTitle(fm.Title, body),
		MoveCount: moveCount,
		Moves:     moves,
		Links:     links,
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. Without frontmatter the whole content is body.
// Malformed frontmatter is an error.
func splitFrontmatter(data []byte) (frontmatter, string, error) {
	const delim = "---"
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return fm, "", fmt.Errorf("parser: frontmatter: %w", err)
	}
	return fm, body, nil
}

// extractMoves returns move names keyed by number and the links declared by
// [[k]] markers. Markers are removed from the names; self-references are dropped.
func extractMoves(body string) (map[int]string, []linkograph.Link) {
	named := make(map[int]string)
	var links []linkograph.Link
	for _, line := range strings.Split(body, "\n") {
		m := moveLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			continue
		}
		for _, ref := range backlinkRe.FindAllStringSubmatch(m[2], -1) {
			k, err := strconv.Atoi(ref[1])
			if err != nil || k == id {
				continue
			}
			links = append(links, linkograph.Link{Move1: min(k, id), Move2: max(k, id)})
		}
		named[id] = strings.Join(strings.Fields(backlinkRe.ReplaceAllString(m[2], "")), " ")
	}
	return named, links
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(title, body string) string {
	if title != "" {
		return title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
