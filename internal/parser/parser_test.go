package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/linkograph"
)

const chairProtocol = `---
title: Chair study
links:
  - [1, 4]
  - {move1: 2, move2: 5}
---
# Ignored heading
1. Sketch seat outline
2. Consider materials [[1]]
3. Refine handle [[1]] [[2]]
4. Check ergonomics
5. Final render [[2]]
`

func TestParse_FrontmatterAndMoves(t *testing.T) {
	r, err := Parse([]byte(chairProtocol))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Chair study" {
		t.Errorf("title = %q, want %q", r.Title, "Chair study")
	}
	if r.MoveCount != 5 {
		t.Errorf("move count = %d, want 5", r.MoveCount)
	}
	want := []linkograph.Link{
		{Move1: 1, Move2: 2},
		{Move1: 1, Move2: 3},
		{Move1: 1, Move2: 4},
		{Move1: 2, Move2: 3},
		{Move1: 2, Move2: 5},
	}
	if !reflect.DeepEqual(r.Links, want) {
		t.Errorf("links = %v, want %v", r.Links, want)
	}
	if r.Moves[2].Name != "Refine handle" {
		t.Errorf("move 3 name = %q, want %q", r.Moves[2].Name, "Refine handle")
	}
}

func TestParse_FrontmatterMoveCountWins(t *testing.T) {
	r, err := Parse([]byte("---\nmove_count: 8\n---\n1. first\n2. second [[1]]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MoveCount != 8 || len(r.Moves) != 8 {
		t.Fatalf("move count = %d (moves %d), want 8", r.MoveCount, len(r.Moves))
	}
	if r.Moves[0].Name != "first" || r.Moves[7].Name != "Move 8" {
		t.Errorf("moves = %v", r.Moves)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Kettle\n1. boil [[3]]\n3) pour\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Kettle" {
		t.Errorf("title = %q, want %q", r.Title, "Kettle")
	}
	if r.MoveCount != 3 {
		t.Errorf("move count = %d, want 3", r.MoveCount)
	}
	if r.Moves[1].Name != "Move 2" {
		t.Errorf("unlisted move name = %q", r.Moves[1].Name)
	}
	if len(r.Links) != 1 || r.Links[0] != (linkograph.Link{Move1: 1, Move2: 3}) {
		t.Errorf("links = %v", r.Links)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\n1. a\n")); err == nil {
		t.Fatal("expected error for malformed frontmatter")
	}
}

func TestParse_BadLinkPair(t *testing.T) {
	if _, err := Parse([]byte("---\nlinks:\n  - [1, 2, 3]\n---\n")); err == nil {
		t.Fatal("expected error for three-element link")
	}
}

func TestParse_MoveCountLimit(t *testing.T) {
	inputs := map[string]string{
		"frontmatter": "---\nmove_count: 2000000000\n---\n",
		"move number": "1. start\n99999999. far away\n",
		"link":        "---\nlinks:\n  - [1, 50000]\n---\n",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestParse_ZeroBasedFrontmatterLinks(t *testing.T) {
	r, err := Parse([]byte("---\nzero_based: true\nmove_count: 3\nlinks:\n  - [0, 2]\n---\n2. second [[1]]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Body markers keep their 1-based list numbers.
	want := []linkograph.Link{{Move1: 1, Move2: 2}, {Move1: 1, Move2: 3}}
	if !reflect.DeepEqual(r.Links, want) {
		t.Errorf("links = %v, want %v", r.Links, want)
	}
}

func TestExtractMoves_SelfReferenceDropped(t *testing.T) {
	named, links := extractMoves("2. loop [[2]] back [[1]]")
	if named[2] != "loop back" {
		t.Errorf("name = %q, want %q", named[2], "loop back")
	}
	if len(links) != 1 || links[0] != (linkograph.Link{Move1: 1, Move2: 2}) {
		t.Errorf("links = %v", links)
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle("", "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
