// Package models defines the persisted domain types for linkograph protocols.
package models

import (
	"fmt"
	"time"

	"github.com/starford/linkograph/internal/linkograph"
)

// Move is one numbered step of a design protocol.
type Move struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Protocol is a stored linkograph: its moves and the links selected on it.
type Protocol struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Source    string            `json:"source,omitempty"` // protocol file path, empty for API-created
	MoveCount int               `json:"move_count"`
	Moves     []Move            `json:"moves"`
	Links     []linkograph.Link `json:"links"`
	Checksum  string            `json:"checksum"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ProtocolSummary is the lightweight form returned by list operations.
type ProtocolSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	MoveCount int       `json:"move_count"`
	LinkCount int       `json:"link_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProtocolFile is the metadata of a protocol file on disk.
type ProtocolFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultMoves returns moves 1..n named "Move i".
func DefaultMoves(n int) []Move {
	moves := make([]Move, n)
	for i := range moves {
		moves[i] = Move{ID: i + 1, Name: fmt.Sprintf("Move %d", i+1)}
	}
	return moves
}
