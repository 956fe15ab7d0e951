package lod

import "time"

// Truncation names what stopped the split loop early.
type Truncation uint8

const (
	NotTruncated Truncation = iota
	TruncatedBudget
	TruncatedHardCap
	TruncatedTime
)

func (t Truncation) String() string {
	switch t {
	case TruncatedBudget:
		return "budget"
	case TruncatedHardCap:
		return "hard-cap"
	case TruncatedTime:
		return "time"
	default:
		return "none"
	}
}

// Stats describes one refine pass.
type Stats struct {
	Frame        uint64
	Active       int
	Visible      int
	Splits       int // every triangle split, forced ones included
	Merges       int
	SplitQueue   int
	MergeQueue   int
	SkippedTrees int // trees left untouched because they were out of view

	PriorityCalcs   int
	Inserts         int
	Removes         int
	Moves           int
	VisibilityTests int

	Duration  time.Duration
	Truncated Truncation
}
