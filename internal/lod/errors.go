package lod

import "errors"

var (
	// ErrInvalidSize is returned for a tile level outside the supported range.
	ErrInvalidSize = errors.New("lod: invalid tile size")
	// ErrInvalidOptions is returned when mesh options are inconsistent.
	ErrInvalidOptions = errors.New("lod: invalid options")
	// ErrGridMismatch is returned when the sampler does not tile into 2^n+1 blocks.
	ErrGridMismatch = errors.New("lod: height grid does not match tile size")
	// ErrOutsideMesh is returned for queries outside the terrain.
	ErrOutsideMesh = errors.New("lod: position outside mesh")
)
