package model

import "github.com/pkg/errors"

var (
	ErrMaxDepth = errors.New("max depth must be greater than 0")
	ErrBinWidth = errors.New("bin width must be greater than 0")
)

// MapParams are the scalar parameters of a per-sample mapping task.
type MapParams struct {
	// KeepAlignments selects whether the raw alignment stream is retained.
	KeepAlignments bool `yaml:"keep_alignments"`
	// MaxDepth caps the per-bin depth used for variance estimation.
	MaxDepth int `yaml:"max_depth"`
	// BinWidth is the width in bp of the bins used for variance estimation.
	BinWidth int `yaml:"bin_width"`
}

// Validate checks the parameters are usable by the downstream estimators.
func (p MapParams) Validate() error {
	if p.MaxDepth < 1 {
		return ErrMaxDepth
	}
	if p.BinWidth < 1 {
		return ErrBinWidth
	}

	return nil
}
