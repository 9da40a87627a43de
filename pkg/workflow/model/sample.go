package model

// Sample is one paired-end sequencing dataset. Samples are enumerated once
// from the reads directory and are immutable afterwards.
type Sample struct {
	// Name identifies the sample. All per-sample output paths derive from it.
	Name string
	// R1 and R2 are the forward and reverse read files.
	R1 string
	R2 string
}
