package types

import "github.com/taigrr/srcpaths/internal/srcpath"

type (
	// PathDescriptor pairs a line of the tracked-file listing with its
	// structured view. ItemPath.Suffix() always equals the configured suffix.
	PathDescriptor struct {
		RawPath  string           `json:"rawPath"`
		ItemPath srcpath.ItemPath `json:"-"`
	}

	// Listing is the raw capture of one tracked-file listing.
	Listing struct {
		Stdout   []byte
		Stderr   []byte
		ExitCode int
	}

	// Summary counts what an enumeration saw.
	Summary struct {
		Listed   int `json:"listed"`
		Matched  int `json:"matched"`
		Excluded int `json:"excluded"`
		Missing  int `json:"missing"`
	}
)
