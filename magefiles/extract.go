//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract runs the extractor over the sample report in testdata/.
func Extract() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "extract", filepath.Join("testdata", "report.txt"))
}

// Place prints the resolved writes of the sample report for the block at row 21.
func Place() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "place", "--origin", "21", filepath.Join("testdata", "report.txt"))
}
