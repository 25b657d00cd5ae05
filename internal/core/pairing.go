package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension selects the files converted by a run.
const DefaultExtension = ".csv"

// PairFiles lists inputDir and pairs every regular entry whose name ends
// with ext (case-sensitive) with the same name under outputDir. Files
// ending in FailedRowsSuffix are skipped.
//
// Subdirectories are not descended into and outputDir is not created.
// Pairs come back in file name order.
func PairFiles(inputDir, outputDir, ext string) ([]FilePair, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", inputDir, err)
	}

	var pairs []FilePair
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		// Failed-rows side files are outputs, even in a shared directory.
		if strings.HasSuffix(entry.Name(), FailedRowsSuffix) {
			continue
		}
		pairs = append(pairs, FilePair{
			Input:  filepath.Join(inputDir, entry.Name()),
			Output: filepath.Join(outputDir, entry.Name()),
		})
	}
	return pairs, nil
}
