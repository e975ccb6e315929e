package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SubDataset is one style directory inside a dataset: the audio files for a
// single style (e.g. "ballad", "metal") of a benchmark dataset.
type SubDataset struct {
	// Dir is the sub-dataset directory path.
	Dir string

	// Style is the leaf directory name, used as the angular axis label in
	// the comparison figures.
	Style string

	// Files holds the audio file names (sorted, relative to Dir).
	Files []string
}

// ListDatasets returns the dataset names under {root}/audio, sorted, with
// exclude (the reference dataset) removed. Non-directories are ignored.
func ListDatasets(root, exclude string) ([]string, error) {
	audioDir := filepath.Join(root, "audio")
	entries, err := os.ReadDir(audioDir)
	if err != nil {
		return nil, fmt.Errorf("audio: list datasets in %q: %w", audioDir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == exclude {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ListDataset returns the sub-datasets (styles) of {root}/audio/{dataset},
// each with its sorted list of audio files. Files with extensions other than
// .wav and .mp3 are skipped.
func ListDataset(root, dataset string) ([]SubDataset, error) {
	datasetDir := filepath.Join(root, "audio", dataset)
	entries, err := os.ReadDir(datasetDir)
	if err != nil {
		return nil, fmt.Errorf("audio: list dataset %q: %w", dataset, err)
	}

	var subs []SubDataset
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(datasetDir, e.Name())
		files, err := listAudioFiles(dir)
		if err != nil {
			return nil, err
		}
		subs = append(subs, SubDataset{Dir: dir, Style: e.Name(), Files: files})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Style < subs[j].Style })
	return subs, nil
}

func listAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("audio: list %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".mp3":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
