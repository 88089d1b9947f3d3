package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fractal/internal/escape"
	"github.com/san-kum/fractal/internal/render"
)

const (
	metadataFile   = "metadata.json"
	statsFile      = "stats.csv"
	checkpointFile = "checkpoint.gob.zst"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunDir is the directory holding run runID.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	Frames     int       `json:"frames"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Steps      int       `json:"steps"`
	Iteration  string    `json:"iteration"`
	ColorBy    string    `json:"color_by"`
	Normalize  bool      `json:"normalize_frame_colors"`
	Colormap   string    `json:"colormap"`
	Grayscale  bool      `json:"grayscale"`
	Seconds    float64   `json:"seconds"`
	Params     []string  `json:"params"`
	Elapsed    float64   `json:"elapsed_seconds"`
	Files      []string  `json:"files"`
	Diverged   float64   `json:"diverged_fraction"`
	Checkpoint bool      `json:"checkpoint"`
}

// RenderOptions repeats the run's image settings with cmap as the colormap.
func (m *RunMetadata) RenderOptions(cmap *render.Colormap) render.Options {
	return render.Options{
		Colormap:  cmap,
		Grayscale: m.Grayscale,
		Seconds:   m.Seconds,
	}
}

// Save writes metadata.json and the per-frame stats.csv for meta.ID.
func (s *Store) Save(meta *RunMetadata, stats []escape.FrameStats) error {
	if meta.ID == "" {
		return errors.New("run metadata has no id")
	}
	runDir := s.RunDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statsFile))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"frame", "diverged", "undiverged", "mean_count", "max_count"}); err != nil {
		return err
	}
	for _, st := range stats {
		row := []string{
			strconv.Itoa(st.Frame),
			strconv.Itoa(st.Diverged),
			strconv.Itoa(st.Undiverged),
			strconv.FormatFloat(st.MeanCount, 'f', 6, 64),
			strconv.FormatUint(uint64(st.MaxCount), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadStats(runID string) ([]escape.FrameStats, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), statsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []escape.FrameStats{}, nil
	}

	stats := make([]escape.FrameStats, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 5 {
			return nil, fmt.Errorf("%s line %d: expected 5 fields, got %d", statsFile, i+2, len(record))
		}
		st, err := parseStats(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", statsFile, i+2, err)
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func parseStats(record []string) (escape.FrameStats, error) {
	var st escape.FrameStats
	var err error
	if st.Frame, err = strconv.Atoi(record[0]); err != nil {
		return st, err
	}
	if st.Diverged, err = strconv.Atoi(record[1]); err != nil {
		return st, err
	}
	if st.Undiverged, err = strconv.Atoi(record[2]); err != nil {
		return st, err
	}
	if st.MeanCount, err = strconv.ParseFloat(record[3], 64); err != nil {
		return st, err
	}
	maxCount, err := strconv.ParseUint(record[4], 10, 32)
	if err != nil {
		return st, err
	}
	st.MaxCount = uint32(maxCount)
	return st, nil
}
