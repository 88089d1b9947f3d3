package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/fractal/internal/escape"
	"github.com/san-kum/fractal/internal/render"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := &RunMetadata{
		ID:        "20240102030405 8x8px",
		Kind:      "julia",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Frames:    2,
		Width:     8,
		Height:    8,
		Steps:     50,
		Params:    []string{"(-0.982+0.232i)"},
		Files:     []string{"fractal0000_166_71.png"},
	}
	stats := []escape.FrameStats{
		{Frame: 0, Diverged: 40, Undiverged: 24, MeanCount: 12.5, MaxCount: 50},
		{Frame: 1, Diverged: 64, MeanCount: 3, MaxCount: 9},
	}

	if err := st.Save(meta, stats); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.Load(meta.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Kind != "julia" || loaded.Steps != 50 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if !loaded.Timestamp.Equal(meta.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", meta.Timestamp, loaded.Timestamp)
	}

	got, err := st.LoadStats(meta.ID)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if len(got) != len(stats) {
		t.Fatalf("expected %d stat rows, got %d", len(stats), len(got))
	}
	for i := range stats {
		if got[i] != stats[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, stats[i], got[i])
		}
	}
}

func TestRenderOptionsSurviveSave(t *testing.T) {
	st := New(t.TempDir())
	meta := &RunMetadata{
		ID:        "gray",
		Kind:      "mandelbrot",
		Timestamp: time.Now(),
		Frames:    3,
		Normalize: true,
		Colormap:  "inferno",
		Grayscale: true,
		Seconds:   2.5,
	}
	if err := st.Save(meta, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := st.Load("gray")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.Normalize {
		t.Error("expected normalize_frame_colors to survive")
	}

	cmap, err := render.Lookup(loaded.Colormap)
	if err != nil {
		t.Fatal(err)
	}
	opts := loaded.RenderOptions(cmap)
	if !opts.Grayscale || opts.Seconds != 2.5 || opts.Colormap != cmap {
		t.Errorf("unexpected render options %+v", opts)
	}
}

func TestSaveRequiresID(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Save(&RunMetadata{}, nil); err == nil {
		t.Error("expected error for metadata without id")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "a", "c"} {
		meta := &RunMetadata{ID: id, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if err := st.Save(meta, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "not-a-run"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[2].ID != "c" {
		t.Errorf("expected runs oldest first, got %s %s %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	eng, err := escape.New(escape.Options{
		Window: escape.Window{Width: 6, Height: 4, Xmin: -1.5, Xmax: 1.5, Ymin: -1, Ymax: 1},
		Frames: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.InitJulia(escape.Scalar(complex(2, 0)), escape.PerFrame(complex(-0.8, 0.156), complex(0.285, 0.01)), escape.Scalar(2.0)); err != nil {
		t.Fatal(err)
	}
	if err := eng.Advance(escape.Scalar(7), escape.Bounded); err != nil {
		t.Fatal(err)
	}

	if st.HasCheckpoint("run") {
		t.Error("expected no checkpoint before save")
	}
	if err := st.SaveCheckpoint("run", eng.Snapshot()); err != nil {
		t.Fatalf("save checkpoint failed: %v", err)
	}
	if !st.HasCheckpoint("run") {
		t.Error("expected checkpoint after save")
	}

	snap, err := st.LoadCheckpoint("run")
	if err != nil {
		t.Fatalf("load checkpoint failed: %v", err)
	}
	restored, err := escape.Restore(snap)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	// Both engines must continue identically.
	for _, e := range []*escape.Engine{eng, restored} {
		if err := e.Advance(escape.Scalar(5), escape.Bounded); err != nil {
			t.Fatal(err)
		}
	}
	want, got := eng.Counts(), restored.Counts()
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("count %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if restored.FrameParam(1) != complex(0.285, 0.01) {
		t.Errorf("frame param lost: %v", restored.FrameParam(1))
	}
}

func TestLoadCheckpointMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.LoadCheckpoint("nothing"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
