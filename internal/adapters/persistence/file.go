package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
)

// Document file names inside the data directory.
const (
	progressFile   = "progress.json"
	milestonesFile = "milestones.json"
)

// FileGateway stores the two documents as JSON files in a directory. Writes
// go through a temp file and rename so a crash never leaves a torn document.
type FileGateway struct {
	dir string
}

// NewFileGateway creates the data directory if needed.
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileGateway{dir: dir}, nil
}

// Save implements Gateway.
func (g *FileGateway) Save(_ context.Context, snap *Snapshot) error {
	type progressDoc struct {
		Progress map[string]*model.ArtistProgress `json:"progress"`
		SavedAt  int64                            `json:"saved_at"`
	}
	if err := g.writeDoc(progressFile, progressDoc{Progress: snap.Progress, SavedAt: snap.SavedAt}); err != nil {
		return err
	}
	type milestonesDoc struct {
		Milestones []model.MilestoneRecord `json:"milestones"`
		SavedAt    int64                   `json:"saved_at"`
	}
	return g.writeDoc(milestonesFile, milestonesDoc{Milestones: snap.Milestones, SavedAt: snap.SavedAt})
}

func (g *FileGateway) writeDoc(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	tmp := filepath.Join(g.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(g.dir, name)); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// Load implements Gateway.
func (g *FileGateway) Load(_ context.Context) (*Snapshot, error) {
	progressData, perr := os.ReadFile(filepath.Join(g.dir, progressFile))
	milestoneData, merr := os.ReadFile(filepath.Join(g.dir, milestonesFile))
	if errors.Is(perr, fs.ErrNotExist) && errors.Is(merr, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}

	snap := &Snapshot{Progress: map[string]*model.ArtistProgress{}}
	if perr == nil {
		var doc struct {
			Progress map[string]*model.ArtistProgress `json:"progress"`
			SavedAt  int64                            `json:"saved_at"`
		}
		if err := json.Unmarshal(progressData, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", progressFile, err)
		}
		snap.Progress = doc.Progress
		snap.SavedAt = doc.SavedAt
	} else if !errors.Is(perr, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", progressFile, perr)
	}

	if merr == nil {
		var doc struct {
			Milestones []model.MilestoneRecord `json:"milestones"`
			SavedAt    int64                   `json:"saved_at"`
		}
		if err := json.Unmarshal(milestoneData, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", milestonesFile, err)
		}
		snap.Milestones = doc.Milestones
	} else if !errors.Is(merr, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", milestonesFile, merr)
	}

	return snap, nil
}

// Close implements Gateway.
func (g *FileGateway) Close() error { return nil }
