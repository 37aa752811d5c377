package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"walienPool/internal/model"
	"walienPool/internal/storage/postgres"
)

// CheckpointStore persists report progress per program and window size, so
// reports over different window sizes never share a position in the log.
type CheckpointStore interface {
	Load(ctx context.Context, programID string, windowSecs int64) (model.ReportCheckpoint, bool, error)
	Save(ctx context.Context, cp model.ReportCheckpoint) error
}

func checkpointName(programID string, windowSecs int64) string {
	return fmt.Sprintf("report:%s:%d", programID, windowSecs)
}

// FileCheckpointStore keeps every checkpoint in one local JSON file.
type FileCheckpointStore struct {
	Path string
}

type checkpointFile struct {
	Checkpoints map[string]model.ReportCheckpoint `json:"checkpoints"`
}

func (s *FileCheckpointStore) Load(_ context.Context, programID string, windowSecs int64) (model.ReportCheckpoint, bool, error) {
	file, err := s.read()
	if err != nil {
		return model.ReportCheckpoint{}, false, err
	}
	cp, ok := file.Checkpoints[checkpointName(programID, windowSecs)]
	return cp, ok, nil
}

func (s *FileCheckpointStore) Save(_ context.Context, cp model.ReportCheckpoint) error {
	file, err := s.read()
	if err != nil {
		return err
	}
	cp.UpdatedAt = time.Now().UTC()
	file.Checkpoints[checkpointName(cp.ProgramID, cp.WindowSizeSecs)] = cp

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoints: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create checkpoint tmp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace checkpoints: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) read() (checkpointFile, error) {
	file := checkpointFile{Checkpoints: make(map[string]model.ReportCheckpoint)}
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return file, nil
	}
	if err != nil {
		return file, fmt.Errorf("read checkpoints: %w", err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse checkpoints %s: %w", s.Path, err)
	}
	if file.Checkpoints == nil {
		file.Checkpoints = make(map[string]model.ReportCheckpoint)
	}
	return file, nil
}

// DBCheckpointStore keeps checkpoints in the report_checkpoints table.
type DBCheckpointStore struct {
	Store *postgres.Store
}

func (s *DBCheckpointStore) Load(ctx context.Context, programID string, windowSecs int64) (model.ReportCheckpoint, bool, error) {
	return s.Store.LoadReportCheckpoint(ctx, checkpointName(programID, windowSecs))
}

func (s *DBCheckpointStore) Save(ctx context.Context, cp model.ReportCheckpoint) error {
	return s.Store.SaveReportCheckpoint(ctx, checkpointName(cp.ProgramID, cp.WindowSizeSecs), cp)
}
