package plans_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"ifs-actionplan/internal/plans"
	"ifs-actionplan/internal/profile"
	"ifs-actionplan/internal/shared/storage/object/local"
	"ifs-actionplan/internal/shared/telemetry"
)

var errRepoDown = errors.New("repo down")

type failingCreateRepo struct {
	*plans.MemoryRepo
}

func (failingCreateRepo) Create(ctx context.Context, plan plans.Plan) error {
	return errRepoDown
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return files
}

func TestUploadRemovesStoredFileWhenCreateFails(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	dir := t.TempDir()
	svc := &plans.Service{
		Store:   local.New(dir),
		Repo:    failingCreateRepo{plans.NewMemoryRepo()},
		Profile: profile.Default(),
	}
	data := workbookBytes(t, standardHeader, []any{"4.1.2", "Spécifications clients", "Non à jour", "C"})

	_, err := svc.Upload(context.Background(), "guest:tester", "audit.xlsx", bytes.NewReader(data))
	if !errors.Is(err, errRepoDown) {
		t.Fatalf("expected repo error, got %v", err)
	}
	if files := storedFiles(t, dir); len(files) != 0 {
		t.Fatalf("expected uploaded workbook to be removed, found %v", files)
	}
}

func TestUploadKeepsStoredFileOnSuccess(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	dir := t.TempDir()
	repo := plans.NewMemoryRepo()
	svc := &plans.Service{Store: local.New(dir), Repo: repo, Profile: profile.Default()}
	data := workbookBytes(t, standardHeader, []any{"4.1.2", "Spécifications clients", "Non à jour", "C"})

	plan, err := svc.Upload(context.Background(), "guest:tester", "audit.xlsx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if files := storedFiles(t, dir); len(files) != 1 || filepath.ToSlash(files[0]) != filepath.ToSlash(filepath.Join(dir, plan.StorageKey)) {
		t.Fatalf("expected the stored workbook at %s, found %v", plan.StorageKey, files)
	}
}
