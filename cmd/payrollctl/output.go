package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/csg33k/tss-payroll/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

type artifactOutput struct {
	Path  string              `json:"path"`
	Kind  domain.ArtifactKind `json:"kind"`
	Lines int                 `json:"lines"`
	Bytes int                 `json:"bytes"`
}

// writeArtifact stores the artifact under dir and reports where it went.
func writeArtifact(w io.Writer, dir string, a *domain.Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return err
	}
	return writeJSON(w, artifactOutput{Path: path, Kind: a.Kind, Lines: a.Lines, Bytes: len(a.Content)})
}
