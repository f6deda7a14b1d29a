package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// jsonIndent matches the viewer's expectation of a human-diffable document.
const jsonIndent = "  "

// Publish validates the assembled document against the embedded schema,
// writes the image assets, and atomically installs the document at the
// configured output path. Nothing is visible at the output path until
// the rename, so an aborted run never leaves a partial document behind.
func (a *Assembler) Publish(ctx context.Context, result *RunResult) error {
	_, span := a.Tracer.Start(ctx, "assemble.publish")
	defer span.End()

	data, err := json.MarshalIndent(result.Document, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	// All-or-nothing: a document that fails its own schema must never
	// reach the viewer.
	err = result.Document.Validate()
	if err != nil {
		return fmt.Errorf("refusing to publish: %w", err)
	}

	err = a.writeAssets(result)
	if err != nil {
		return err
	}

	return a.writeDocument(data)
}

func (a *Assembler) writeAssets(result *RunResult) error {
	if len(result.Assets) == 0 {
		return nil
	}

	err := os.MkdirAll(a.Config.AssetsDir, 0o755)
	if err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	for _, asset := range result.Assets {
		dest := filepath.Join(a.Config.AssetsDir, asset.Destination)

		err = os.WriteFile(dest, asset.Content, 0o644)
		if err != nil {
			return fmt.Errorf("write asset %s: %w", asset.Destination, err)
		}
	}

	return nil
}

func (a *Assembler) writeDocument(data []byte) error {
	outDir := filepath.Dir(a.Config.Output)

	err := os.MkdirAll(outDir, 0o755)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Temp file in the destination directory so the final rename stays
	// on one filesystem and is atomic.
	tmp, err := os.CreateTemp(outDir, ".temporal-data-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write document: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("close document: %w", err)
	}

	err = os.Rename(tmpName, a.Config.Output)
	if err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("publish document: %w", err)
	}

	return nil
}
