// Package mcpack builds the two artifacts a Bedrock behavior pack needs
// beyond the generated .mcfunction tree: a manifest.json (spec.md §6) and
// the .mcpack zip archive that wraps the output directory for install.
package mcpack

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Manifest mirrors the subset of Bedrock's manifest.json schema MCSH
// needs: one header UUID identifying the pack and one module UUID
// identifying its data module.
type Manifest struct {
	FormatVersion int             `json:"format_version"`
	Header        ManifestHeader  `json:"header"`
	Modules       []ManifestModule `json:"modules"`
}

type ManifestHeader struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UUID        string `json:"uuid"`
	Version     [3]int `json:"version"`
}

type ManifestModule struct {
	Type    string `json:"type"`
	UUID    string `json:"uuid"`
	Version [3]int `json:"version"`
}

// PromptManifest reads name, description and pack UUID from in, writing
// prompts to out. An empty UUID answer generates a fresh one with
// github.com/google/uuid, matching how a human author would leave the
// field blank and let the tool pick an id.
func PromptManifest(in io.Reader, out io.Writer) (Manifest, error) {
	r := bufio.NewReader(in)

	name, err := promptLine(r, out, "pack name: ")
	if err != nil {
		return Manifest{}, err
	}
	description, err := promptLine(r, out, "pack description: ")
	if err != nil {
		return Manifest{}, err
	}
	idAnswer, err := promptLine(r, out, "pack uuid (blank to generate): ")
	if err != nil {
		return Manifest{}, err
	}

	headerID := strings.TrimSpace(idAnswer)
	if headerID == "" {
		headerID = uuid.NewString()
	}

	return Manifest{
		FormatVersion: 2,
		Header: ManifestHeader{
			Name:        name,
			Description: description,
			UUID:        headerID,
			Version:     [3]int{1, 0, 0},
		},
		Modules: []ManifestModule{
			{
				Type:    "data",
				UUID:    uuid.NewString(),
				Version: [3]int{1, 0, 0},
			},
		},
	}, nil
}

func promptLine(r *bufio.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// WriteManifest marshals m as manifest.json under dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Archive zips every file under dir into outFile as a .mcpack, storing
// paths relative to dir. Only the standard library is used here: no
// example repo in the pack wires a third-party zip library, and
// archive/zip already covers everything a pack archive needs (see
// DESIGN.md).
func Archive(dir, outFile string) error {
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outFile, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if walkErr != nil {
		zw.Close()
		return fmt.Errorf("archive %s: %w", dir, walkErr)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive %s: %w", outFile, err)
	}
	return nil
}
