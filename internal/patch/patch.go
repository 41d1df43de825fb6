// Package patch implements portable prompt patches: a JSON file format
// carrying both full version contents and a unified text diff, so a change
// can be shared and applied outside the repository it came from.
package patch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/promptpit/pit/internal/store"
	"github.com/promptpit/pit/internal/textdiff"
)

const (
	// FormatTag identifies the patch file format version.
	FormatTag = "pit-patch-v1"
	// Extension is appended to patch paths that lack it.
	Extension = ".promptpatch"
)

// fileSchema validates patch files on load, so a truncated or hand-edited
// file fails with a real error instead of a zero-valued struct.
const fileSchema = `{
  "type": "object",
  "required": ["metadata", "old_content", "new_content", "text_diff"],
  "properties": {
    "metadata": {
      "type": "object",
      "required": ["format", "created_at", "source_prompt", "source_versions"],
      "properties": {
        "format": {"type": "string"},
        "created_at": {"type": "string"},
        "author": {"type": ["string", "null"]},
        "source_prompt": {"type": "string"},
        "source_versions": {
          "type": "array",
          "items": {"type": "integer"},
          "minItems": 2,
          "maxItems": 2
        },
        "description": {"type": ["string", "null"]}
      }
    },
    "old_content": {"type": "string"},
    "new_content": {"type": "string"},
    "text_diff": {"type": "string"},
    "semantic_diff": {"type": ["object", "null"]}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(fileSchema)

// Metadata describes where a patch came from.
type Metadata struct {
	Format         string `json:"format"`
	CreatedAt      string `json:"created_at"`
	Author         string `json:"author,omitempty"`
	SourcePrompt   string `json:"source_prompt"`
	SourceVersions [2]int `json:"source_versions"`
	Description    string `json:"description,omitempty"`
}

// Patch is a portable prompt change. OldContent and NewContent carry the
// full before/after text; TextDiff is a unified diff for human review.
type Patch struct {
	Metadata     Metadata       `json:"metadata"`
	OldContent   string         `json:"old_content"`
	NewContent   string         `json:"new_content"`
	TextDiff     string         `json:"text_diff"`
	SemanticDiff map[string]any `json:"semantic_diff,omitempty"`
}

// Hash returns a short identifier derived from the patch's source prompt
// and version pair.
func (p *Patch) Hash() string {
	content := fmt.Sprintf("%s:%d:%d",
		p.Metadata.SourcePrompt, p.Metadata.SourceVersions[0], p.Metadata.SourceVersions[1])
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:12]
}

// Save writes the patch as indented JSON, appending the patch extension if
// the path lacks it.
func (p *Patch) Save(path string) (string, error) {
	if filepath.Ext(path) != Extension {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + Extension
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode patch: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write patch file: %w", err)
	}
	return path, nil
}

// Load reads and validates a patch file. A path without the patch
// extension is retried with it appended, so Save/Load round-trip on the
// same extensionless name.
func Load(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if filepath.Ext(path) != Extension && os.IsNotExist(err) {
			if retry, retryErr := os.ReadFile(path + Extension); retryErr == nil {
				data, err = retry, nil
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read patch file: %w", err)
		}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid patch file %s: %w", path, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("invalid patch file %s: %s", path, strings.Join(problems, "; "))
	}

	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode patch file %s: %w", path, err)
	}
	if p.Metadata.Format != FormatTag {
		return nil, fmt.Errorf("unsupported patch format %q (want %q)", p.Metadata.Format, FormatTag)
	}
	return &p, nil
}

// Generator creates patches from version pairs.
type Generator struct {
	Author string
}

// Generate builds a patch describing the change from oldVersion to
// newVersion of the named prompt. The new version's semantic diff, if any,
// travels with the patch.
func (g *Generator) Generate(promptName string, oldVersion, newVersion *store.Version, description string) *Patch {
	diff := textdiff.Unified(
		oldVersion.Content, newVersion.Content,
		fmt.Sprintf("v%d", oldVersion.VersionNumber),
		fmt.Sprintf("v%d", newVersion.VersionNumber),
	)

	return &Patch{
		Metadata: Metadata{
			Format:         FormatTag,
			CreatedAt:      time.Now().Format(time.RFC3339),
			Author:         g.Author,
			SourcePrompt:   promptName,
			SourceVersions: [2]int{oldVersion.VersionNumber, newVersion.VersionNumber},
			Description:    description,
		},
		OldContent:   oldVersion.Content,
		NewContent:   newVersion.Content,
		TextDiff:     diff,
		SemanticDiff: newVersion.SemanticDiff,
	}
}
