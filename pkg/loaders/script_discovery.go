package loaders

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ScriptExt is the file extension of scene scripts
const ScriptExt = ".zy"

// ScriptInfo describes a scene script found on disk
type ScriptInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FilePath    string `json:"filePath"`
}

// ListScripts scans dir for scene scripts. A missing directory yields an
// empty list.
func ListScripts(dir string) ([]ScriptInfo, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []ScriptInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"+ScriptExt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan scripts directory")
	}

	scripts := make([]ScriptInfo, 0, len(files))
	for _, filePath := range files {
		info, err := ParseScriptMetadata(filePath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse metadata for %s", filePath)
		}
		scripts = append(scripts, info)
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].ID < scripts[j].ID
	})
	return scripts, nil
}

// ParseScriptMetadata reads the leading // comment block of a script:
//
//	// Scene: Narrow Street
//	// Description: two facades 8m apart
func ParseScriptMetadata(filePath string) (ScriptInfo, error) {
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	info := ScriptInfo{
		ID:       base,
		Name:     titleCase(base),
		FilePath: filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "//") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if value, ok := strings.CutPrefix(content, "Scene:"); ok {
			info.Name = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(content, "Description:"); ok {
			info.Description = strings.TrimSpace(value)
		}
	}

	return info, scanner.Err()
}

// titleCase converts a filename-style string to title case
// e.g., "narrow-street" -> "Narrow Street"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
