// Package catalog resolves scene names to populated scenes. A name is either
// a built-in sample or a zygomys scene script on disk.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/df07/go-sky-ratio/pkg/accel"
	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/loaders"
	"github.com/df07/go-sky-ratio/pkg/scene"
)

// DefaultDir is where scene scripts are looked up by name
const DefaultDir = "scenes"

const (
	GroupSamples = "Built-in Samples"
	GroupScripts = "Scene Scripts"

	TypeSample = "sample"
	TypeScript = "script"
)

// SceneInfo represents a discoverable scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
	Type        string `json:"type"`               // "sample" or "script"
	FilePath    string `json:"filePath,omitempty"` // script type only
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// Source is a populated, unbuilt scene with the checkpoints and resolution
// it declares
type Source struct {
	Info        SceneInfo
	Scene       *scene.Scene
	Checkpoints []core.Vec3
	Resolution  float64 // 0 when the scene does not declare one
}

// Catalog lists and opens scenes from the built-in samples and a scripts
// directory
type Catalog struct {
	dir string
}

// New creates a catalog reading scripts from dir
func New(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Dir returns the scripts directory
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns built-in samples first, then scripts
func (c *Catalog) List() ([]SceneGroup, error) {
	samples := lo.Map(scene.Samples(), func(sm scene.Sample, _ int) SceneInfo {
		return sampleInfo(sm)
	})
	groups := []SceneGroup{{Name: GroupSamples, Scenes: samples}}

	scripts, err := loaders.ListScripts(c.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scene scripts")
	}
	if len(scripts) > 0 {
		groups = append(groups, SceneGroup{
			Name:   GroupScripts,
			Scenes: lo.Map(scripts, func(info loaders.ScriptInfo, _ int) SceneInfo { return scriptInfo(info) }),
		})
	}
	return groups, nil
}

// Open populates a new scene for name. Names resolve as a built-in sample,
// then as a script in the catalog directory, then as a script path.
func (c *Catalog) Open(name string, accelerator accel.Accelerator, logger core.Logger) (*Source, error) {
	if name == "" {
		return nil, errors.New("no scene given")
	}

	s := scene.NewScene(accelerator, logger)

	if sample, ok := scene.LookupSample(name); ok {
		if err := sample.Populate(s); err != nil {
			return nil, errors.Wrapf(err, "sample %s", name)
		}
		return &Source{
			Info:        sampleInfo(sample),
			Scene:       s,
			Checkpoints: sample.Checkpoints,
			Resolution:  sample.Resolution,
		}, nil
	}

	path := name
	if !strings.HasSuffix(path, loaders.ScriptExt) {
		path = filepath.Join(c.dir, name+loaders.ScriptExt)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Errorf("unknown scene %q", name)
	}

	meta, err := loaders.ParseScriptMetadata(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene metadata")
	}
	script, err := loaders.LoadScript(path, s, logger)
	if err != nil {
		return nil, err
	}
	return &Source{
		Info:        scriptInfo(meta),
		Scene:       s,
		Checkpoints: script.Checkpoints,
		Resolution:  script.Resolution,
	}, nil
}

func sampleInfo(sm scene.Sample) SceneInfo {
	return SceneInfo{
		ID:          sm.ID,
		Name:        sm.Name,
		Description: sm.Description,
		Group:       GroupSamples,
		Type:        TypeSample,
	}
}

func scriptInfo(info loaders.ScriptInfo) SceneInfo {
	return SceneInfo{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		Group:       GroupScripts,
		Type:        TypeScript,
		FilePath:    info.FilePath,
	}
}
