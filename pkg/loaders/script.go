package loaders

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// SceneBuilder receives the primitives declared by a scene script
type SceneBuilder interface {
	AddBox(position, size, rotation core.Vec3) error
	AddSphere(center core.Vec3, radius float64) error
	AddMesh(vertices []core.Vec3) error
}

// Script is what a scene script declares besides geometry
type Script struct {
	Checkpoints []core.Vec3
	Resolution  float64 // 0 when the script does not set one
	Primitives  int
}

// ScriptError is a parse or evaluation failure in user script code
type ScriptError struct {
	Line    int
	Message string
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// LoadScript runs the scene script at path against builder. Relative mesh
// paths inside the script resolve against the script's directory.
func LoadScript(path string, builder SceneBuilder, logger core.Logger) (*Script, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene script")
	}

	script, err := runScript(string(source), filepath.Dir(path), builder, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	if logger != nil {
		logger.Printf("Loaded scene script %s: %d primitives, %d checkpoints\n",
			filepath.Base(path), script.Primitives, len(script.Checkpoints))
	}
	return script, nil
}

// RunScript evaluates scene script source against builder
func RunScript(source string, builder SceneBuilder) (*Script, error) {
	return runScript(source, ".", builder, nil)
}

func runScript(source, baseDir string, builder SceneBuilder, logger core.Logger) (script *Script, err error) {
	script = &Script{}
	if strings.TrimSpace(source) == "" {
		return script, nil
	}

	defer func() {
		if r := recover(); r != nil {
			script, err = nil, errors.Errorf("panic during script evaluation: %v", r)
		}
	}()

	// The sandbox keeps scripts away from the filesystem and syscalls;
	// the mesh builtin is the only way in.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, script, baseDir, builder, logger)

	if err := env.LoadString(source); err != nil {
		return nil, parseScriptError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseScriptError(err)
	}
	return script, nil
}

var scriptLinePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

func parseScriptError(err error) error {
	msg := strings.TrimSpace(err.Error())
	if m := scriptLinePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ScriptError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	return &ScriptError{Message: msg}
}

// registerBuiltins installs the scene vocabulary:
//
//	(box x y z sx sy sz [rx ry rz])   rotation in degrees
//	(sphere x y z r)
//	(triangle x1 y1 z1 x2 y2 z2 x3 y3 z3)
//	(mesh "file.ply")
//	(checkpoint x y z)
//	(resolution degrees)
func registerBuiltins(env *zygo.Zlisp, script *Script, baseDir string, builder SceneBuilder, logger core.Logger) {
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 6 && len(args) != 9 {
			return zygo.SexpNull, errors.Errorf("box requires 6 or 9 numbers, got %d", len(args))
		}
		nums, err := toFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		rotation := core.Vec3{}
		if len(nums) == 9 {
			rotation = core.NewVec3(nums[6], nums[7], nums[8]).Multiply(math.Pi / 180)
		}
		err = builder.AddBox(core.NewVec3(nums[0], nums[1], nums[2]), core.NewVec3(nums[3], nums[4], nums[5]), rotation)
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, name)
		}
		script.Primitives++
		return zygo.SexpNull, nil
	})

	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, errors.Errorf("sphere requires 4 numbers, got %d", len(args))
		}
		nums, err := toFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := builder.AddSphere(core.NewVec3(nums[0], nums[1], nums[2]), nums[3]); err != nil {
			return zygo.SexpNull, errors.Wrap(err, name)
		}
		script.Primitives++
		return zygo.SexpNull, nil
	})

	env.AddFunction("triangle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 9 {
			return zygo.SexpNull, errors.Errorf("triangle requires 9 numbers, got %d", len(args))
		}
		nums, err := toFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		vertices := []core.Vec3{
			core.NewVec3(nums[0], nums[1], nums[2]),
			core.NewVec3(nums[3], nums[4], nums[5]),
			core.NewVec3(nums[6], nums[7], nums[8]),
		}
		if err := builder.AddMesh(vertices); err != nil {
			return zygo.SexpNull, errors.Wrap(err, name)
		}
		script.Primitives++
		return zygo.SexpNull, nil
	})

	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, errors.Errorf("mesh requires a file name, got %d arguments", len(args))
		}
		str, ok := args[0].(*zygo.SexpStr)
		if !ok {
			return zygo.SexpNull, errors.Errorf("mesh: expected string, got %T", args[0])
		}
		path := str.S
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := LoadPLY(path, logger)
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, name)
		}
		if err := builder.AddMesh(data.Triangles()); err != nil {
			return zygo.SexpNull, errors.Wrap(err, name)
		}
		script.Primitives++
		return zygo.SexpNull, nil
	})

	env.AddFunction("checkpoint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, errors.Errorf("checkpoint requires 3 numbers, got %d", len(args))
		}
		nums, err := toFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		script.Checkpoints = append(script.Checkpoints, core.NewVec3(nums[0], nums[1], nums[2]))
		return zygo.SexpNull, nil
	})

	env.AddFunction("resolution", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, errors.Errorf("resolution requires 1 number, got %d", len(args))
		}
		nums, err := toFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		script.Resolution = nums[0]
		return zygo.SexpNull, nil
	})
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat)
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, errors.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toFloats(name string, args []zygo.Sexp) ([]float64, error) {
	nums := make([]float64, len(args))
	for i, arg := range args {
		f, err := toFloat64(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: argument %d", name, i+1)
		}
		nums[i] = f
	}
	return nums, nil
}
