package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/accel"
	"github.com/df07/go-sky-ratio/pkg/catalog"
	"github.com/df07/go-sky-ratio/pkg/config"
	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/loaders"
	"github.com/df07/go-sky-ratio/pkg/parallel"
	"github.com/df07/go-sky-ratio/pkg/scene"
	"github.com/df07/go-sky-ratio/pkg/sky"
	"github.com/df07/go-sky-ratio/pkg/sun"
)

const scenesDir = "scenes"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "JSON run configuration (// comments allowed)")
	sceneName := flag.String("scene", "", "Built-in sample ID, script name in scenes/, or path to a .zy script")
	plyPath := flag.String("ply", "", "Comma-separated PLY meshes to add to the scene")
	resolution := flag.Float64("resolution", 0, "Angular step in degrees (0 = use the scene's)")
	accelName := flag.String("accel", "", "Acceleration structure: "+strings.Join(accel.Names(), ", "))
	workers := flag.Int("workers", 0, "Worker goroutines (0 = number of CPUs)")
	method := flag.String("method", "", "Sky ratio method: solid_angle or ray_count")
	stlPath := flag.String("stl", "", "Write the scene as binary STL to this path")
	list := flag.Bool("list", false, "List available scenes and exit")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("Sky Ratio")
		fmt.Println("Usage: skyratio [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Scenes:")
		printScenes(os.Stdout)
		return
	}

	if *list {
		printScenes(os.Stdout)
		return
	}

	conf := config.Default()
	resolutionSet := false
	if *configPath != "" {
		var err error
		conf, err = config.Load(*configPath)
		if err != nil {
			log.Fatalln(err)
		}
		resolutionSet = conf.ResolutionSet()
	}

	// Flags override the configuration file
	if *sceneName != "" {
		conf.Sample, conf.SceneScript = *sceneName, ""
	}
	if *plyPath != "" {
		conf.Meshes = append(conf.Meshes, strings.Split(*plyPath, ",")...)
	}
	if *resolution != 0 {
		conf.RayResolution = *resolution
		resolutionSet = true
	}
	if *accelName != "" {
		conf.Accelerator = *accelName
	}
	if *workers != 0 {
		conf.Workers = *workers
	}
	if *method != "" {
		conf.Method = *method
	}
	if *stlPath != "" {
		conf.STLOutput = *stlPath
	}
	if conf.Sample == "" && conf.SceneScript == "" {
		conf.Sample = "city"
	}
	if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if err := run(conf, resolutionSet, os.Stdout, logger); err != nil {
		log.Fatalln(err)
	}
}

// run builds the configured scene, evaluates every checkpoint and writes
// the report to out
func run(conf *config.Config, resolutionSet bool, out io.Writer, logger core.Logger) error {
	accelerator, err := accel.ByName(conf.Accelerator)
	if err != nil {
		return err
	}

	name := conf.Sample
	if conf.SceneScript != "" {
		name = conf.SceneScript
	}
	src, err := catalog.New(scenesDir).Open(name, accelerator, logger)
	if err != nil {
		return err
	}

	for _, path := range conf.Meshes {
		data, err := loaders.LoadPLY(path, logger)
		if err != nil {
			return err
		}
		if err := src.Scene.AddMesh(data.Triangles()); err != nil {
			return errors.Wrapf(err, "mesh %s", path)
		}
	}

	if err := src.Scene.Build(); err != nil {
		return errors.Wrap(err, "failed to build scene")
	}

	if conf.STLOutput != "" {
		if err := os.MkdirAll(filepath.Dir(conf.STLOutput), 0755); err != nil {
			return errors.Wrap(err, "failed to create STL output directory")
		}
		if err := src.Scene.SaveSTL(conf.STLOutput); err != nil {
			return err
		}
		fmt.Fprintf(out, "Scene saved as %s\n", conf.STLOutput)
	}

	checkpoints := src.Checkpoints
	if len(conf.Checkpoints) > 0 {
		checkpoints = conf.CheckpointVecs()
	}
	resolution := src.Resolution
	if resolutionSet || resolution == 0 {
		resolution = conf.RayResolution
	}
	method, err := sky.ParseMethod(conf.Method)
	if err != nil {
		return err
	}

	checker := sky.NewChecker(logger)
	checker.SetScene(src.Scene)
	checker.SetResolution(resolution)
	checker.SetMethod(method)
	if err := checker.SetCheckpoints(checkpoints); err != nil {
		return err
	}

	numWorkers := conf.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	startTime := time.Now()
	ratios, err := parallel.CheckAll(checker, numWorkers)
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	grid := checker.Grid()
	fmt.Fprintf(out, "Scene: %s (%d primitives, %s)\n", src.Info.Name, src.Scene.Len(), accelerator.Name())
	fmt.Fprintf(out, "Resolution: %g° (%d rays per checkpoint), method %s\n", grid.Resolution, grid.RayCount(), checker.Method())
	for i, ratio := range ratios {
		cp := checkpoints[i]
		fmt.Fprintf(out, "  checkpoint %d (%.2f, %.2f, %.2f): sky ratio %.4f\n", i, cp.X, cp.Y, cp.Z, ratio)
	}

	summary := sky.Summarize(ratios)
	fmt.Fprintf(out, "Checked %d checkpoints in %v: min %.4f, max %.4f, average %.4f, %d fully covered\n",
		summary.Checkpoints, elapsed, summary.MinRatio, summary.MaxRatio, summary.AverageRatio, summary.Covered)

	if conf.Sun != nil {
		return reportSun(conf.Sun, src.Scene, checkpoints, out)
	}
	return nil
}

func reportSun(sc *config.SunConfig, s *scene.Scene, checkpoints []core.Vec3, out io.Writer) error {
	times, err := sc.Times()
	if err != nil {
		return err
	}
	results, err := sun.Exposure(s, checkpoints, sc.Latitude, sc.Longitude, times)
	if err != nil {
		return errors.Wrap(err, "sun exposure")
	}

	step := time.Duration(sc.StepMinutes) * time.Minute
	fmt.Fprintf(out, "Direct sun on %s at (%.2f, %.2f):\n", sc.Date, sc.Latitude, sc.Longitude)
	for i, result := range results {
		fmt.Fprintf(out, "  checkpoint %d: %v of %v daylight in sun (%.0f%%)\n",
			i, time.Duration(result.Lit)*step, time.Duration(result.Daylight)*step, 100*result.LitFraction())
	}
	return nil
}

func printScenes(out io.Writer) {
	groups, err := catalog.New(scenesDir).List()
	if err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		return
	}
	for _, group := range groups {
		fmt.Fprintf(out, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(out, "  %-14s %s\n", info.ID, info.Description)
		}
	}
}
