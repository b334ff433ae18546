package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/apcycle/internal/atomicdata"
	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/fields"
	"github.com/wildstyl3r/apcycle/internal/histogram"
	"github.com/wildstyl3r/apcycle/internal/model"
	"github.com/wildstyl3r/apcycle/internal/particles"
	"github.com/wildstyl3r/apcycle/internal/storage"
	"github.com/wildstyl3r/apcycle/internal/utils"
)

func main() {
	var configFileNamePointer = flag.String("input", "configs/run", "run configuration in toml format")
	var verbose = flag.Bool("v", false, "print per-step diagnostics")
	var threads = flag.Int("threads", 0, "worker goroutines, overrides Threads of the configuration")
	dataFlags := model.NewDataFlags(flag.CommandLine)
	flag.Parse()

	startTime := time.Now()
	fmt.Printf("Current time: %s\n", startTime.UTC().Format(time.UnixDate))

	parameters, _, err := config.LoadConfig(*configFileNamePointer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *verbose {
		parameters.Verbose = true
	}
	if *threads > 0 {
		parameters.Threads = *threads
	}

	if err := run(context.Background(), utils.GetFilename(*configFileNamePointer), parameters, dataFlags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Elapsed time: %v\n", time.Since(startTime))
}

func run(ctx context.Context, runName string, parameters config.Config, dataFlags model.DataFlags) error {
	mapping, err := fields.NewMapping(parameters.Grid.LocalSuperCells, parameters.Grid.GuardSuperCells)
	if err != nil {
		return err
	}
	h := parameters.Histogram
	registry := fields.New(mapping, histogram.NewBinning(h.NumberBins, h.MinEnergy, h.MaxEnergy, h.LogScale))
	numberSuperCells := mapping.NumberSuperCells()
	volume := parameters.Grid.SuperCellVolume()
	ids := particles.NewIDProvider(numberSuperCells)

	electrons, err := particles.PopulateElectrons(parameters.Electrons, numberSuperCells, volume, parameters.Seed, ids)
	if err != nil {
		return fmt.Errorf("electrons: %w", err)
	}

	var species []*model.Species
	for _, name := range slices.Sorted(maps.Keys(parameters.Species)) {
		sp := parameters.Species[name]
		data, err := atomicdata.Load(sp.AtomicData)
		if err != nil {
			return fmt.Errorf("species %s: %w", name, err)
		}
		ions, err := particles.PopulateIons(name, sp, data, numberSuperCells, volume, ids)
		if err != nil {
			return err
		}
		s, err := model.NewSpecies(name, data, sp, &ions)
		if err != nil {
			return err
		}
		species = append(species, s)
	}
	if err := model.Register(registry, species...); err != nil {
		return err
	}

	e := parameters.EField
	efield := fields.UniformEField{Field: r3.Vec{X: e[0], Y: e[1], Z: e[2]}}
	m, err := model.New(parameters, registry, efield, &electrons, ids, species...)
	if err != nil {
		return err
	}

	if parameters.OutputDir != "" && parameters.OutputDir != "." {
		if err := os.MkdirAll(parameters.OutputDir, 0750); err != nil {
			return err
		}
	}
	store, err := storage.NewStore(parameters.Store, parameters.StorePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer storage.CloseIfSupported(store)

	var encoded bytes.Buffer
	if err := toml.NewEncoder(&encoded).Encode(parameters); err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	runID := storage.NewRunID()
	if err := store.SaveRun(ctx, storage.Run{ID: runID, Config: encoded.String(), Seed: parameters.Seed}); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Printf("run %s: %d supercells, %d electrons, %d species\n", runID, numberSuperCells, electrons.Count(), len(species))

	de := model.NewDataExtractor(m, store, runID)
	for step := range parameters.Steps {
		m.Run(uint32(step))
		if err := de.Record(ctx); err != nil {
			return err
		}
		if !parameters.Verbose {
			fmt.Printf("\rDone:[%d/%d]", step+1, parameters.Steps)
		}
	}
	println()

	dataFlags.SetOutputPath(parameters.OutputDir)
	return de.Save(ctx, runName, dataFlags)
}
