package model

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/particles"
	"github.com/wildstyl3r/apcycle/internal/storage"
)

func TestExtractorRecordsAndSaves(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MakeDir = false
	m := build(t, cfg, config.SpeciesParameters{IPD: "StewartPyatt"}, population{
		electrons: [][]particles.Electron{{{Weight: 1000, Energy: 15}}},
		ions:      [][]particles.Ion{ions(1, 1)},
	})

	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init store: %v", err)
	}
	runID := storage.NewRunID()
	de := NewDataExtractor(m, store, runID)
	for step := range uint32(2) {
		m.Run(step)
		if err := de.Record(ctx); err != nil {
			t.Fatalf("record step %d: %v", step, err)
		}
	}

	steps, found, err := store.GetSteps(ctx, runID)
	if err != nil || !found || len(steps) != 2 {
		t.Fatalf("expected 2 stored steps, got %d (found %v, err %v)", len(steps), found, err)
	}
	if steps[0].IPDIonizations != 1 || steps[1].IPDIonizations != 0 {
		t.Fatalf("the ion is pressure ionized in the first step only: %+v", steps)
	}
	charges, _, err := store.GetChargeStates(ctx, runID, "H")
	if err != nil || len(charges) != 2 || charges[1].MeanCharge != 1 {
		t.Fatalf("unexpected stored charge states %+v, err %v", charges, err)
	}

	fs := flag.NewFlagSet("extractor", flag.ContinueOnError)
	df := NewDataFlags(fs)
	if err := fs.Parse([]string{"-all"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	dir := t.TempDir()
	df.SetOutputPath(dir)
	if err := de.Save(ctx, "run.toml", df); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, suffix := range []string{"mc", "cs", "hist", "sub", "sp"} {
		if _, err := os.Stat(filepath.Join(dir, "run_"+suffix+".txt")); err != nil {
			t.Fatalf("output %s missing: %v", suffix, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "run_mc.txt"))
	if err != nil {
		t.Fatalf("read mean charge: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 4 || lines[1] != ",H" {
		t.Fatalf("mean charge file must hold a header, the species row and 2 steps:\n%s", raw)
	}
	if lines[3] != "2e-11,1" {
		t.Fatalf("unexpected last row %q", lines[3])
	}
}
