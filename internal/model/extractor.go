package model

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/storage"
	"github.com/wildstyl3r/apcycle/internal/utils"
)

// DataExtractor records per-step diagnostics of a model into a store and
// writes the selected outputs as CSV.
type DataExtractor struct {
	model *Model
	store storage.Store
	runID string
}

func NewDataExtractor(model *Model, store storage.Store, runID string) *DataExtractor {
	return &DataExtractor{
		model: model,
		store: store,
		runID: runID,
	}
}

// Record stores the diagnostics of the step the model has just run.
func (de *DataExtractor) Record(ctx context.Context) error {
	step := de.model.StepRecord()
	if err := de.store.SaveStep(ctx, de.runID, step); err != nil {
		return fmt.Errorf("step %d: %w", step.Step, err)
	}
	for _, record := range de.model.ChargeStates() {
		if err := de.store.SaveChargeStates(ctx, de.runID, record); err != nil {
			return fmt.Errorf("step %d, species %s: %w", record.Step, record.Species, err)
		}
		if de.model.Parameters.Verbose {
			fmt.Printf("step %d: %s <Z> = %.4f\n", record.Step, record.Species, record.MeanCharge)
		}
	}
	return nil
}

func (de *DataExtractor) Save(ctx context.Context, modelName string, df DataFlags) error {
	var errs []error
	for name, output := range df.sequentials {
		if !*output.saveFlag && !*df.all {
			continue
		}
		if err := de.saveSequential(ctx, modelName, df, output); err != nil {
			errs = append(errs, fmt.Errorf("unable to save %s: %w", name, err))
			continue
		}
		if de.model.Parameters.Verbose {
			println(name + " saved")
		}
	}
	for name, output := range df.tables {
		if !*output.saveFlag && !*df.all {
			continue
		}
		if err := utils.WriteAsCSV(output.rows(de), de.model.Parameters.MakeDir, df.outputPath, output.fileSuffix, modelName, output.columnNames); err != nil {
			errs = append(errs, err)
			continue
		}
		if de.model.Parameters.Verbose {
			println(name + " saved")
		}
	}
	return errors.Join(errs...)
}

func (de *DataExtractor) saveSequential(ctx context.Context, modelName string, df DataFlags, output SequentialDataItem) (err error) {
	xColumnValue, yColumnValues, yLabels, err := output.values(ctx, de)
	if err != nil {
		return err
	}
	file, err := utils.OpenFile(de.model.Parameters.MakeDir, df.outputPath, output.fileSuffix, utils.GetFilename(modelName))
	if err != nil {
		return err
	}
	defer utils.CloseFile(file, &err)

	units := de.model.Parameters.OutputUnits
	rows := [][]string{output.columnNames}
	rows = append(rows, append([]string{""}, yLabels...))
	for x := range xColumnValue {
		row := []string{strconv.FormatFloat(config.SI(xColumnValue[x], output.xUnit, units, false), 'g', -1, 64)}
		for i := range yColumnValues[x] {
			row = append(row, strconv.FormatFloat(config.SI(yColumnValues[x][i], output.yUnit, units, false), 'g', -1, 64))
		}
		rows = append(rows, row)
	}
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}
	return nil
}
