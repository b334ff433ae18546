package model

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/utils"
)

type DataItem struct {
	saveFlag   *bool
	fileSuffix string
}

type SequentialDataItem struct {
	DataItem
	columnNames []string
	values      func(context.Context, *DataExtractor) (args []float64, values [][]float64, labels []string, err error)
	xUnit       []config.UnitElement
	yUnit       []config.UnitElement
}

// TableDataItem rows are written sorted naturally by their first column.
type TableDataItem struct {
	DataItem
	columnNames []string
	rows        func(*DataExtractor) utils.CSV
}

type DataFlags struct {
	all         *bool
	sequentials map[string]SequentialDataItem
	tables      map[string]TableDataItem
	outputPath  string
}

func NewDataFlags(fs *flag.FlagSet) DataFlags {
	return DataFlags{
		all: fs.Bool("all", false, "save every available metric"),
		sequentials: map[string]SequentialDataItem{
			"Mean charge": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("mc", true, "save mean charge of every species per step"),
					fileSuffix: "mc",
				},
				columnNames: []string{"t (s)", "<Z>"},
				values: func(ctx context.Context, de *DataExtractor) (args []float64, values [][]float64, labels []string, err error) {
					labels = de.speciesNames()
					var series [][]float64
					for _, name := range labels {
						records, _, err := de.store.GetChargeStates(ctx, de.runID, name)
						if err != nil {
							return nil, nil, nil, err
						}
						column := make([]float64, len(records))
						for i, r := range records {
							column[i] = r.MeanCharge
						}
						series = append(series, column)
						if len(records) > len(args) {
							args = args[:0]
							for _, r := range records {
								args = append(args, de.stepTime(r.Step))
							}
						}
					}
					for i := range args {
						row := make([]float64, len(series))
						for j := range series {
							if i < len(series[j]) {
								row[j] = series[j][i]
							}
						}
						values = append(values, row)
					}
					return args, values, labels, nil
				},
				xUnit: []config.UnitElement{{Class: config.Time, Power: 1}},
				yUnit: []config.UnitElement{},
			},
			"Charge state distribution": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("cs", false, "save final ion density per charge state"),
					fileSuffix: "cs",
				},
				columnNames: []string{"Z", "n_i (m^-3)"},
				values: func(_ context.Context, de *DataExtractor) (args []float64, values [][]float64, labels []string, err error) {
					records := de.model.ChargeStates()
					maxCharge := 0
					for _, r := range records {
						labels = append(labels, r.Species)
						maxCharge = max(maxCharge, len(r.Weights)-1)
					}
					volume := de.model.volume * float64(de.model.Registry.NumberSuperCells())
					for z := range maxCharge + 1 {
						args = append(args, float64(z))
						row := make([]float64, len(records))
						for j, r := range records {
							if z < len(r.Weights) {
								row[j] = r.Weights[z] / volume
							}
						}
						values = append(values, row)
					}
					return args, values, labels, nil
				},
				xUnit: []config.UnitElement{},
				yUnit: []config.UnitElement{{Class: config.Length, Power: -3}},
			},
			"Electron spectrum": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("hist", false, "save electron histogram summed over supercells"),
					fileSuffix: "hist",
				},
				columnNames: []string{"E (eV)", "n_e (m^-3)"},
				values: func(_ context.Context, de *DataExtractor) (args []float64, values [][]float64, labels []string, err error) {
					registry := de.model.Registry
					if len(registry.Histograms) == 0 {
						return nil, nil, nil, nil
					}
					volume := de.model.volume * float64(registry.NumberSuperCells())
					weights := make([]float64, registry.Binning.NumberBins())
					for sc := range registry.Histograms {
						for b, w := range registry.Histograms[sc].Weights() {
							weights[b] += w
						}
					}
					for b := range weights {
						args = append(args, registry.Histograms[0].Bins[b].Energy)
						values = append(values, []float64{weights[b] / volume})
					}
					return args, values, []string{"electrons"}, nil
				},
				xUnit: []config.UnitElement{{Class: config.Energy, Power: 1}},
				yUnit: []config.UnitElement{{Class: config.Length, Power: -3}},
			},
			"Sub-steps": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("sub", false, "save sub-step and rejection statistics per step"),
					fileSuffix: "sub",
				},
				columnNames: []string{"t (s)", "count"},
				values: func(ctx context.Context, de *DataExtractor) (args []float64, values [][]float64, labels []string, err error) {
					records, _, err := de.store.GetSteps(ctx, de.runID)
					if err != nil {
						return nil, nil, nil, err
					}
					for _, r := range records {
						args = append(args, de.stepTime(r.Step))
						values = append(values, []float64{
							float64(maxSubSteps(r.SubSteps)),
							float64(r.Accepted),
							float64(r.Rejected),
							float64(r.OverSubscribedBins),
							float64(r.IPDIonizations),
							float64(r.Electrons),
						})
					}
					labels = []string{"max sub-steps", "accepted", "rejected", "over-subscribed bins", "IPD ionizations", "electrons"}
					return args, values, labels, nil
				},
				xUnit: []config.UnitElement{{Class: config.Time, Power: 1}},
				yUnit: []config.UnitElement{},
			},
		},
		tables: map[string]TableDataItem{
			"State populations": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("sp", false, "save final weight per atomic state"),
					fileSuffix: "sp",
				},
				columnNames: []string{"state", "Z", "levels", "E (eV)", "weight"},
				rows: func(de *DataExtractor) (rows utils.CSV) {
					for _, s := range de.model.Species {
						for state, w := range s.StatePopulations() {
							st := &s.Data.States[state]
							levels := make([]string, len(st.Levels))
							for i, k := range st.Levels {
								levels[i] = strconv.Itoa(int(k))
							}
							rows = append(rows, []string{
								fmt.Sprintf("%s %d", s.Name, state),
								strconv.Itoa(int(st.Charge)),
								strings.Join(levels, " "),
								strconv.FormatFloat(s.Data.TotalEnergy(uint32(state)), 'g', -1, 64),
								strconv.FormatFloat(w, 'g', -1, 64),
							})
						}
					}
					return rows
				},
			},
		},
	}
}

func (df *DataFlags) SetOutputPath(path string) {
	if path != "" && path[len(path)-1] != '/' {
		df.outputPath = path + "/"
	} else {
		df.outputPath = path
	}
}

func (df *DataFlags) GetOutputPath() string {
	return df.outputPath
}

func (de *DataExtractor) speciesNames() []string {
	names := make([]string, len(de.model.Species))
	for i, s := range de.model.Species {
		names[i] = s.Name
	}
	slices.Sort(names)
	return names
}

// stepTime is the simulation time at the end of outer step.
func (de *DataExtractor) stepTime(step uint32) float64 {
	return float64(step+1) * de.model.Parameters.TimeStep
}
