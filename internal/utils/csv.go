package utils

import (
	"encoding/csv"
	"fmt"
	"sort"

	"github.com/facette/natsort"
)

type CSV [][]string

func (data CSV) Less(i, j int) bool {
	return natsort.Compare(data[i][0], data[j][0])
}

func (data CSV) Len() int {
	return len(data)
}
func (data CSV) Swap(i, j int) {
	data[i], data[j] = data[j], data[i]
}

// WriteAsCSV writes the header and the rows sorted naturally by their first column.
func WriteAsCSV(data CSV, makeDir bool, path, subpath, filename string, columns []string) (err error) {
	file, err := OpenFile(makeDir, path, subpath, GetFilename(filename))
	if err != nil {
		return fmt.Errorf("unable to save %s: %w", subpath, err)
	}
	defer CloseFile(file, &err)

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}
	sort.Sort(data)
	if err := w.WriteAll(data); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}
	return nil
}
