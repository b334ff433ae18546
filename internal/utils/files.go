package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadTable reads whitespace separated rows of exactly columns numbers.
// Blank lines and lines starting with # are skipped.
func ReadTable(filename string, columns int) ([][]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(file)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != columns {
			return nil, fmt.Errorf("%s:%d: expected %d numbers, got %d", filename, lineNumber, columns, len(fields))
		}
		row := make([]float64, columns)
		for i, field := range fields {
			if row[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", filename, lineNumber, err)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return rows, nil
}

// GetFilename strips directory and extension.
func GetFilename(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CloseFile closes a written file, reporting the close error unless err is already set.
func CloseFile(file *os.File, err *error) {
	if closeErr := file.Close(); closeErr != nil && *err == nil {
		*err = fmt.Errorf("unable to close %s: %w", file.Name(), closeErr)
	}
}

// OpenFile creates the output file of one quantity of a run: either
// <outputPath>/<fileSuffix>/<runName>.txt or <outputPath>/<runName>_<fileSuffix>.txt.
func OpenFile(makeDir bool, outputPath string, fileSuffix, runName string) (*os.File, error) {
	if !makeDir || fileSuffix == "" || fileSuffix == "." {
		return os.Create(filepath.Join(outputPath, runName+"_"+fileSuffix+".txt"))
	}
	dir := filepath.Join(outputPath, fileSuffix)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(dir, runName+".txt"))
}
