package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	dbt "mileage/db/db"
	"mileage/mileage"
)

var calcHeader = []string{"vehicle", "start", "end", "fuel", "distance", "efficiency", "cost", "error"}

// CalcRow is one parsed input line of the calc command.
type CalcRow struct {
	Line     int
	Vehicle  string
	Readings mileage.Readings
}

func calcCommand() *cobra.Command {
	var inputPath, outputPath string
	cmd := &cobra.Command{
		Use:     "calc",
		Short:   "derive distance, efficiency and cost from a CSV of fill-ups",
		Long:    `calc reads a CSV with the columns vehicle,start,end,fuel,price (price may be empty), applies the same rules as the trip screen and writes one result row per input row.`,
		Example: `mileage calc --input fillups.csv --output result.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputFile, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer inputFile.Close()

			csvContent, err := csv.NewReader(inputFile).ReadAll()
			if err != nil {
				return err
			}
			rows, err := ParseCalcCSV(csvContent)
			if err != nil {
				return fmt.Errorf("failed to parse CSV: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("no rows found in the CSV")
			}

			var out io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				outputFile, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer func() {
					if err := outputFile.Close(); err != nil {
						logrus.Errorf("Failed to close output file: %v", err)
					}
				}()
				out = outputFile
			}
			return WriteCalcCSV(out, rows)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "csv input file path (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "csv output file path, stdout when empty")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		logrus.Fatal(err)
	}
	return cmd
}

// ParseCalcCSV parses the rows below the header. Blank cells stay nil so the
// validation messages match the interactive form.
func ParseCalcCSV(csvContent [][]string) ([]CalcRow, error) {
	if len(csvContent) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}

	var rows []CalcRow
	for i, record := range csvContent[1:] {
		line := i + 2 // header is line 1
		if len(record) != 4 && len(record) != 5 {
			return nil, fmt.Errorf("row %d: expected 4 or 5 columns, but got %d", line, len(record))
		}
		values := make([]*float64, 4)
		for j, cell := range record[1:] {
			v, err := mileage.ParseOptionalFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			values[j] = v
		}
		rows = append(rows, CalcRow{
			Line:    line,
			Vehicle: strings.TrimSpace(record[0]),
			Readings: mileage.Readings{
				StartMileage: values[0],
				EndMileage:   values[1],
				FuelFilled:   values[2],
				ManualPrice:  values[3],
			},
		})
	}
	return rows, nil
}

// WriteCalcCSV writes one result line per row. Rows that fail validation
// carry the message in the error column and no metrics.
func WriteCalcCSV(w io.Writer, rows []CalcRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(calcHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(calcRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func calcRecord(row CalcRow) []string {
	record := []string{row.Vehicle, formatOptional(row.Readings.StartMileage), formatOptional(row.Readings.EndMileage), formatOptional(row.Readings.FuelFilled), "", "", "", ""}

	var vehicle *dbt.Vehicle
	if row.Vehicle != "" {
		vehicle = &dbt.Vehicle{Name: row.Vehicle}
	}
	start, end, fuel, err := mileage.ValidateCalculate(vehicle, row.Readings)
	if err != nil {
		record[7] = err.Error()
		return record
	}
	m := mileage.Derive(start, end, fuel, mileage.ResolvePrice(row.Readings.ManualPrice, nil))
	record[4] = formatFloat(m.Distance)
	record[5] = formatFloat(m.Efficiency)
	record[6] = formatOptional(m.Cost)
	return record
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
