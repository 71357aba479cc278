// Package export writes stored explanations to CSV or XLSX for
// offline analysis.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/puzzlebench/arc-explainer/internal/model"
)

var header = []string{
	"id",
	"puzzle_id",
	"provider",
	"model_name",
	"correct",
	"multi_test_incomplete",
	"confidence",
	"trustworthiness",
	"extraction_method",
	"input_tokens",
	"output_tokens",
	"estimated_cost_usd",
	"created_at",
}

// WriteCSV writes explanations as CSV with a header row.
func WriteCSV(w io.Writer, exps []model.Explanation) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, exp := range exps {
		if err := cw.Write(record(exp)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", exp.ID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes explanations as a single-sheet XLSX workbook.
func WriteXLSX(path string, exps []model.Explanation) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("explanations")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, header)
	for _, exp := range exps {
		addRow(sheet, record(exp))
	}

	return eris.Wrap(f.Save(path), "export: save xlsx")
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func record(exp model.Explanation) []string {
	correct := ""
	switch {
	case exp.IsPredictionCorrect != nil:
		correct = strconv.FormatBool(*exp.IsPredictionCorrect)
	case exp.MultiTestAllCorrect != nil:
		correct = strconv.FormatBool(*exp.MultiTestAllCorrect)
	}

	confidence := ""
	if exp.Confidence != nil {
		confidence = strconv.Itoa(*exp.Confidence)
	}
	trust := ""
	if exp.Trustworthiness != nil {
		trust = strconv.FormatFloat(*exp.Trustworthiness, 'f', -1, 64)
	}

	return []string{
		exp.ID,
		exp.PuzzleID,
		exp.Provider,
		exp.ModelName,
		correct,
		strconv.FormatBool(exp.MultiTestIncomplete),
		confidence,
		trust,
		exp.ExtractionMethod,
		strconv.FormatInt(exp.InputTokens, 10),
		strconv.FormatInt(exp.OutputTokens, 10),
		strconv.FormatFloat(exp.EstimatedCostUSD, 'f', -1, 64),
		exp.CreatedAt.UTC().Format(time.RFC3339),
	}
}
