// Package report writes the per-fund output tables.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ConcentrationPanel/internal/model"
	"ConcentrationPanel/internal/pipeline"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer writes report files into Dir. Each file is written to a temporary
// name and renamed into place, so readers never see a partial table.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

type table struct {
	suffix string
	header []string
	rows   [][]string
}

// WriteResult writes the concentration, regression and fund-size tables of
// one fund and returns the paths written.
func (w *Writer) WriteResult(res *pipeline.Result) ([]string, error) {
	if res.Fund == "" || strings.ContainsAny(res.Fund, `/\`) {
		return nil, fmt.Errorf("invalid fund name %q for an output file", res.Fund)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := []table{
		concentrationTable(res.Records),
		regressionTable(res.Regressions),
		fundSizeTable(res.FundSizes),
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(w.Dir, res.Fund+f.suffix)
		if err := writeCSV(path, f.header, f.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	log.Printf("[INFO] %s: wrote %d report files to %s", res.Fund, len(paths), w.Dir)
	return paths, nil
}

func concentrationTable(records []model.ConcentrationRecord) (t table) {
	withSize := false
	for _, r := range records {
		if r.FundSize != nil {
			withSize = true
			break
		}
	}

	t.suffix = "_concentration.csv"
	t.header = []string{"period", model.FactorHHI, model.FactorGini, model.FactorEntropy}
	if withSize {
		t.header = append(t.header, model.RegressorFundSize)
	}
	for _, r := range records {
		row := []string{string(r.Period), formatFloat(r.HHI), formatFloat(r.Gini), formatFloat(r.Entropy)}
		if withSize {
			size := ""
			if r.FundSize != nil {
				size = formatFloat(*r.FundSize)
			}
			row = append(row, size)
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func regressionTable(results []model.RegressionResult) (t table) {
	t.suffix = "_regression.csv"
	t.header = []string{
		"factor_name", "R2",
		"coef_intercept", "coef_factor", "coef_fund_size",
		"p_intercept", "p_factor", "p_fund_size",
	}
	for _, r := range results {
		row := []string{r.Factor, formatFloat(r.RSquared)}
		for _, name := range r.Regressors() {
			row = append(row, formatFloat(r.Coefficients[name]))
		}
		for _, name := range r.Regressors() {
			row = append(row, formatFloat(r.PValues[name]))
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func fundSizeTable(series []model.FundSizePoint) (t table) {
	t.suffix = "_fundsize.csv"
	t.header = []string{"period", model.RegressorFundSize}
	for _, p := range series {
		t.rows = append(t.rows, []string{string(p.Period), formatFloat(p.FundSize)})
	}
	return t
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	bw := bufio.NewWriter(tmp)
	if _, err = bw.Write(utf8BOM); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cw := csv.NewWriter(bw)
	if err = cw.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// formatFloat renders v in the shortest form that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
