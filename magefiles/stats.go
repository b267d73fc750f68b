package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/magefile/mage/mg"
)

// Stats groups code measurement targets.
type Stats mg.Namespace

// packageLOC holds code line counts for one Go package directory.
// Blank lines and comment-only lines are not counted.
type packageLOC struct {
	Package string  `json:"package"`
	Prod    int     `json:"prod"`
	Test    int     `json:"test"`
	Ratio   float64 `json:"test_ratio"`
}

// Table prints code lines per package with the test to production ratio.
func (Stats) Table() error {
	pkgs, total, err := measure()
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Package", "Prod", "Test", "Test/Prod"})
	for _, p := range pkgs {
		t.AppendRow(table.Row{p.Package, p.Prod, p.Test, formatRatio(p)})
	}
	t.AppendFooter(table.Row{total.Package, total.Prod, total.Test, formatRatio(total)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
	return nil
}

// JSON prints one JSON record with per-package counts and the totals.
func (Stats) JSON() error {
	pkgs, total, err := measure()
	if err != nil {
		return err
	}
	line, err := json.Marshal(map[string]any{
		"packages": pkgs,
		"total":    total,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

// measure walks the module and counts code lines per package directory.
// Build tooling, vendored code and reference material are skipped.
func measure() ([]packageLOC, packageLOC, error) {
	byDir := map[string]*packageLOC{}
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			switch path {
			case "vendor", "magefiles", binaryDir:
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countCodeLines(path)
		if err != nil {
			return fmt.Errorf("counting %s: %w", path, err)
		}
		dir := filepath.ToSlash(filepath.Dir(path))
		p, ok := byDir[dir]
		if !ok {
			p = &packageLOC{Package: dir}
			byDir[dir] = p
		}
		if strings.HasSuffix(path, "_test.go") {
			p.Test += n
		} else {
			p.Prod += n
		}
		return nil
	})
	if err != nil {
		return nil, packageLOC{}, err
	}

	total := packageLOC{Package: "total"}
	pkgs := make([]packageLOC, 0, len(byDir))
	for _, p := range byDir {
		p.Ratio = ratio(p.Test, p.Prod)
		total.Prod += p.Prod
		total.Test += p.Test
		pkgs = append(pkgs, *p)
	}
	total.Ratio = ratio(total.Test, total.Prod)
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Package < pkgs[j].Package })
	return pkgs, total, nil
}

// countCodeLines counts lines that are neither blank nor a line comment.
// Block comments are counted as code.
func countCodeLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		count++
	}
	return count, scanner.Err()
}

func ratio(test, prod int) float64 {
	if prod == 0 {
		return 0
	}
	return float64(test) / float64(prod)
}

func formatRatio(p packageLOC) string {
	if p.Prod == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p.Ratio)
}
