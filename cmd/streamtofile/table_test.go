package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Entry", "Modified", "Bytes"}, [][]string{{"abc.mp3"}}, []columnAlignment{alignLeft, alignLeft, alignRight})
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines (border, header, rule, row, border), got %d:\n%s", len(lines), out)
	}
	if strings.Count(lines[3], "│") != 4 {
		t.Fatalf("expected padded row with 3 cells, got %q", lines[3])
	}
}

func TestRenderTableWrapsLongCells(t *testing.T) {
	long := "/opt/" + strings.Repeat("x", 2*maxCellWidth)
	out := renderTable([]string{"Command"}, [][]string{{long}}, nil)
	for _, line := range strings.Split(out, "\n") {
		if n := len([]rune(line)); n > maxCellWidth+4 {
			t.Fatalf("line exceeds wrapped width (%d runes): %q", n, line)
		}
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
