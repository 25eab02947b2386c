package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/veridoc/qatrack/store"
)

// A4 at 2x the PDF point size keeps text crisp after the full-page import.
const (
	summaryPageW = 1190
	summaryPageH = 1684

	summaryMarginX   = 110.0
	summaryMarginTop = 150.0
	summaryMarginBot = 120.0
	summaryValueX    = 480.0
	summaryRowGap    = 26.0
	summaryLineH     = 38.0
)

type summaryRow struct {
	label string
	value string
}

func summaryRows(p *store.Project, engineer, jcqao string) []summaryRow {
	return []summaryRow{
		{"QA Field Unit", orNA(p.QAFieldUnit)},
		{"OPA Name", orNA(p.OPAName)},
		{"Classification", orNA(p.ProjectClassification)},
		{"Firm Name", orNA(p.FirmName)},
		{"PO Number", orNA(p.PONumber)},
		{"PO Date", formatPODate(p.PODate)},
		{"Main Equipment", orNA(p.MainEquipment)},
		{"Order Value", "INR " + strconv.FormatFloat(p.OrderValue, 'f', -1, 64)},
		{"QA Engineer", orUnassigned(engineer)},
		{"JCQAO", orUnassigned(jcqao)},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orUnassigned(s string) string {
	if s == "" {
		return "Unassigned"
	}
	return s
}

func formatPODate(millis int64) string {
	if millis == 0 {
		return "N/A"
	}
	return time.UnixMilli(millis).UTC().Format("02 Jan 2006")
}

// buildSummary renders the summary section as one or more full A4 pages and
// returns the path of the resulting PDF inside tempDir. Long field values
// wrap and, if the rows outgrow a page, spill onto further pages.
func (c *Compiler) buildSummary(p *store.Project, engineer, jcqao string, tempDir string) (string, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return "", fmt.Errorf("parse regular font: %v", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return "", fmt.Errorf("parse bold font: %v", err)
	}

	r := &summaryRenderer{
		titleFace: truetype.NewFace(bold, &truetype.Options{Size: 46}),
		labelFace: truetype.NewFace(bold, &truetype.Options{Size: 27}),
		valueFace: truetype.NewFace(regular, &truetype.Options{Size: 27}),
		tempDir:   tempDir,
	}
	pages, err := r.render(summaryRows(p, engineer, jcqao))
	if err != nil {
		return "", err
	}

	summaryPDF := filepath.Join(tempDir, "summary.pdf")
	imp, err := api.Import("form:A4, pos:full", types.POINTS)
	if err != nil {
		return "", fmt.Errorf("summary import config: %v", err)
	}
	if err := api.ImportImagesFile(pages, summaryPDF, imp, c.conf); err != nil {
		return "", fmt.Errorf("assemble summary pdf: %v", err)
	}
	return summaryPDF, nil
}

type summaryRenderer struct {
	titleFace font.Face
	labelFace font.Face
	valueFace font.Face

	tempDir string
	pages   []string
	dc      *gg.Context
	y       float64
}

func (r *summaryRenderer) render(rows []summaryRow) ([]string, error) {
	r.newPage()
	r.drawHeader()

	valueWidth := summaryPageW - summaryValueX - summaryMarginX
	for _, row := range rows {
		r.dc.SetFontFace(r.valueFace)
		lines := r.dc.WordWrap(row.value, valueWidth)
		if len(lines) == 0 {
			lines = []string{""}
		}
		need := float64(len(lines))*summaryLineH + summaryRowGap
		if r.y+need > summaryPageH-summaryMarginBot {
			if err := r.flush(); err != nil {
				return nil, err
			}
			r.newPage()
		}

		r.dc.SetFontFace(r.labelFace)
		r.dc.DrawString(row.label, summaryMarginX, r.y)
		r.dc.SetFontFace(r.valueFace)
		for i, line := range lines {
			r.dc.DrawString(line, summaryValueX, r.y+float64(i)*summaryLineH)
		}
		r.y += float64(len(lines))*summaryLineH + summaryRowGap
	}

	if err := r.flush(); err != nil {
		return nil, err
	}
	return r.pages, nil
}

func (r *summaryRenderer) newPage() {
	dc := gg.NewContext(summaryPageW, summaryPageH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	r.dc = dc
	r.y = summaryMarginTop
}

// drawHeader draws the report title block on the first page only.
func (r *summaryRenderer) drawHeader() {
	r.dc.SetFontFace(r.titleFace)
	r.dc.DrawString("Project Closure Report", summaryMarginX, r.y)
	r.y += 40
	r.dc.SetLineWidth(2)
	r.dc.DrawLine(summaryMarginX, r.y, summaryPageW-summaryMarginX, r.y)
	r.dc.Stroke()
	r.y += 90
}

func (r *summaryRenderer) flush() error {
	path := filepath.Join(r.tempDir, fmt.Sprintf("summary_page_%02d.png", len(r.pages)+1))
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("write summary page: %v", err)
	}
	r.pages = append(r.pages, path)
	return nil
}
