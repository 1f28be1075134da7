package api

import (
	"fmt"
	"io"
	"time"

	"agencyops/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	chartWidth      = 640
	chartHeight     = 360
	chartPadding    = 40.0
	chartTitleSpace = 40.0
	chartLegendRoom = 30.0
)

var (
	revenueColor = [3]float64{0.30, 0.75, 0.45}
	costsColor   = [3]float64{0.90, 0.35, 0.35}
)

// RenderPnLChart draws revenue and costs per department as grouped bars and writes a PNG to w
func RenderPnLChart(w io.Writer, report *models.PnLReport) error {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("period", report.Period.String()).
			Debug("P&L chart rendered")
	}()

	face, err := loadFont(goregular.TTF, 12)
	if err != nil {
		return err
	}
	titleFace, err := loadFont(gobold.TTF, 16)
	if err != nil {
		return err
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(0.12, 0.12, 0.16)
	dc.Clear()

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("P&L %s", report.Period.String()), chartWidth/2, chartPadding/2+4, 0.5, 0.5)

	dc.SetFontFace(face)

	plotTop := chartTitleSpace
	plotBottom := float64(chartHeight) - chartPadding - chartLegendRoom
	plotLeft := chartPadding
	plotRight := float64(chartWidth) - chartPadding
	plotHeight := plotBottom - plotTop

	var maxValue models.Cents
	for _, line := range report.Departments {
		if line.Revenue > maxValue {
			maxValue = line.Revenue
		}
		if line.Costs > maxValue {
			maxValue = line.Costs
		}
	}

	// Axis
	dc.SetRGBA(0.7, 0.7, 0.8, 0.8)
	dc.SetLineWidth(1)
	dc.DrawLine(plotLeft, plotBottom, plotRight, plotBottom)
	dc.Stroke()

	if len(report.Departments) > 0 {
		groupWidth := (plotRight - plotLeft) / float64(len(report.Departments))
		barWidth := groupWidth * 0.35

		for i, line := range report.Departments {
			groupX := plotLeft + float64(i)*groupWidth
			center := groupX + groupWidth/2

			drawBar(dc, center-barWidth, plotBottom, barWidth, barHeight(line.Revenue, maxValue, plotHeight), revenueColor)
			drawBar(dc, center, plotBottom, barWidth, barHeight(line.Costs, maxValue, plotHeight), costsColor)

			dc.SetRGB(0.9, 0.9, 0.95)
			dc.DrawStringAnchored(line.DepartmentCode, center, plotBottom+14, 0.5, 0.5)

			if line.Net >= 0 {
				dc.SetRGB(0.4, 1.0, 0.4)
			} else {
				dc.SetRGB(1.0, 0.4, 0.4)
			}
			dc.DrawStringAnchored(line.Net.String(), center, plotBottom+28, 0.5, 0.5)
		}
	}

	legendY := float64(chartHeight) - chartPadding/2
	drawLegend(dc, plotLeft, legendY, "Revenue", revenueColor)
	drawLegend(dc, plotLeft+110, legendY, "Costs", costsColor)
	if report.Total != nil {
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(fmt.Sprintf("Net %s", report.Total.Net.String()), plotRight, legendY, 1, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func barHeight(value, maxValue models.Cents, plotHeight float64) float64 {
	if maxValue <= 0 || value <= 0 {
		return 0
	}
	return float64(value) / float64(maxValue) * plotHeight
}

func drawBar(dc *gg.Context, x, bottom, width, height float64, color [3]float64) {
	if height <= 0 {
		return
	}
	dc.SetRGB(color[0], color[1], color[2])
	dc.DrawRectangle(x, bottom-height, width, height)
	dc.Fill()
}

func drawLegend(dc *gg.Context, x, y float64, label string, color [3]float64) {
	dc.SetRGB(color[0], color[1], color[2])
	dc.DrawRectangle(x, y-6, 12, 12)
	dc.Fill()
	dc.SetRGB(0.9, 0.9, 0.95)
	dc.DrawStringAnchored(label, x+18, y, 0, 0.5)
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}
