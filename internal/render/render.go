package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/ethanbaker/countries/pkg/country"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	Width  = 800
	Height = 600

	// TopN is the number of countries listed on the summary
	TopN = 5
)

var (
	backgroundTop    = color.RGBA{0x1a, 0x1a, 0x2e, 0xff}
	backgroundBottom = color.RGBA{0x16, 0x21, 0x3e, 0xff}
)

// Renderer draws the summary image
type Renderer struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// NewRenderer parses the embedded Go fonts
func NewRenderer() (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}

	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	return &Renderer{regular: regular, bold: bold}, nil
}

// Render draws the status and the top countries by estimated GDP as a PNG
func (r *Renderer) Render(status *country.Status, top []*country.Record) ([]byte, error) {
	dc := gg.NewContext(Width, Height)

	// Background gradient
	gradient := gg.NewLinearGradient(0, 0, 0, Height)
	gradient.AddColorStop(0, backgroundTop)
	gradient.AddColorStop(1, backgroundBottom)
	dc.SetFillStyle(gradient)
	dc.DrawRectangle(0, 0, Width, Height)
	dc.Fill()

	// Title
	dc.SetFontFace(r.face(r.bold, 40))
	dc.SetHexColor("#eeeeee")
	dc.DrawStringAnchored("Country Data Summary", Width/2, 60, 0.5, 0)

	// Total countries
	total := int64(0)
	if status != nil {
		total = status.TotalCountries
	}
	dc.SetFontFace(r.face(r.bold, 28))
	dc.SetHexColor("#4ecca3")
	dc.DrawStringAnchored(fmt.Sprintf("Total Countries: %d", total), Width/2, 120, 0.5, 0)

	// Top countries
	dc.SetFontFace(r.face(r.bold, 24))
	dc.SetHexColor("#eeeeee")
	dc.DrawString(fmt.Sprintf("Top %d by Estimated GDP", TopN), 50, 180)

	dc.SetFontFace(r.face(r.regular, 20))
	for i, record := range top {
		if i == TopN {
			break
		}
		if record.EstimatedGDP == nil {
			continue
		}

		y := float64(220 + i*50)
		dc.SetHexColor("#93bfec")
		dc.DrawString(fmt.Sprintf("%d. %s", i+1, record.Name), 70, y)
		dc.SetHexColor("#4ecca3")
		dc.DrawString("$"+FormatAmount(*record.EstimatedGDP), 400, y)
	}

	// Timestamp
	dc.SetFontFace(r.face(r.regular, 18))
	dc.SetHexColor("#888888")
	dc.DrawStringAnchored("Last Refreshed: "+formatRefreshed(status), Width/2, Height-30, 0.5, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode summary image: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatAmount groups thousands and keeps at most two decimals
func FormatAmount(value float64) string {
	return amountPrinter.Sprint(number.Decimal(value, number.MaxFractionDigits(2)))
}

func formatRefreshed(status *country.Status) string {
	if status == nil || status.LastRefreshedAt == nil {
		return "Never"
	}
	return status.LastRefreshedAt.UTC().Format(time.RFC3339)
}
