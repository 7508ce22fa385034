// Package plot renders response surfaces as heat map images.
package plot

import (
	"io"
	"math"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/surface"
)

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

const paletteSize = 24

// gridXYZ adapts a surface grid to plotter.GridXYZ. Columns follow X and rows
// follow Y.
type gridXYZ struct {
	g *surface.Grid
}

func (g gridXYZ) Dims() (c, r int) { n := g.g.Resolution(); return n, n }
func (g gridXYZ) Z(c, r int) float64 { return g.g.Z[r][c] }
func (g gridXYZ) X(c int) float64 { return g.g.X[0][c] }
func (g gridXYZ) Y(r int) float64 { return g.g.Y[r][0] }
func (g gridXYZ) zRange() (lo, hi float64) { return zRange(g.g.Z) }

func zRange(z [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range z {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// Heatmap builds a plot of grid with its variables as axis labels.
func Heatmap(grid *surface.Grid) (*gplot.Plot, error) {
	if grid == nil || grid.Resolution() < 2 {
		return nil, errors.NewValueError("plot.Heatmap", "grid needs at least 2x2 cells")
	}
	data := gridXYZ{g: grid}
	hm := plotter.NewHeatMap(data, palette.Heat(paletteSize, 1))
	lo, hi := data.zRange()
	if !errors.IsFinite(lo) || !errors.IsFinite(hi) {
		return nil, errors.NewNumericalInstabilityError("plot.Heatmap", []float64{lo, hi})
	}
	// a flat surface still needs a non-empty color scale
	if hi == lo {
		hi = lo + 1
	}
	hm.Min, hm.Max = lo, hi

	p := gplot.New()
	p.Title.Text = string(grid.Metric) + " by " + grid.VarX + " and " + grid.VarY
	p.X.Label.Text = grid.VarX
	p.Y.Label.Text = grid.VarY
	p.Add(hm)
	return p, nil
}

// WritePNG renders grid as a PNG image to w.
func WritePNG(w io.Writer, grid *surface.Grid, width, height vg.Length) error {
	p, err := Heatmap(grid)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "render heat map")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write heat map")
}

// SavePNG renders grid to a PNG file at path.
func SavePNG(path string, grid *surface.Grid) error {
	p, err := Heatmap(grid)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Save(DefaultWidth, DefaultHeight, path), "save heat map %s", path)
}
