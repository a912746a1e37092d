package application

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jobrunner/gauss/internal/crs/cs"
	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// ConsoleOptions controls a console session.
type ConsoleOptions struct {
	Source    int  // Source CRS code
	Target    int  // Target CRS code
	LonLat    bool // Geographic input is "lon lat" instead of "lat lon"
	Precision int  // Output decimals, -1 for the shortest exact form
}

// ConsoleStats counts the lines of a console session.
type ConsoleStats struct {
	Points int // Lines transformed
	Failed int // Lines reported as errors
}

// Console transforms points read line by line, one point per line. Blank
// lines and lines starting with '#' are skipped. A line that cannot be
// parsed or transformed is reported on the error writer and the session
// goes on.
type Console struct {
	catalog *Catalog
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewConsole creates a new console.
func NewConsole(catalog *Catalog, metrics output.MetricsCollector, logger *slog.Logger) *Console {
	return &Console{
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
	}
}

// Run reads points from r until EOF and writes transformed points to w.
func (c *Console) Run(ctx context.Context, r io.Reader, w, errw io.Writer, opts ConsoleOptions) (ConsoleStats, error) {
	var stats ConsoleStats

	ct, err := c.catalog.Transformation(opts.Source, opts.Target)
	if err != nil {
		return stats, err
	}
	swap := swapInput(ct.Source(), opts.LonLat)
	pair := pairLabel(opts.Source, opts.Target)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		out, err := c.transformLine(ct, text, swap)
		c.metrics.IncTransformCount(pair, 1, err == nil)
		if err != nil {
			stats.Failed++
			fmt.Fprintf(errw, "line %d: %v\n", line, err)
			continue
		}
		stats.Points++
		fmt.Fprintln(w, formatPoint(out, opts.Precision))
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading input: %w", err)
	}

	c.logger.Debug("console session finished", "pair", pair, "points", stats.Points, "failed", stats.Failed)
	return stats, nil
}

func (c *Console) transformLine(ct *operation.CoordinateTransformation, text string, swap bool) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	dim := ct.Source().Dimension()
	if len(fields) != dim {
		return nil, fmt.Errorf("expected %d values, got %d", dim, len(fields))
	}

	_, geographic := ct.Source().(*cs.Geographic)
	point := make([]float64, dim)
	for i, f := range fields {
		var (
			v   float64
			err error
		)
		if geographic && i < 2 {
			v, err = units.ParseAngle(f)
		} else {
			v, err = strconv.ParseFloat(f, 64)
		}
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		point[i] = v
	}
	if swap {
		point[0], point[1] = point[1], point[0]
	}
	return ct.Transform(point)
}

// swapInput reports whether the first two input values must be swapped to
// match the axis order of the source system.
func swapInput(source cs.CoordinateSystem, lonLat bool) bool {
	g, ok := source.(*cs.Geographic)
	if !ok {
		return false
	}
	first, _ := g.Axis(0).Direction.Absolute()
	lonFirst := first == cs.East
	return lonFirst != lonLat
}

func formatPoint(p []float64, precision int) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.FormatFloat(v, 'f', precision, 64)
	}
	return strings.Join(parts, " ")
}
