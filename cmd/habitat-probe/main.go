// Command habitat-probe inspects the habitat index dataset from the shell.
//
// Usage:
//
//	habitat-probe [flags] <lat> <lon>
//	habitat-probe [flags] -lat -6.1 -lon 12.3
//	habitat-probe [flags] -- -6.1 12.3
//	habitat-probe -stats
//	habitat-probe -series lat_mean
//	habitat-probe -png map.png
//
// The dataset is found the same way the API finds it: -file, then
// MAZI_DATA_PATH, then habitat_index_H.nc in the usual search directories.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"mazishark/habitat-api/internal/config"
	"mazishark/habitat-api/internal/dataset"
	"mazishark/habitat-api/internal/grid"
	"mazishark/habitat-api/internal/httpapi"
	"mazishark/habitat-api/internal/render"
)

type jsonPoint struct {
	Lat float64  `json:"lat"`
	Lon float64  `json:"lon"`
	I   int      `json:"i"`
	J   int      `json:"j"`
	H   *float64 `json:"H"`
}

type jsonStats struct {
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Mean  *float64 `json:"mean"`
	Count int      `json:"count"`
}

type jsonSeries struct {
	Type   grid.Aggregation `json:"type"`
	Axis   []float64        `json:"axis,omitempty"`
	H      []*float64       `json:"H,omitempty"`
	Bins   []float64        `json:"bins,omitempty"`
	Counts []int            `json:"counts,omitempty"`
}

// jsonOutput is the top-level JSON document; NaN values are written as null.
type jsonOutput struct {
	Path   string      `json:"path"`
	Point  *jsonPoint  `json:"point,omitempty"`
	Stats  *jsonStats  `json:"stats,omitempty"`
	Series *jsonSeries `json:"series,omitempty"`
	PNG    string      `json:"png,omitempty"`
}

// args holds the parsed command line.
type args struct {
	file      string
	asJSON    bool
	showStats bool
	seriesAgg string
	pngOut    string
	logLevel  string
	havePoint bool
	lat, lon  float64
}

var errUsage = errors.New("nothing to do")

// parseArgs reads flags and the optional point. The point is given either
// with -lat/-lon or positionally; a negative positional latitude needs a
// leading "--" so it is not taken for a flag.
func parseArgs(argv []string, output io.Writer) (args, error) {
	var a args
	var latFlag, lonFlag string
	fs := flag.NewFlagSet("habitat-probe", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&a.file, "file", "", "Path to the NetCDF dataset (default: search like the API)")
	fs.BoolVar(&a.asJSON, "json", false, "Output results as JSON")
	fs.BoolVar(&a.showStats, "stats", false, "Print min/max/mean of H")
	fs.StringVar(&a.seriesAgg, "series", "", "Print a series: global, lat_mean or lon_mean")
	fs.StringVar(&a.pngOut, "png", "", "Write the heatmap to this PNG file")
	fs.StringVar(&a.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")
	fs.StringVar(&latFlag, "lat", "", "Latitude of the point to sample (accepts negative values)")
	fs.StringVar(&lonFlag, "lon", "", "Longitude of the point to sample (accepts negative values)")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(argv); err != nil {
		return a, err
	}

	switch {
	case latFlag != "" || lonFlag != "":
		if fs.NArg() != 0 {
			return a, fmt.Errorf("give the point either with -lat/-lon or positionally, not both")
		}
		if latFlag == "" || lonFlag == "" {
			return a, fmt.Errorf("-lat and -lon must be given together")
		}
	case fs.NArg() == 2:
		latFlag, lonFlag = fs.Arg(0), fs.Arg(1)
	case fs.NArg() != 0:
		return a, fmt.Errorf("lat and lon must be given together")
	}

	if latFlag != "" {
		var err error
		if a.lat, err = parseCoord("lat", latFlag); err != nil {
			return a, err
		}
		if a.lon, err = parseCoord("lon", lonFlag); err != nil {
			return a, err
		}
		a.havePoint = true
	}
	if !a.havePoint && !a.showStats && a.seriesAgg == "" && a.pngOut == "" {
		return a, errUsage
	}
	return a, nil
}

func main() {
	a, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		fmt.Fprintln(os.Stderr, "Run habitat-probe -h for usage.")
		os.Exit(2)
	}

	log := httpapi.NewConsoleLogger(a.logLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if a.file != "" {
		cfg.Data.Path = a.file
	}

	store := dataset.NewStore(&dataset.Locator{
		Override: cfg.Data.Path,
		Filename: cfg.Data.Filename,
		Dirs:     dataset.DefaultSearchDirs(cfg.Data.SearchDirs...),
	}, nil)

	path, ok := store.Locate()
	if !ok {
		log.Fatal().Str("expected_file", cfg.Data.Filename).Msg("dataset not found")
	}
	log.Debug().Str("data_path", path).Msg("dataset located")

	g, err := store.Load(context.Background(), path)
	if err != nil {
		log.Fatal().Err(err).Msg("load dataset")
	}

	out := jsonOutput{Path: path}
	if a.havePoint {
		p := g.Nearest(a.lat, a.lon)
		out.Point = &jsonPoint{Lat: a.lat, Lon: a.lon, I: p.I, J: p.J, H: finite(p.H)}
	}
	if a.showStats {
		s := g.Stats()
		out.Stats = &jsonStats{Min: finite(s.Min), Max: finite(s.Max), Mean: finite(s.Mean), Count: s.Count}
	}
	if a.seriesAgg != "" {
		out.Series = seriesOf(g.Series(grid.ParseAggregation(a.seriesAgg)))
	}
	if a.pngOut != "" {
		opts := render.DefaultOptions()
		opts.Width, opts.Height = cfg.Render.Width, cfg.Render.Height
		if err := writePNG(a.pngOut, g, opts); err != nil {
			log.Fatal().Err(err).Str("file", a.pngOut).Msg("write png")
		}
		out.PNG = a.pngOut
	}

	if a.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatal().Err(err).Msg("json encode")
		}
		return
	}
	printText(out)
}

func parseCoord(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q must be a finite number", name, s)
	}
	return v, nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func seriesOf(s grid.Series) *jsonSeries {
	out := &jsonSeries{Type: s.Type}
	if s.Type == grid.AggGlobal {
		out.Bins, out.Counts = s.Histogram.Edges, s.Histogram.Counts
		return out
	}
	out.Axis = s.Axis
	out.H = make([]*float64, len(s.Means))
	for i, m := range s.Means {
		out.H[i] = finite(m)
	}
	return out
}

func writePNG(name string, g *grid.Grid, opts render.Options) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := render.PNG(f, g, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printText(out jsonOutput) {
	fmt.Printf("Dataset: %s\n", out.Path)
	if p := out.Point; p != nil {
		fmt.Printf("\nNearest cell to (%.4f, %.4f): i=%d j=%d H=%s\n", p.Lat, p.Lon, p.I, p.J, fmtValue(p.H))
	}
	if s := out.Stats; s != nil {
		fmt.Printf("\nStatistics (%d finite cells)\n", s.Count)
		fmt.Printf("  min   %s\n", fmtValue(s.Min))
		fmt.Printf("  max   %s\n", fmtValue(s.Max))
		fmt.Printf("  mean  %s\n", fmtValue(s.Mean))
	}
	if s := out.Series; s != nil {
		fmt.Printf("\nSeries %s\n", s.Type)
		if s.Type == grid.AggGlobal {
			for k := range s.Counts {
				fmt.Printf("  [%.1f, %.1f%s %d\n", s.Bins[k], s.Bins[k]+0.1, closing(k, len(s.Counts)), s.Counts[k])
			}
		} else {
			for k := range s.H {
				fmt.Printf("  %10.4f  %s\n", s.Axis[k], fmtValue(s.H[k]))
			}
		}
	}
	if out.PNG != "" {
		fmt.Printf("\nWrote %s\n", out.PNG)
	}
}

func closing(k, n int) string {
	if k == n-1 {
		return "]"
	}
	return ")"
}

func fmtValue(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, `habitat-probe: inspect the habitat index dataset

Usage:
  habitat-probe [flags] <lat> <lon>
  habitat-probe [flags] -lat <lat> -lon <lon>
  habitat-probe [flags] -- <lat> <lon>
  habitat-probe -stats
  habitat-probe -series global|lat_mean|lon_mean
  habitat-probe -png map.png

A negative positional latitude looks like a flag: put "--" before it or
use -lat/-lon.

Flags:`)
	fs.PrintDefaults()
	fmt.Fprintln(w, `
Examples:
  habitat-probe 20 100
  habitat-probe -json -stats 20 100
  habitat-probe -lat -6.1 -lon 12.3
  habitat-probe -json -- -6.1 12.3
  habitat-probe -file ./data/habitat_index_H.nc -series lat_mean`)
}
