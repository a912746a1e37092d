package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/gauss/internal/adapters/definitions"
	"github.com/jobrunner/gauss/internal/application"
	"github.com/jobrunner/gauss/internal/domain"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform points read from stdin",
	Long: `Transform reads one point per line from stdin and prints the transformed
point on stdout. Geographic input is "lat lon" in decimal degrees or
degrees, minutes and seconds; use --lonlat for "lon lat". Lines that
cannot be transformed are reported on stderr.`,
	Example: `  echo "52.5 13.4" | gauss transform --to 25833
  gauss transform --from 31467 --to 4326 < points.txt`,
	Args: cobra.NoArgs,
	RunE: runTransform,
}

var reprojectCmd = &cobra.Command{
	Use:   "reproject [file]",
	Short: "Reproject a GeoJSON feature collection",
	Long: `Reproject reads a GeoJSON feature collection from a file or stdin and
writes the reprojected collection to stdout or the --output file. Without
--from the source system is taken from the collection's "crs" member and
defaults to EPSG:4326.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReproject,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reproject GeoJSON files dropped into an inbox directory",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var srsCmd = &cobra.Command{
	Use:   "srs <file.gpkg>",
	Short: "List the spatial reference systems of a GeoPackage",
	Args:  cobra.ExactArgs(1),
	RunE:  runSRS,
}

var distanceCmd = &cobra.Command{
	Use:   "distance <x1> <y1> <x2> <y2>",
	Short: "Print the geodesic distance between two points",
	Long: `Distance prints the geodesic distance in metres on the WGS84 ellipsoid
and the forward azimuth at the first point. Coordinates are given in the
axis order of the --crs system.`,
	Example: `  gauss distance 13.4 52.5 2.35 48.85
  gauss distance --crs 25833 391000 5820000 392000 5821000`,
	Args: cobra.ExactArgs(4),
	RunE: runDistance,
}

var crsCmd = &cobra.Command{
	Use:   "crs",
	Short: "Inspect the CRS catalog",
}

var crsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all known coordinate reference systems",
	Args:  cobra.NoArgs,
	RunE:  runCRSList,
}

var crsShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Print the definition of a coordinate reference system",
	Args:  cobra.ExactArgs(1),
	RunE:  runCRSShow,
}

var crsPathCmd = &cobra.Command{
	Use:   "path <from> <to>",
	Short: "Describe the transformation between two systems",
	Args:  cobra.ExactArgs(2),
	RunE:  runCRSPath,
}

func init() {
	transformCmd.Flags().Int("from", domain.SRIDWGS84, "source CRS code")
	transformCmd.Flags().Int("to", 0, "target CRS code")
	transformCmd.Flags().Bool("lonlat", false, `geographic input is "lon lat"`)
	transformCmd.Flags().Int("precision", 6, "output decimals, -1 for shortest exact form")
	_ = transformCmd.MarkFlagRequired("to")

	reprojectCmd.Flags().Int("from", 0, "source CRS code (default: from the file, else 4326)")
	reprojectCmd.Flags().Int("to", 0, "target CRS code")
	reprojectCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	_ = reprojectCmd.MarkFlagRequired("to")

	watchCmd.Flags().Int("from", domain.SRIDWGS84, "source CRS code")
	watchCmd.Flags().Int("to", 0, "target CRS code")
	watchCmd.Flags().String("inbox", "./inbox", "directory to watch")
	watchCmd.Flags().String("outbox", "./outbox", "directory for reprojected files")
	watchCmd.Flags().Int("workers", 4, "features reprojected in parallel")
	_ = watchCmd.MarkFlagRequired("to")

	_ = viper.BindPFlag("batch.inbox", watchCmd.Flags().Lookup("inbox"))
	_ = viper.BindPFlag("batch.outbox", watchCmd.Flags().Lookup("outbox"))
	_ = viper.BindPFlag("batch.workers", watchCmd.Flags().Lookup("workers"))

	distanceCmd.Flags().Int("crs", domain.SRIDWGS84, "CRS code of both points")

	crsCmd.AddCommand(crsListCmd, crsShowCmd, crsPathCmd)
}

func runTransform(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	lonLat, _ := cmd.Flags().GetBool("lonlat")
	precision, _ := cmd.Flags().GetInt("precision")

	opts := application.ConsoleOptions{
		Source:    from,
		Target:    to,
		LonLat:    lonLat,
		Precision: precision,
	}
	stats, err := a.Console.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
	if err != nil {
		_ = shutdown(a)
		return err
	}
	a.Logger.Debug("transform finished", "points", stats.Points, "failed", stats.Failed)
	return shutdown(a)
}

func runReproject(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a) }()

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	output, _ := cmd.Flags().GetString("output")

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	report, err := a.Reproject.Reproject(ctx, r, w, from, to)
	if err != nil {
		return err
	}
	a.Logger.Info("reprojected",
		"features", report.Features-report.Failed,
		"failed", report.Failed,
		"extent", report.Extent.String(),
	)
	for _, fe := range report.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), fe.Error())
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d features not reprojected", report.Failed, report.Features)
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := a.Start(ctx); err != nil {
		return err
	}
	if err := a.Watch(ctx, from, to); err != nil {
		_ = shutdown(a)
		return err
	}

	a.Logger.Info("watching inbox",
		"version", version,
		"inbox", a.Config.Batch.Inbox,
		"outbox", a.Config.Batch.Outbox,
		"from", from,
		"to", to,
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		a.Logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
	}
	cancel()

	if err := shutdown(a); err != nil {
		a.Logger.Error("shutdown error", "error", err)
		return err
	}
	a.Logger.Info("watch stopped")
	return nil
}

func runDistance(cmd *cobra.Command, args []string) error {
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCoordinate, arg)
		}
		values[i] = v
	}
	code, _ := cmd.Flags().GetInt("crs")

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a) }()

	dist, azimuth, err := a.Transformer.Distance(ctx,
		domain.NewCoordinate(values[0], values[1], code),
		domain.NewCoordinate(values[2], values[3], code),
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.3f m\t%.6f°\n", dist, azimuth)
	return nil
}

func runSRS(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a) }()

	statuses, err := a.SpatialRefs.Inspect(ctx, args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SRS_ID\tORGANIZATION\tCODE\tNAME\tSUPPORTED")
	for _, st := range statuses {
		supported := "yes"
		if !st.Supported {
			supported = "no: " + st.Reason
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", st.ID, st.Organization, st.OrganizationID, st.Name, supported)
	}
	return tw.Flush()
}

func runCRSList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a) }()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tKIND\tDIM\tNAME\tORIGIN")
	for _, e := range a.Catalog.List() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", e.Code, e.Kind, e.Dimension, e.Name, e.Origin)
	}
	return tw.Flush()
}

func runCRSShow(cmd *cobra.Command, args []string) error {
	code, err := parseCode(args[0])
	if err != nil {
		return err
	}
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a) }()

	entry, err := a.Catalog.Entry(code)
	if err != nil {
		return err
	}
	def, err := a.Catalog.Definition(code)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "# %s (%s)\n", entry.Name, entry.Origin)
	return definitions.Encode(cmd.OutOrStdout(), []domain.CRSDefinition{def})
}

func runCRSPath(cmd *cobra.Command, args []string) error {
	source, err := parseCode(args[0])
	if err != nil {
		return err
	}
	target, err := parseCode(args[1])
	if err != nil {
		return err
	}
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a) }()

	ct, err := a.Transformer.Transformation(source, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Operation: %s\n", ct)
	fmt.Fprintf(out, "Type:      %s\n", ct.Type())
	if acc, ok := ct.Accuracy(); ok {
		fmt.Fprintf(out, "Accuracy:  %g m\n", acc)
	} else {
		fmt.Fprintln(out, "Accuracy:  unknown")
	}
	fmt.Fprintf(out, "Steps:     %s\n", ct.MathTransform())
	return nil
}

func parseCode(s string) (int, error) {
	code, err := strconv.Atoi(s)
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidSRID, s)
	}
	return code, nil
}
