package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medivisit/hospitalfinder/internal/application/services"
	"github.com/medivisit/hospitalfinder/internal/domain/codes"
	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/clients/gateway"
	"github.com/medivisit/hospitalfinder/internal/mapview"
)

type nearbyOptions struct {
	lng      float64
	lat      float64
	radius   float64
	language string
	asJSON   bool
}

func newNearbyCmd(root *options) *cobra.Command {
	opts := &nearbyOptions{}

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List hospitals around a point with their departments",
		Example: "  hospitalctl nearby --lng 126.8301 --lat 37.3121 --radius 1000\n" +
			"  hospitalctl nearby --lng 126.8301 --lat 37.3121 --lang en --json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNearby(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.lng, "lng", 0, "Longitude (xPos), required")
	f.Float64Var(&opts.lat, "lat", 0, "Latitude (yPos), required")
	f.Float64Var(&opts.radius, "radius", 1000, "Search radius in meters")
	f.StringVar(&opts.language, "lang", codes.LangKorean, "Label language: ko or en")
	f.BoolVar(&opts.asJSON, "json", false, "Print the enriched hospitals as JSON")
	_ = cmd.MarkFlagRequired("lng")
	_ = cmd.MarkFlagRequired("lat")

	return cmd
}

func runNearby(ctx context.Context, out io.Writer, root *options, opts *nearbyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := setupLogger(root.logFormat)
	log.Logger = logger

	client := gateway.NewClient(root.gatewayURL, root.timeout)
	aggregator := services.NewEnrichmentService(client, root.maxConcurrency)

	start := time.Now()
	hospitals, err := aggregator.FetchEnrichedHospitals(ctx, opts.lng, opts.lat, opts.radius)
	if err != nil {
		return fmt.Errorf("fetching hospitals: %w", err)
	}
	logger.Debug().Int("hospitals", len(hospitals)).Dur("elapsed", time.Since(start)).Msg("nearby query complete")

	if opts.asJSON {
		return writeJSON(out, hospitals)
	}
	return writeTable(out, hospitals, opts.language)
}

func writeJSON(out io.Writer, hospitals []entities.EnrichedHospital) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{"hospitals": hospitals})
}

func writeTable(out io.Writer, hospitals []entities.EnrichedHospital, language string) error {
	if len(hospitals) == 0 {
		_, err := fmt.Fprintln(out, "no hospitals found")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDISTANCE\tPHONE\tDEPARTMENTS")
	for _, h := range hospitals {
		o := mapview.BuildOverlay(h, language)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.Name,
			dash(o.FacilityType),
			dash(o.Distance),
			dash(o.Phone),
			dash(strings.Join(o.Departments, ", ")),
		)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
