package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/projectmap/internal/clock"
	"github.com/stwalsh4118/projectmap/internal/config"
	"github.com/stwalsh4118/projectmap/internal/filter"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/views"
)

var (
	searchLocation string
	searchTypes    string
	searchStatuses string
	searchAll      bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search projects once and print them",
	Long: `Runs one query against the server and prints the projects that can
be placed on the map, nearest first, followed by summary statistics.

Filters default to PROJECTMAP_DEFAULT_* values. Keywords shorter than three
characters are ignored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "location id (default from PROJECTMAP_DEFAULT_LOCATION)")
	searchCmd.Flags().StringVarP(&searchTypes, "types", "t", "", "comma-separated property type ids")
	searchCmd.Flags().StringVarP(&searchStatuses, "status", "s", "", "comma-separated building status ids")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "ignore default filters")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Env)

	defaults := configDefaults(cfg)
	if searchAll {
		defaults = filter.Defaults{}
	}
	if cmd.Flags().Changed("location") {
		defaults.LocationID = searchLocation
	}
	if cmd.Flags().Changed("types") {
		defaults.PropertyTypeIDs = strings.Split(searchTypes, ",")
	}
	if cmd.Flags().Changed("status") {
		defaults.BuildingStatusIDs = strings.Split(searchStatuses, ",")
	}

	p := newPipeline(cfg, defaults, clock.Real(), log)
	if len(args) == 1 {
		p.store.SetKeyword(args[0])
	}

	ctx := cmd.Context()
	if locations, err := p.client.Locations(ctx); err == nil {
		for _, o := range locations {
			if o.Key() != defaults.LocationID {
				continue
			}
			if center, ok := o.Center(); ok {
				p.session.Engine.SetViewCenter(center)
			}
		}
	} else {
		log.Warn("Locations unavailable, distances use the default center", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := p.session.Engine.RefreshSync(ctx); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, p)
	}
	return outputSearchTable(cmd, p)
}

// searchOutput is the JSON shape of a search.
type searchOutput struct {
	Returned int                `json:"returned"`
	OnMap    int                `json:"on_map"`
	Projects []projectOutput    `json:"projects"`
	Skipped  []skippedOutput    `json:"skipped"`
	Mean     string             `json:"mean_distance"`
	ByType   []views.GroupCount `json:"by_type"`
	ByStatus []views.GroupCount `json:"by_status"`
	Bands    bandsOutput        `json:"distance_bands"`
}

type projectOutput struct {
	ID           string  `json:"project_id"`
	Name         string  `json:"name"`
	PropertyType string  `json:"property_type"`
	DistanceKm   float64 `json:"distance_km"`
}

type skippedOutput struct {
	ID     string `json:"project_id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type bandsOutput struct {
	Within1km int `json:"within_1km"`
	Within2km int `json:"within_2km"`
	Within5km int `json:"within_5km"`
	Beyond5km int `json:"beyond_5km"`
}

func outputSearchJSON(cmd *cobra.Command, p *pipeline) error {
	snap := p.session.Engine.Snapshot()
	sum := p.session.Summary.Summary()

	out := searchOutput{
		Returned: len(snap.Records),
		OnMap:    sum.Total,
		Projects: []projectOutput{},
		Skipped:  []skippedOutput{},
		Mean:     sum.MeanDistance,
		ByType:   sum.ByType,
		ByStatus: sum.ByStatus,
		Bands:    bandsOutput(sum.Bands),
	}
	for _, e := range p.session.Sidebar.Entries() {
		out.Projects = append(out.Projects, projectOutput{
			ID:           e.ProjectID,
			Name:         e.Name,
			PropertyType: e.PropertyType,
			DistanceKm:   e.DistanceKm,
		})
	}
	for _, sk := range p.session.List.Skipped() {
		out.Skipped = append(out.Skipped, skippedOutput{ID: sk.ProjectID, Name: sk.Name, Reason: sk.Diagnostic})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, p *pipeline) error {
	entries := p.session.Sidebar.Entries()
	skipped := p.session.List.Skipped()
	if len(entries) == 0 && len(skipped) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Projects:")
	for i, e := range entries {
		cmd.Printf("  [%d] %s (%s) %s\n", i+1, e.Name, e.PropertyType, e.Distance)
	}
	for _, sk := range skipped {
		cmd.Printf("  [-] %s: %s\n", sk.Name, sk.Diagnostic)
	}

	sum := p.session.Summary.Summary()
	cmd.Println()
	cmd.Printf("Total: %d  Average distance: %s\n", sum.Total, sum.MeanDistance)
	cmd.Printf("Within 1km: %d  2km: %d  5km: %d  Beyond 5km: %d\n",
		sum.Bands.Within1km, sum.Bands.Within2km, sum.Bands.Within5km, sum.Bands.Beyond5km)
	for _, g := range sum.ByType {
		cmd.Printf("  %s: %d\n", g.Name, g.Count)
	}
	return nil
}
