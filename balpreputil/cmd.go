/*
Copyright © 2025 the balprep authors.
This file is part of balprep.

balprep is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

balprep is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with balprep.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package balpreputil provides the command-line interface of balprep.
package balpreputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/balprep"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	regionFlags := []*pflag.FlagSet{clusterCmd.Flags(), connectivityCmd.Flags(), gridsCmd.Flags(), xkfxCmd.Flags()}
	connectivityFlags := []*pflag.FlagSet{clusterCmd.Flags(), connectivityCmd.Flags(), gridsCmd.Flags()}

	// Options are the configuration options available to balprep.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug logging.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir is the directory output files are written to. It
              can be a local directory or a blob storage location starting
              with gs://, s3://, or file://.`,
			shorthand:  "o",
			defaultVal: "Output",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "names",
			usage: `
              names is a TOML file with name conversion dictionaries. If it
              is empty, the built-in dictionaries are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{demandCmd.Flags()},
		},
		{
			name: "metric_proj",
			usage: `
              metric_proj is the projection, in meters, that distances and
              boundary tolerances are calculated in.`,
			defaultVal: balprep.MetricProj,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags(), connectivityCmd.Flags(), gridsCmd.Flags(), xkfxCmd.Flags()},
		},
		{
			name: "regions.file",
			usage: `
              regions.file is the shapefile with the region polygons. It
              can be a local path, a URL, or a blob storage location.`,
			defaultVal: "",
			flagsets:   regionFlags,
		},
		{
			name: "regions.choice",
			usage: `
              regions.choice is the kind of region dataset. It is one of
              'DK Municipalities', NUTS1, NUTS2, NUTS3, Nordpool,
              NordpoolReal, or BalmorelVREAreas.`,
			defaultVal: "DK Municipalities",
			flagsets:   regionFlags,
		},
		{
			name: "regions.name_field",
			usage: `
              regions.name_field, if set, is the attribute that region names
              are read from instead of the dataset's default.`,
			defaultVal: "",
			flagsets:   regionFlags,
		},
		{
			name: "regions.countries",
			usage: `
              regions.countries restricts the regions to the given country
              codes.`,
			defaultVal: []string{},
			flagsets:   regionFlags,
		},
		{
			name: "regions.exclude",
			usage: `
              regions.exclude lists regions to leave out.`,
			defaultVal: []string{},
			flagsets:   regionFlags,
		},
		{
			name: "connectivity.method",
			usage: `
              connectivity.method is either 'touches', to connect regions
              whose boundaries are within connectivity.tolerance, or
              'distance', to connect regions whose centroids are within
              connectivity.max_distance.`,
			defaultVal: "touches",
			flagsets:   connectivityFlags,
		},
		{
			name: "connectivity.tolerance",
			usage: `
              connectivity.tolerance is the distance in meters within which
              region boundaries are considered to touch.`,
			defaultVal: 1.0,
			flagsets:   connectivityFlags,
		},
		{
			name: "connectivity.max_distance",
			usage: `
              connectivity.max_distance is the largest distance in meters
              between connected region centroids.`,
			defaultVal: 500000.0,
			flagsets:   connectivityFlags,
		},
		{
			name: "connectivity.links",
			usage: `
              connectivity.links are manual corrections in the form
              'a:b:value'. ':value' may be omitted and defaults to 1; a
              value of 0 removes a connection.`,
			defaultVal: []string{},
			flagsets:   connectivityFlags,
		},
		{
			name: "connectivity.dk_links",
			usage: `
              connectivity.dk_links adds the bridge and sea cable links
              between Danish municipalities.`,
			defaultVal: false,
			flagsets:   connectivityFlags,
		},
		{
			name: "connectivity.file",
			usage: `
              connectivity.file, if set, is a netCDF connectivity file to
              use instead of calculating the connectivity.`,
			defaultVal: "",
			flagsets:   connectivityFlags,
		},
		{
			name: "connectivity.xinvcost_dir",
			usage: `
              connectivity.xinvcost_dir, if set, is a directory of .inc
              files whose XINVCOST symbol the connectivity is derived from.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{connectivityCmd.Flags()},
		},
		{
			name: "connectivity.year",
			usage: `
              connectivity.year is the XINVCOST year that connections are
              read from.`,
			defaultVal: balprep.BaseYear,
			flagsets:   []*pflag.FlagSet{connectivityCmd.Flags()},
		},
		{
			name: "cluster.input_dir",
			usage: `
              cluster.input_dir is the directory of .inc files that the
              clustering features are read from.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.params",
			usage: `
              cluster.params are the parameters used as clustering
              features.`,
			defaultVal: []string{"DE", "DH", "WNDFLH", "SOLEFLH"},
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.aggs",
			usage: `
              cluster.aggs are the functions (sum, mean, or median) that
              reduce each of cluster.params to one value per region.`,
			defaultVal: []string{"sum", "sum", "mean", "mean"},
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.n",
			usage: `
              cluster.n is the number of clusters.`,
			shorthand:  "n",
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.linkage",
			usage: `
              cluster.linkage is the linkage criterion: ward, complete,
              average, or single.`,
			defaultVal: "ward",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.derived",
			usage: `
              cluster.derived holds extra features as expressions of the
              other features, for example {"DEpc":"DE/pop"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.coordinates",
			usage: `
              cluster.coordinates adds the region centroid longitude and
              latitude as features.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "cluster.second_order",
			usage: `
              cluster.second_order clusters the clusters of an earlier
              run. regions.file is then the earlier cluster geofile and
              the connectivity is taken from XINVCOST in cluster.input_dir.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "aggregate.input_dir",
			usage: `
              aggregate.input_dir is the directory of .inc files to
              aggregate.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "aggregate.clustering",
			usage: `
              aggregate.clustering is the clustering shapefile written by
              the cluster command.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "aggregate.symbols",
			usage: `
              aggregate.symbols are the symbols to aggregate. All symbols
              are aggregated if it is empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "aggregate.exceptions",
			usage: `
              aggregate.exceptions are symbols that are not aggregated.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "aggregate.mean",
			usage: `
              aggregate.mean are parameters aggregated with the mean.`,
			defaultVal: []string{"DISLOSS_E", "WNDFLH", "SOLEFLH", "XLOSS", "XCOST"},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "aggregate.median",
			usage: `
              aggregate.median are parameters aggregated with the median.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "aggregate.zero_fill",
			usage: `
              aggregate.zero_fill are parameters whose missing values are
              written as zero instead of EPS.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "grids.carriers",
			usage: `
              grids.carriers are the carriers to create transmission files
              for: electricity and hydrogen.`,
			defaultVal: []string{"electricity", "hydrogen"},
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
		},
		{
			name: "grids.offshore_losses",
			usage: `
              grids.offshore_losses are the distribution losses of offshore
              wind technologies in each offshore area group.`,
			defaultVal: map[string]string{"RG1": "0.1", "RG2": "0.2", "RG3": "0.2"},
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
		},
		{
			name: "grids.industry_areas",
			usage: `
              grids.industry_areas are the industry areas, named after
              their high temperature (-HT) variant.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
		},
		{
			name: "grids.individual_areas",
			usage: `
              grids.individual_areas are the individual user areas.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
		},
		{
			name: "grids.fuel_transport_cost",
			usage: `
              grids.fuel_transport_cost, if greater than zero, is the cost
              of transporting biomass in €/GJ/km.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
		},
		{
			name: "xkfx.lines",
			usage: `
              xkfx.lines is a CSV file of power lines with the columns
              voltage and geometry (WKT).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{xkfxCmd.Flags()},
		},
		{
			name: "xkfx.quote",
			usage: `
              xkfx.quote is the quote character of xkfx.lines.`,
			defaultVal: "'",
			flagsets:   []*pflag.FlagSet{xkfxCmd.Flags()},
		},
		{
			name: "xkfx.tolerance",
			usage: `
              xkfx.tolerance is the distance in meters within which
              regions are considered neighbours.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{xkfxCmd.Flags()},
		},
		{
			name: "relax.clustering",
			usage: `
              relax.clustering is the clustering shapefile written by the
              cluster command.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{relaxCmd.Flags()},
		},
		{
			name: "relax.capacity",
			usage: `
              relax.capacity is the transmission capacity in MW within
              clusters.`,
			defaultVal: balprep.DefaultRelaxationCapacity,
			flagsets:   []*pflag.FlagSet{relaxCmd.Flags()},
		},
		{
			name: "sets.geography",
			usage: `
              sets.geography is a JSON or TOML file with the countries and
              their regions and the regions and their areas.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{setsCmd.Flags()},
		},
		{
			name: "sets.clustering",
			usage: `
              sets.clustering is a clustering shapefile that the geography
              is created from when sets.geography is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{setsCmd.Flags()},
		},
		{
			name: "sets.country",
			usage: `
              sets.country is the country of the clusters in
              sets.clustering.`,
			defaultVal: "DENMARK",
			flagsets:   []*pflag.FlagSet{setsCmd.Flags()},
		},
		{
			name: "sets.area_suffixes",
			usage: `
              sets.area_suffixes are appended to cluster names to create
              the areas of each cluster.`,
			defaultVal: []string{"_A"},
			flagsets:   []*pflag.FlagSet{setsCmd.Flags()},
		},
		{
			name: "sets.prefixes",
			usage: `
              sets.prefixes are the set file prefixes to write: none,
              INDUSTRY_, or INDIVUSERS_.`,
			defaultVal: []string{"none"},
			flagsets:   []*pflag.FlagSet{setsCmd.Flags()},
		},
		{
			name: "demand.file",
			usage: `
              demand.file is a netCDF (.nc) or CSV (.csv) demand dataset.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{demandCmd.Flags()},
		},
		{
			name: "demand.kind",
			usage: `
              demand.kind is electricity, heat, or industry_heat.`,
			defaultVal: "electricity",
			flagsets:   []*pflag.FlagSet{demandCmd.Flags()},
		},
		{
			name: "demand.source",
			usage: `
              demand.source describes the data source in a comment at the
              top of each file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{demandCmd.Flags()},
		},
		{
			name: "demand.projection_year",
			usage: `
              demand.projection_year, if set, is a model year whose demand
              is copied from the last year in the data.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{demandCmd.Flags()},
		},
		{
			name: "profiles.file",
			usage: `
              profiles.file is a CSV file of hourly values with the columns
              time, region, and value.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{profilesCmd.Flags()},
		},
		{
			name: "profiles.name",
			usage: `
              profiles.name is the profile name, such as WND or SOLE.`,
			defaultVal: "WND",
			flagsets:   []*pflag.FlagSet{profilesCmd.Flags()},
		},
		{
			name: "profiles.text",
			usage: `
              profiles.text describes the profile.`,
			defaultVal: "Variation of generation",
			flagsets:   []*pflag.FlagSet{profilesCmd.Flags()},
		},
		{
			name: "profiles.region_dim",
			usage: `
              profiles.region_dim is the GAMS dimension of the regions.`,
			defaultVal: "AAA",
			flagsets:   []*pflag.FlagSet{profilesCmd.Flags()},
		},
		{
			name: "profiles.region_suffix",
			usage: `
              profiles.region_suffix is appended to region names.`,
			defaultVal: "_A",
			flagsets:   []*pflag.FlagSet{profilesCmd.Flags()},
		},
		{
			name: "biomass.file",
			usage: `
              biomass.file is an xlsx workbook of biomass availability.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
		{
			name: "biomass.sheet",
			usage: `
              biomass.sheet is the sheet to read. The first sheet is read
              if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
		{
			name: "biomass.wood_potential",
			usage: `
              biomass.wood_potential is the domestic wood potential in PJ.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
		{
			name: "biomass.straw_potential",
			usage: `
              biomass.straw_potential is the domestic straw potential in PJ.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
		{
			name: "biomass.biogas_potential",
			usage: `
              biomass.biogas_potential is the domestic biogas potential in PJ.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
		{
			name: "biomass.wood_import",
			usage: `
              biomass.wood_import allows the import of wood pellets.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
		{
			name: "biomass.year",
			usage: `
              biomass.year is the model year the potentials apply to.`,
			defaultVal: "2050",
			flagsets:   []*pflag.FlagSet{biomassCmd.Flags()},
		},
	}

	for _, c := range []balprep.Carrier{balprep.Electricity, balprep.Hydrogen} {
		for i, field := range gridAssumptionFields {
			options = append(options, struct {
				name, usage, shorthand string
				defaultVal             interface{}
				flagsets               []*pflag.FlagSet
			}{
				name: fmt.Sprintf("grid_assumptions.%s.%s", c, field),
				usage: fmt.Sprintf(`
              grid_assumptions.%s.%s is the %s grid's %s.`, c, field, c, strings.Replace(field, "_", " ", -1)),
				defaultVal: defaultGridAssumptions[c][i],
				flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
			})
		}
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BALPREP")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := strings.TrimSpace(b.String())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(clusterCmd)
	Root.AddCommand(aggregateCmd)
	Root.AddCommand(connectivityCmd)
	Root.AddCommand(gridsCmd)
	Root.AddCommand(xkfxCmd)
	Root.AddCommand(relaxCmd)
	Root.AddCommand(setsCmd)
	Root.AddCommand(demandCmd)
	Root.AddCommand(profilesCmd)
	Root.AddCommand(biomassCmd)
	Root.AddCommand(webCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("balprep: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "balprep",
	Short: "Prepare input data for the Balmorel energy system model.",
	Long: `balprep clusters regions, aggregates Balmorel input files to a clustering,
and creates grid, geography, demand, profile, and biomass input files.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BALPREP_var' where 'var' is the
name of the variable to be set, with dots replaced by underscores. Many
path variables are additionally allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of balprep.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("balprep v%s\n", balprep.Version)
	},
	DisableAutoGenTag: true,
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster regions.",
	Long: `cluster groups neighbouring regions with similar features into the
requested number of clusters. The features are parameters read from the
.inc files in cluster.input_dir. It writes the clustering (clustering.shp)
and the merged cluster polygons to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Cluster(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")), cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate Balmorel input files to a clustering.",
	Long: `aggregate renames the regions and areas of the symbols in the .inc files
in aggregate.input_dir to the clusters in aggregate.clustering, merges the
records that now coincide, and writes the results to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Aggregate(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")), cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

var connectivityCmd = &cobra.Command{
	Use:   "connectivity",
	Short: "Calculate the connectivity between regions.",
	Long: `connectivity calculates which regions are connected, or derives the
connections from the XINVCOST symbol in connectivity.xinvcost_dir, and
saves them to connectivity.nc in the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Connectivity(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var gridsCmd = &cobra.Command{
	Use:   "grids",
	Short: "Create transmission and distribution files.",
	Long: `grids creates the transmission investment cost, loss, and cost files
of each carrier between connected regions, and the distribution loss
files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Grids(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var xkfxCmd = &cobra.Command{
	Use:   "xkfx",
	Short: "Create initial transmission capacities from power lines.",
	Long: `xkfx sums the capacity of the power lines in xkfx.lines between
neighbouring regions and writes XKFX.inc.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return XKFX(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var relaxCmd = &cobra.Command{
	Use:   "relax",
	Short: "Relax transmission within clusters.",
	Long: `relax writes assignments giving every pair of regions in the same
cluster of relax.clustering an effectively unlimited transmission
capacity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Relax(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "Create geographic set files.",
	Long: `sets writes the CCCRRRAAA, CCCRRR, RRRAAA, RRR, AAA, and CCC set files
of a geography.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Sets(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var demandCmd = &cobra.Command{
	Use:   "demand",
	Short: "Create demand files.",
	Long: `demand converts a municipal electricity or heat demand dataset into
Balmorel demand files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Demand(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Create hourly profiles.",
	Long: `profiles normalizes hourly time series by region and writes the
profile table and full load hours.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Profiles(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}

var biomassCmd = &cobra.Command{
	Use:   "biomass",
	Short: "Create biomass availability files.",
	Long:  `biomass writes the maximum fuel use table GMAXF from a biomass availability workbook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Biomass(context.Background(), Cfg, newLogger(Cfg.GetBool("verbose")))
	},
	DisableAutoGenTag: true,
}
