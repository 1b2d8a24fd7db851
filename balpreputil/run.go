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

package balpreputil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep"
	"github.com/spatialmodel/balprep/incfile"
)

// saveFiles writes files to dir and returns their paths.
func saveFiles(dir string, files []*incfile.File, log logrus.FieldLogger) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := f.Save(dir)
		if err != nil {
			return paths, err
		}
		log.WithField("file", p).Debug("wrote file")
		paths = append(paths, p)
	}
	return paths, nil
}

// writeFileSummary prints a table of the written files.
func writeFileSummary(w io.Writer, title string, paths []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Symbol", "File"})
	for _, p := range paths {
		t.AppendRow(table.Row{strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)), p})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d files", len(paths))})
	t.Render()
}

// output runs f with the local version of the output directory and
// uploads the directory afterwards if it is in blob storage.
func output(ctx context.Context, cfg *viper.Viper, f func(dir string) error) error {
	var u uploader
	dir := u.maybeUploadDir(os.ExpandEnv(cfg.GetString("output_dir")))
	if u.err != nil {
		return fmt.Errorf("balpreputil: preparing output directory: %v", u.err)
	}
	if err := f(dir); err != nil {
		return err
	}
	return u.uploadOutput(ctx)
}

// input returns a local copy of the input file in the named option.
func input(ctx context.Context, cfg *viper.Viper, option string, log logrus.FieldLogger) (string, error) {
	path := os.ExpandEnv(cfg.GetString(option))
	if path == "" {
		return "", fmt.Errorf("balpreputil: the %s option is required", option)
	}
	return maybeDownload(ctx, path, log)
}

// loadRegions reads the regions in the regions.file option.
func loadRegions(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) (balprep.Regions, error) {
	path, err := input(ctx, cfg, "regions.file", log)
	if err != nil {
		return nil, err
	}
	return balprep.LoadRegions(path, regionOptions(cfg), log)
}

// connectivity builds the connectivity between regions as configured
// in the connectivity options.
func connectivity(ctx context.Context, cfg *viper.Viper, regions balprep.Regions, log logrus.FieldLogger) (*balprep.Connectivity, error) {
	var c *balprep.Connectivity
	metricProj := cfg.GetString("metric_proj")
	if cfg.GetString("connectivity.file") != "" {
		path, err := input(ctx, cfg, "connectivity.file", log)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("balpreputil: opening connectivity file: %v", err)
		}
		defer f.Close()
		if c, err = balprep.ReadConnectivityCDF(f); err != nil {
			return nil, err
		}
		c = c.Reorder(regions.Names())
	} else {
		var err error
		switch m := strings.ToLower(cfg.GetString("connectivity.method")); m {
		case "touches":
			c, err = balprep.TouchConnectivity(regions, metricProj, cfg.GetFloat64("connectivity.tolerance"))
		case "distance":
			c, err = balprep.DistanceConnectivity(regions, metricProj, cfg.GetFloat64("connectivity.max_distance"))
		default:
			err = fmt.Errorf("balpreputil: invalid connectivity method %q; must be touches or distance", m)
		}
		if err != nil {
			return nil, err
		}
	}
	var links []balprep.Link
	if cfg.GetBool("connectivity.dk_links") {
		links = append(links, balprep.DKMunicipalityLinks...)
	}
	l, err := balprep.ParseLinks(expandStringSlice(cfg.GetStringSlice("connectivity.links")))
	if err != nil {
		return nil, err
	}
	c.ApplyLinks(append(links, l...), log)
	c.Symmetrize(log)
	if iso := c.Isolated(); len(iso) > 0 {
		log.Warnf("isolated regions: %s", strings.Join(iso, ", "))
	}
	log.Infof("connectivity has %d connected components", len(c.Components()))
	return c, nil
}

// readIncDir reads the .inc files in the directory in the named option.
func readIncDir(cfg *viper.Viper, option string) (incfile.Database, error) {
	dir := os.ExpandEnv(cfg.GetString(option))
	if dir == "" {
		return nil, fmt.Errorf("balpreputil: the %s option is required", option)
	}
	return incfile.ReadDir(dir)
}

// readClustering reads the clustering shapefile in the named option.
func readClustering(ctx context.Context, cfg *viper.Viper, option string, log logrus.FieldLogger) (*balprep.Clustering, error) {
	path, err := input(ctx, cfg, option, log)
	if err != nil {
		return nil, err
	}
	return balprep.ReadClustering(path)
}

// Connectivity builds the connectivity between regions, or derives it
// from the XINVCOST symbol of an existing data set, and saves it in
// netCDF format.
func Connectivity(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	var c *balprep.Connectivity
	if cfg.GetString("connectivity.xinvcost_dir") != "" {
		db, err := readIncDir(cfg, "connectivity.xinvcost_dir")
		if err != nil {
			return err
		}
		s, ok := db["XINVCOST"]
		if !ok {
			return fmt.Errorf("balpreputil: there is no XINVCOST symbol in %s", cfg.GetString("connectivity.xinvcost_dir"))
		}
		if c, err = balprep.ConnectivityFromXINVCOST(s, cfg.GetString("connectivity.year"), nil); err != nil {
			return err
		}
	} else {
		regions, err := loadRegions(ctx, cfg, log)
		if err != nil {
			return err
		}
		if c, err = connectivity(ctx, cfg, regions, log); err != nil {
			return err
		}
	}
	return output(ctx, cfg, func(dir string) error {
		path := filepath.Join(dir, "connectivity.nc")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("balpreputil: creating connectivity file: %v", err)
		}
		if err := c.WriteCDF(f); err != nil {
			f.Close()
			return err
		}
		log.WithField("file", path).Info("wrote connectivity")
		return f.Close()
	})
}

// Cluster clusters the regions by the features in the cluster input
// directory and writes the clustering and the cluster polygons.
func Cluster(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger, w io.Writer) error {
	secondOrder := cfg.GetBool("cluster.second_order")
	db, err := readIncDir(cfg, "cluster.input_dir")
	if err != nil {
		return err
	}
	var regions balprep.Regions
	if secondOrder {
		// The regions are the clusters of an earlier run.
		path, err := input(ctx, cfg, "regions.file", log)
		if err != nil {
			return err
		}
		if regions, err = balprep.ReadGeofile(path); err != nil {
			return err
		}
	} else if regions, err = loadRegions(ctx, cfg, log); err != nil {
		return err
	}

	params := cfg.GetStringSlice("cluster.params")
	aggNames := cfg.GetStringSlice("cluster.aggs")
	if len(aggNames) != len(params) {
		return fmt.Errorf("balpreputil: there are %d cluster.params but %d cluster.aggs", len(params), len(aggNames))
	}
	aggs := make([]incfile.AggFunc, len(aggNames))
	for i, a := range aggNames {
		if aggs[i], err = incfile.ParseAggFunc(a); err != nil {
			return err
		}
	}
	f, err := balprep.GatherFeatures(db, params, aggs, log)
	if err != nil {
		return err
	}
	f = f.Align(regions.Names(), log)
	derived, err := getStringMapString("cluster.derived", cfg)
	if err != nil {
		return err
	}
	if err := f.AddDerived(derived); err != nil {
		return err
	}
	if cfg.GetBool("cluster.coordinates") {
		if err := f.AddCoordinates(regions); err != nil {
			return err
		}
	}

	var conn *balprep.Connectivity
	if secondOrder {
		s, ok := db["XINVCOST"]
		if !ok {
			return fmt.Errorf("balpreputil: second order clustering needs XINVCOST in %s", cfg.GetString("cluster.input_dir"))
		}
		if conn, err = balprep.ConnectivityFromXINVCOST(s, balprep.BaseYear, regions.Names()); err != nil {
			return err
		}
	} else if conn, err = connectivity(ctx, cfg, regions, log); err != nil {
		return err
	}

	linkage, err := balprep.ParseLinkage(cfg.GetString("cluster.linkage"))
	if err != nil {
		return err
	}
	c, err := balprep.Cluster(f, balprep.ClusterOptions{
		N:            cfg.GetInt("cluster.n"),
		Linkage:      linkage,
		Connectivity: conn,
	}, log)
	if err != nil {
		return err
	}

	index := regions.Index()
	ordered := make(balprep.Regions, len(c.Regions))
	for i, r := range c.Regions {
		ordered[i] = regions[index[r]]
	}
	clusters, err := balprep.ClusterGeometry(ordered, c)
	if err != nil {
		return err
	}
	err = output(ctx, cfg, func(dir string) error {
		if err := balprep.WriteClustering(filepath.Join(dir, "clustering.shp"), ordered, c); err != nil {
			return err
		}
		name := balprep.GeofileName(params, c.NumClusters(), secondOrder) + ".shp"
		return balprep.WriteGeofile(filepath.Join(dir, name), clusters)
	})
	if err != nil {
		return err
	}
	balprep.WriteClusterSummary(w, c)
	return nil
}

// Aggregate aggregates the .inc files in the aggregate input directory
// to the clusters in the clustering file.
func Aggregate(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger, w io.Writer) error {
	db, err := readIncDir(cfg, "aggregate.input_dir")
	if err != nil {
		return err
	}
	c, err := readClustering(ctx, cfg, "aggregate.clustering", log)
	if err != nil {
		return err
	}
	return output(ctx, cfg, func(dir string) error {
		paths, err := balprep.Aggregate(db, balprep.AggregateOptions{
			Symbols:    cfg.GetStringSlice("aggregate.symbols"),
			Exceptions: cfg.GetStringSlice("aggregate.exceptions"),
			Mean:       cfg.GetStringSlice("aggregate.mean"),
			Median:     cfg.GetStringSlice("aggregate.median"),
			ZeroFill:   cfg.GetStringSlice("aggregate.zero_fill"),
			OutputDir:  dir,
		}, c.Map(), log)
		if err != nil {
			return err
		}
		writeFileSummary(w, "Aggregated symbols", paths)
		return nil
	})
}

// Grids writes the transmission and distribution files of each
// carrier and, if a fuel transport cost is given, the biomass
// transport cost.
func Grids(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	regions, err := loadRegions(ctx, cfg, log)
	if err != nil {
		return err
	}
	conn, err := connectivity(ctx, cfg, regions, log)
	if err != nil {
		return err
	}
	g, err := balprep.NewGrid(regions, conn, cfg.GetString("metric_proj"))
	if err != nil {
		return err
	}
	var files []*incfile.File
	for _, name := range cfg.GetStringSlice("grids.carriers") {
		carrier, err := balprep.ParseCarrier(name)
		if err != nil {
			return err
		}
		a, err := gridAssumptions(cfg, carrier)
		if err != nil {
			return err
		}
		fs, err := g.TransmissionFiles(carrier, a)
		if err != nil {
			return err
		}
		files = append(files, fs...)
	}
	a, err := gridAssumptions(cfg, balprep.Electricity)
	if err != nil {
		return err
	}
	offshore, err := getStringMapFloat("grids.offshore_losses", cfg)
	if err != nil {
		return err
	}
	fs, err := balprep.DistributionLossFiles(offshore, a,
		cfg.GetStringSlice("grids.industry_areas"), cfg.GetStringSlice("grids.individual_areas"))
	if err != nil {
		return err
	}
	files = append(files, fs...)
	if cost := cfg.GetFloat64("grids.fuel_transport_cost"); cost > 0 {
		f, err := g.FuelTransportCostFile(cost)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, files, log)
		return err
	})
}

// XKFX writes the initial transmission capacities between regions
// from a power line registry.
func XKFX(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	regions, err := loadRegions(ctx, cfg, log)
	if err != nil {
		return err
	}
	path, err := input(ctx, cfg, "xkfx.lines", log)
	if err != nil {
		return err
	}
	r, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("balpreputil: opening power lines: %v", err)
	}
	defer r.Close()
	quote := '"'
	if q := []rune(cfg.GetString("xkfx.quote")); len(q) == 1 {
		quote = q[0]
	}
	lines, err := balprep.ReadPowerLines(r, quote)
	if err != nil {
		return err
	}
	c, err := balprep.LineCapacities(regions, lines, cfg.GetString("metric_proj"), cfg.GetFloat64("xkfx.tolerance"), log)
	if err != nil {
		return err
	}
	f, err := balprep.XKFXFile(c)
	if err != nil {
		return err
	}
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, []*incfile.File{f}, log)
		return err
	})
}

// Relax writes the transmission relaxation of a clustering.
func Relax(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	c, err := readClustering(ctx, cfg, "relax.clustering", log)
	if err != nil {
		return err
	}
	f := balprep.TransmissionRelaxation(c, cfg.GetFloat64("relax.capacity"))
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, []*incfile.File{f}, log)
		return err
	})
}

// geography reads the geography file, or creates a geography from the
// clusters of a clustering file.
func geography(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) (*balprep.Geography, error) {
	if cfg.GetString("sets.geography") != "" {
		path, err := input(ctx, cfg, "sets.geography", log)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("balpreputil: opening geography: %v", err)
		}
		defer f.Close()
		return balprep.ReadGeography(f, fileFormat(path))
	}
	c, err := readClustering(ctx, cfg, "sets.clustering", log)
	if err != nil {
		return nil, err
	}
	var names []string
	for l := 0; l < c.NumClusters(); l++ {
		names = append(names, balprep.ClusterName(l))
	}
	return balprep.GeographyFromRegions(cfg.GetString("sets.country"), names, cfg.GetStringSlice("sets.area_suffixes")...), nil
}

// Sets writes the geographic set files for each prefix.
func Sets(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	g, err := geography(ctx, cfg, log)
	if err != nil {
		return err
	}
	var files []*incfile.File
	for _, p := range cfg.GetStringSlice("sets.prefixes") {
		if p == "none" {
			p = ""
		}
		fs, err := g.SetFiles(p)
		if err != nil {
			return err
		}
		files = append(files, fs...)
	}
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, files, log)
		return err
	})
}

// readDemand reads a demand dataset in netCDF or CSV format.
func readDemand(ctx context.Context, cfg *viper.Viper, variable string, log logrus.FieldLogger) (*incfile.Symbol, error) {
	path, err := input(ctx, cfg, "demand.file", log)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("balpreputil: opening demand file: %v", err)
	}
	defer f.Close()
	switch fileFormat(path) {
	case "nc":
		return balprep.ReadSymbolCDF(f, variable)
	case "csv":
		return balprep.ReadDemandCSV(f, variable)
	default:
		return nil, fmt.Errorf("balpreputil: demand file %s must be .nc or .csv", path)
	}
}

// Demand writes the electricity demand, heat demand, or industry heat
// variation files.
func Demand(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	conv, err := conversions(cfg)
	if err != nil {
		return err
	}
	o := balprep.DemandOptions{
		Source:         cfg.GetString("demand.source"),
		ProjectionYear: cfg.GetString("demand.projection_year"),
	}
	var files []*incfile.File
	switch kind := strings.ToLower(cfg.GetString("demand.kind")); kind {
	case "electricity", "industry_heat":
		s, err := readDemand(ctx, cfg, balprep.ElectricityDemandVar, log)
		if err != nil {
			return err
		}
		ec, err := conv.Preset("electricity")
		if err != nil {
			return err
		}
		if kind == "electricity" {
			files, err = balprep.ElectricityDemandFiles(s, ec, o, log)
		} else {
			files, err = balprep.IndustryHeatVariationFiles(s, ec, log)
		}
		if err != nil {
			return err
		}
	case "heat":
		s, err := readDemand(ctx, cfg, balprep.HeatDemandVar, log)
		if err != nil {
			return err
		}
		hc, err := conv.Preset("heat")
		if err != nil {
			return err
		}
		var areas map[string][]string
		if files, areas, err = balprep.HeatDemandFiles(s, hc, o, log); err != nil {
			return err
		}
		for r, a := range areas {
			log.WithField("region", r).Debugf("heat demand areas: %s", strings.Join(a, ", "))
		}
	default:
		return fmt.Errorf("balpreputil: invalid demand kind %q; must be electricity, heat, or industry_heat", kind)
	}
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, files, log)
		return err
	})
}

// Profiles writes normalized hourly profiles and full load hours.
func Profiles(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	path, err := input(ctx, cfg, "profiles.file", log)
	if err != nil {
		return err
	}
	r, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("balpreputil: opening profile data: %v", err)
	}
	defer r.Close()
	recs, err := balprep.ReadHourly(r)
	if err != nil {
		return err
	}
	p, err := balprep.NewProfile(recs, balprep.ProfileOptions{
		Name:         cfg.GetString("profiles.name"),
		Text:         cfg.GetString("profiles.text"),
		RegionDim:    cfg.GetString("profiles.region_dim"),
		RegionSuffix: cfg.GetString("profiles.region_suffix"),
		Renames:      balprep.DefaultProfileRenames,
	}, log)
	if err != nil {
		return err
	}
	for i, cf := range p.CapacityFactors() {
		log.WithField("region", p.Regions[i]).Debugf("%s capacity factor: %.3f", p.Name, cf)
	}
	files, err := p.Files()
	if err != nil {
		return err
	}
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, files, log)
		return err
	})
}

// Biomass writes the maximum fuel use table from a biomass
// availability workbook.
func Biomass(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	path, err := input(ctx, cfg, "biomass.file", log)
	if err != nil {
		return err
	}
	s, err := balprep.BiomassAvailability(path, cfg.GetString("biomass.sheet"))
	if err != nil {
		return err
	}
	o := balprep.DefaultBiomassOptions()
	o.WoodPotential = cfg.GetFloat64("biomass.wood_potential")
	o.StrawPotential = cfg.GetFloat64("biomass.straw_potential")
	o.BiogasPotential = cfg.GetFloat64("biomass.biogas_potential")
	o.WoodImport = cfg.GetBool("biomass.wood_import")
	if y := cfg.GetString("biomass.year"); y != "" {
		o.Year = y
	}
	f, err := balprep.GMAXFFile(s, o)
	if err != nil {
		return err
	}
	return output(ctx, cfg, func(dir string) error {
		_, err := saveFiles(dir, []*incfile.File{f}, log)
		return err
	})
}
