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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// getStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func getStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&o); err != nil {
			return nil, fmt.Errorf("balpreputil: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		panic(fmt.Errorf("invalid type for getStringMapString variable %s: %#v", varName, i))
	}
}

// getStringMapFloat is like getStringMapString, for numeric values.
func getStringMapFloat(varName string, cfg *viper.Viper) (map[string]float64, error) {
	m, err := getStringMapString(varName, cfg)
	if err != nil {
		return nil, err
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		if o[k], err = cast.ToFloat64E(strings.TrimSpace(v)); err != nil {
			return nil, fmt.Errorf("balpreputil: %s.%s: %v", varName, k, err)
		}
	}
	return o, nil
}

// newLogger returns the logger used by the commands.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	}
	if verbose {
		log.Level = logrus.DebugLevel
	}
	return log
}

// gridAssumptionFields are the configuration keys of the grid
// assumptions of each carrier.
var gridAssumptionFields = []string{
	"investment_cost", "lifetime", "transmission_loss", "transmission_cost",
	"distribution_loss", "distribution_cost", "industry_technologies", "individual_technologies",
}

// defaultGridAssumptions are the default values of the fields in
// gridAssumptionFields.
var defaultGridAssumptions = map[balprep.Carrier][]float64{
	balprep.Electricity: {12.99, 40, 3e-8, 1e-4, 0.05, 5, 0.02, 0.06},
	balprep.Hydrogen:    {0.3, 50, 2.5e-8, 1e-6, 0, 0, 0, 0},
}

// gridAssumptions reads the grid assumptions of carrier c from the
// grid_assumptions.<carrier> section of cfg.
func gridAssumptions(cfg *viper.Viper, c balprep.Carrier) (balprep.GridAssumptions, error) {
	v := make([]float64, len(gridAssumptionFields))
	for i, field := range gridAssumptionFields {
		key := fmt.Sprintf("grid_assumptions.%s.%s", c, field)
		var err error
		if v[i], err = cast.ToFloat64E(cfg.Get(key)); err != nil {
			return balprep.GridAssumptions{}, fmt.Errorf("balpreputil: %s: %v", key, err)
		}
	}
	return balprep.GridAssumptions{
		InvestmentCost:         v[0],
		Lifetime:               v[1],
		TransmissionLoss:       v[2],
		TransmissionCost:       v[3],
		DistributionLoss:       v[4],
		DistributionCost:       v[5],
		IndustryTechnologies:   v[6],
		IndividualTechnologies: v[7],
	}, nil
}

// regionOptions reads the region dataset options from cfg.
func regionOptions(cfg *viper.Viper) balprep.RegionOptions {
	return balprep.RegionOptions{
		Choice:    cfg.GetString("regions.choice"),
		NameField: cfg.GetString("regions.name_field"),
		Countries: cfg.GetStringSlice("regions.countries"),
		Exclude:   cfg.GetStringSlice("regions.exclude"),
	}
}

// conversions returns the name conversion dictionaries in the file
// given by the names option, or the default dictionaries.
func conversions(cfg *viper.Viper) (*balprep.Conversions, error) {
	path := os.ExpandEnv(cfg.GetString("names"))
	if path == "" {
		return balprep.DefaultConversions(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("balpreputil: opening name conversions: %v", err)
	}
	defer f.Close()
	return balprep.ReadConversions(f)
}

// fileFormat returns the lower case extension of path without the
// leading dot.
func fileFormat(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
