/*
Copyright © 2024 the trigrid authors.
This file is part of trigrid.

trigrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

trigrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with trigrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package trigridutil contains the command-line interface to the trigrid
// cell index.
package trigridutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/moldovancsaba/blockmass-sub003/trigrid"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log receives the log messages of the commands.
var Log = logrus.New()

// logFile is the currently open LogFile, if any.
var logFile *os.File

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to trigrid.
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
			name: "LogLevel",
			usage: `
              LogLevel is the minimum severity of the log messages that
              are written. Valid values are debug, info, warning and error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file that JSON-formatted log messages
              are appended to. If it is empty, human-readable messages are
              written to standard error. It can contain environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Level",
			usage: `
              Level is the grid level of the returned cells, from 1
              (20 cells covering the globe) to 21 (cells about 7 m across).`,
			shorthand:  "l",
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{locateCmd.Flags(), bboxCmd.Flags(), nearestCmd.Flags(), pathCmd.Flags()},
		},
		{
			name: "BBox",
			usage: `
              BBox is the bounding box to search, as the four numbers
              west, south, east and north in degrees.`,
			defaultVal: []string{"-180", "-90", "180", "90"},
			flagsets:   []*pflag.FlagSet{bboxCmd.Flags()},
		},
		{
			name: "MaxResults",
			usage: `
              MaxResults is the maximum number of cells a bounding box
              search returns.`,
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{bboxCmd.Flags()},
		},
		{
			name: "Count",
			usage: `
              Count is the maximum number of cells returned by nearest.`,
			shorthand:  "n",
			defaultVal: 6,
			flagsets:   []*pflag.FlagSet{nearestCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where output is written. If it is empty,
              output is written to standard output. Paths ending in .shp
              are written as shapefiles and all others as GeoJSON.
              It can contain environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputProj",
			usage: `
              OutputProj is the spatial reference that output geometry is
              projected to, as a proj4 string. If it is empty, geometry is
              written as longitude and latitude.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CacheSize",
			usage: `
              CacheSize is the number of computed cells kept in memory
              while a command runs.`,
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("TRIGRID")
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
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
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
	Root.AddCommand(configCmd)
	Root.AddCommand(locateCmd)
	Root.AddCommand(bboxCmd)
	Root.AddCommand(nearestCmd)
	Root.AddCommand(pathCmd)
	Root.AddCommand(describeCmd)
	Root.AddCommand(parentCmd)
	Root.AddCommand(childrenCmd)
	Root.AddCommand(neighborsCmd)
	Root.AddCommand(decodeCmd)
	Root.AddCommand(levelsCmd)
}

// setConfig reads in the configuration file, if there is one, and
// sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("trigrid: problem reading configuration file: %v", err)
		}
	}
	return setLog()
}

func setLog() error {
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("trigrid: invalid LogLevel: %v", err)
	}
	Log.Level = level

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	path := os.ExpandEnv(Cfg.GetString("LogFile"))
	if path == "" {
		Log.Out = os.Stderr
		Log.Formatter = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("trigrid: opening LogFile: %v", err)
	}
	logFile = f
	Log.Out = f
	Log.Formatter = &logrus.JSONFormatter{}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "trigrid",
	Short: "A global grid of nested triangular cells.",
	Long: `trigrid divides the surface of the Earth into triangular cells, starting from
the 20 faces of an icosahedron and splitting each cell into four children down to
level 21, where cells are about 7 m across. Every cell has a text identifier of the
form STEP-TRI-v1:{face}{level}-{path}-{checksum}.
Use the subcommands specified below to locate, search and describe cells.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'TRIGRID_var' where 'var' is the
name of the variable to be set.
Negative coordinates must come after a '--' argument so that they are not read as flags.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of trigrid.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "trigrid v%s\n", trigrid.Version)
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration",
	Long: `config prints the value of every configuration option after the configuration
file, environment variables and flags have been applied, in the TOML format that
--config reads.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := make(map[string]interface{})
		for _, option := range options {
			if option.name != "config" {
				config[option.name] = Cfg.Get(option.name)
			}
		}
		return writeOutput(cmd, func(w io.Writer) error {
			return toml.NewEncoder(w).Encode(config)
		})
	},
	DisableAutoGenTag: true,
}
