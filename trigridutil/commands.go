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

package trigridutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/trigrid"
)

var locateCmd = &cobra.Command{
	Use:   "locate LAT LON [LAT LON]...",
	Short: "Find the cells containing points",
	Long: `locate finds the cell at --Level that contains each point given as a latitude
and longitude pair in degrees, and writes the cells as GeoJSON or a shapefile.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("trigrid: locate needs latitude and longitude pairs, got %d arguments", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := parsePoints(args)
		if err != nil {
			return err
		}
		level := Cfg.GetInt("Level")
		cells, err := NewBatch(Cfg.GetInt("CacheSize")).Locate(context.Background(), level, points...)
		if err != nil {
			return err
		}
		Log.WithFields(logrus.Fields{
			"points":     len(points),
			"grid_level": level,
		}).Info("located points")
		return writeCells(cmd, cells)
	},
	DisableAutoGenTag: true,
}

var bboxCmd = &cobra.Command{
	Use:   "bbox",
	Short: "Find the cells overlapping a bounding box",
	Long: `bbox finds the cells at --Level that overlap --BBox, in identifier order,
stopping after --MaxResults cells.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := parseBBox(Cfg.GetStringSlice("BBox"))
		if err != nil {
			return err
		}
		level, maxResults := Cfg.GetInt("Level"), Cfg.GetInt("MaxResults")
		ids, err := trigrid.CellsInBbox(b, level, maxResults)
		if err != nil {
			return err
		}
		fields := logrus.Fields{
			"bbox":       b.String(),
			"grid_level": level,
			"cells":      len(ids),
		}
		if len(ids) == maxResults {
			Log.WithFields(fields).Warn("stopped at MaxResults; the output may be incomplete")
		} else {
			Log.WithFields(fields).Info("searched bounding box")
		}
		return describeAndWrite(cmd, ids)
	},
	DisableAutoGenTag: true,
}

var nearestCmd = &cobra.Command{
	Use:   "nearest LAT LON",
	Short: "Find the cells nearest to a point",
	Long: `nearest finds up to --Count cells at --Level around a point, ordered by the
distance from the point to their centroids. The cell containing the point comes first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := parsePoints(args)
		if err != nil {
			return err
		}
		ids, err := trigrid.NearestCells(points[0].Y, points[0].X, Cfg.GetInt("Level"), Cfg.GetInt("Count"))
		if err != nil {
			return err
		}
		return describeAndWrite(cmd, ids)
	},
	DisableAutoGenTag: true,
}

var pathCmd = &cobra.Command{
	Use:   "path LAT1 LON1 LAT2 LON2",
	Short: "Find the cells along a path",
	Long: `path finds the cells at --Level crossed by the great circle path between two
points, in the order they are visited.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := parsePoints(args)
		if err != nil {
			return err
		}
		level := Cfg.GetInt("Level")
		ids, err := trigrid.CellsAlongPath(points[0], points[1], level)
		if err != nil {
			return err
		}
		Log.WithFields(logrus.Fields{
			"grid_level": level,
			"cells":      len(ids),
		}).Info("sampled path")
		return describeAndWrite(cmd, ids)
	},
	DisableAutoGenTag: true,
}

var describeCmd = &cobra.Command{
	Use:   "describe ID...",
	Short: "Describe cells",
	Long: `describe writes the geometry, area and perimeter of the cells with the given
identifiers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return describeAndWrite(cmd, ids)
	},
	DisableAutoGenTag: true,
}

var parentCmd = &cobra.Command{
	Use:   "parent ID...",
	Short: "Find the parents of cells",
	Long:  "parent writes the cells that contain the cells with the given identifiers, one level up.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		parents := make([]cellid.ID, len(ids))
		for i, id := range ids {
			if parents[i], err = id.Parent(); err != nil {
				return err
			}
		}
		return describeAndWrite(cmd, parents)
	},
	DisableAutoGenTag: true,
}

var childrenCmd = &cobra.Command{
	Use:   "children ID...",
	Short: "Find the children of cells",
	Long:  "children writes the four cells that each cell with the given identifier is divided into.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		var children []cellid.ID
		for _, id := range ids {
			c, err := id.Children()
			if err != nil {
				return err
			}
			children = append(children, c[:]...)
		}
		return describeAndWrite(cmd, children)
	},
	DisableAutoGenTag: true,
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors ID",
	Short: "Find the neighbors of a cell",
	Long:  "neighbors writes the cells at the same level that share an edge with the given cell.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		n, err := trigrid.Neighbors(ids[0])
		if err != nil {
			return err
		}
		return describeAndWrite(cmd, n)
	},
	DisableAutoGenTag: true,
}

// decoded is the output of the decode command.
type decoded struct {
	ID    cellid.ID `json:"id"`
	Face  int       `json:"face"`
	Level int       `json:"level"`
	Path  []int     `json:"path"`
}

var decodeCmd = &cobra.Command{
	Use:   "decode ID...",
	Short: "Check and decode cell identifiers",
	Long: `decode checks the format and checksum of each identifier and writes its face,
level and path as JSON, one object per line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return writeOutput(cmd, func(w io.Writer) error {
			e := json.NewEncoder(w)
			for _, id := range ids {
				if err := e.Encode(decoded{ID: id, Face: id.Face(), Level: id.Level(), Path: id.Path()}); err != nil {
					return err
				}
			}
			return nil
		})
	},
	DisableAutoGenTag: true,
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the number and size of cells at each level",
	Long: `levels prints a table of the number of cells covering the globe and their
approximate side length at every level.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(cmd, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "level\tcells\tside (m)\t")
			for level := cellid.MinLevel; level <= cellid.MaxLevel; level++ {
				n, err := cellid.CellCount(level)
				if err != nil {
					return err
				}
				side, err := cellid.SideLength(level)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%d\t%.0f\t\n", level, n, side)
			}
			return tw.Flush()
		})
	},
	DisableAutoGenTag: true,
}

// describeAndWrite describes ids and writes them out.
func describeAndWrite(cmd *cobra.Command, ids []cellid.ID) error {
	cells, err := NewBatch(Cfg.GetInt("CacheSize")).Describe(context.Background(), ids...)
	if err != nil {
		return err
	}
	Log.WithField("cells", len(cells)).Debug("described cells")
	return writeCells(cmd, cells)
}

// parsePoints parses latitude and longitude pairs into points with X
// holding the longitude.
func parsePoints(args []string) ([]geom.Point, error) {
	v, err := parseFloats("coordinate", args)
	if err != nil {
		return nil, err
	}
	points := make([]geom.Point, len(v)/2)
	for i := range points {
		points[i] = geom.Point{X: v[2*i+1], Y: v[2*i]}
	}
	return points, nil
}

func parseBBox(s []string) (trigrid.BBox, error) {
	v, err := parseFloats("BBox value", s)
	if err != nil {
		return trigrid.BBox{}, err
	}
	return trigrid.NewBBox(v)
}

func parseFloats(what string, s []string) ([]float64, error) {
	v := make([]float64, len(s))
	for i, ss := range s {
		var err error
		if v[i], err = cast.ToFloat64E(ss); err != nil {
			return nil, fmt.Errorf("trigrid: invalid %s %q: %v", what, ss, err)
		}
	}
	return v, nil
}

func parseIDs(args []string) ([]cellid.ID, error) {
	ids := make([]cellid.ID, len(args))
	for i, a := range args {
		var err error
		if ids[i], err = cellid.Decode(a); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
