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
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/spf13/cobra"

	"github.com/moldovancsaba/blockmass-sub003/trigrid"
)

// wgs84 is the spatial reference of unprojected shapefile output.
const wgs84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// Feature is a GeoJSON feature holding one cell.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties *trigrid.Cell     `json:"properties"`
}

// FeatureCollection is the GeoJSON document written by the commands
// that return cells.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// ShapeRecord is a row of shapefile output. The float fields of the
// shapefile encoder hold only ten characters, so the measurements are
// stored as text.
type ShapeRecord struct {
	geom.Polygon
	ID        string
	Face      int
	Level     int
	AreaM2    string
	PerimM    string
	Antimerid int
}

// writeCells writes cells to OutputFile, or to the output of cmd if
// OutputFile is empty.
func writeCells(cmd *cobra.Command, cells []*trigrid.Cell) error {
	trans, err := outputTransform(Cfg.GetString("OutputProj"))
	if err != nil {
		return err
	}
	path := os.ExpandEnv(Cfg.GetString("OutputFile"))
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return writeShapefile(path, cells, trans)
	}
	return writeOutput(cmd, func(w io.Writer) error {
		return writeGeoJSON(w, cells, trans)
	})
}

// writeOutput calls write with OutputFile, or with the output of cmd if
// OutputFile is empty.
func writeOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	path := os.ExpandEnv(Cfg.GetString("OutputFile"))
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trigrid: creating output file: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// outputTransform returns the transform from longitude and latitude to
// the spatial reference described by projection, or nil if projection
// is empty.
func outputTransform(projection string) (proj.Transformer, error) {
	if projection == "" {
		return nil, nil
	}
	dst, err := proj.Parse(projection)
	if err != nil {
		return nil, fmt.Errorf("trigrid: while parsing OutputProj: %v", err)
	}
	src, err := proj.Parse("+proj=longlat")
	if err != nil {
		panic(err)
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("trigrid: creating OutputProj transform: %v", err)
	}
	return trans, nil
}

// project returns the polygon of c transformed by trans.
func project(c *trigrid.Cell, trans proj.Transformer) (geom.Polygon, error) {
	if trans == nil {
		return c.Polygon, nil
	}
	g, err := c.Polygon.Transform(trans)
	if err != nil {
		return nil, fmt.Errorf("trigrid: projecting %v: %v", c.ID, err)
	}
	p := g.(geom.Polygon)
	for _, r := range p {
		for _, pt := range r {
			if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) || math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
				return nil, fmt.Errorf("trigrid: %v cannot be represented in OutputProj", c.ID)
			}
		}
	}
	return p, nil
}

func writeGeoJSON(w io.Writer, cells []*trigrid.Cell, trans proj.Transformer) error {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*Feature, len(cells)),
	}
	for i, c := range cells {
		p, err := project(c, trans)
		if err != nil {
			return err
		}
		g, err := geojson.ToGeoJSON(p)
		if err != nil {
			return fmt.Errorf("trigrid: encoding %v: %v", c.ID, err)
		}
		fc.Features[i] = &Feature{Type: "Feature", Geometry: g, Properties: c}
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(fc)
}

func writeShapefile(path string, cells []*trigrid.Cell, trans proj.Transformer) error {
	e, err := shp.NewEncoder(path, ShapeRecord{})
	if err != nil {
		return fmt.Errorf("trigrid: creating output shapefile: %v", err)
	}
	for _, c := range cells {
		p, err := project(c, trans)
		if err != nil {
			e.Close()
			return err
		}
		r := ShapeRecord{
			Polygon: p,
			ID:      c.ID.String(),
			Face:    c.Face,
			Level:   c.Level,
			AreaM2:  strconv.FormatFloat(c.Area, 'g', 12, 64),
			PerimM:  strconv.FormatFloat(c.Perimeter, 'g', 12, 64),
		}
		if c.CrossesAntimeridian {
			r.Antimerid = 1
		}
		if err := e.Encode(r); err != nil {
			e.Close()
			return fmt.Errorf("trigrid: writing %v to shapefile: %v", c.ID, err)
		}
	}
	e.Close()

	if trans != nil {
		// The proj package only writes proj4 strings, which most GIS
		// software does not read from .prj files.
		return nil
	}
	f, err := os.Create(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
	if err != nil {
		return fmt.Errorf("error creating output prj file: %v", err)
	}
	fmt.Fprint(f, wgs84)
	return f.Close()
}
