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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/kr/pretty"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/trigrid"
)

var budapest5 = cellid.MustNew(5, 5, 2, 1, 2, 1)

// output is the GeoJSON written by the cell commands.
type output struct {
	Type     string
	Features []struct {
		Type     string
		Geometry struct {
			Type        string
			Coordinates [][][]float64
		}
		Properties struct {
			ID        cellid.ID `json:"id"`
			Face      int       `json:"face"`
			Level     int       `json:"level"`
			Path      []int     `json:"path"`
			Area      float64   `json:"area_m2"`
			Perimeter float64   `json:"perimeter_m"`
			Antimerid bool      `json:"crosses_antimeridian"`
		}
	}
}

func (o output) ids() []cellid.ID {
	ids := make([]cellid.ID, len(o.Features))
	for i, f := range o.Features {
		ids[i] = f.Properties.ID
	}
	return ids
}

// reset restores the default configuration.
func reset() {
	Cfg.Set("config", "")
	Cfg.Set("LogLevel", "error")
	Cfg.Set("LogFile", "")
	Cfg.Set("Level", 10)
	Cfg.Set("BBox", []string{"-180", "-90", "180", "90"})
	Cfg.Set("Count", 6)
	Cfg.Set("OutputFile", "")
	Cfg.Set("OutputProj", "")
	Cfg.Set("CacheSize", 1000)
}

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	Root.SetArgs(args)
	err := Root.Execute()
	return buf.String(), err
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func runCells(t *testing.T, args ...string) output {
	t.Helper()
	var o output
	if err := json.Unmarshal([]byte(run(t, args...)), &o); err != nil {
		t.Fatal(err)
	}
	if o.Type != "FeatureCollection" {
		t.Errorf("type = %q", o.Type)
	}
	return o
}

func TestVersion(t *testing.T) {
	reset()
	if out := run(t, "version"); out != "trigrid v"+trigrid.Version+"\n" {
		t.Errorf("version = %q", out)
	}
}

func TestLocate(t *testing.T) {
	reset()
	Cfg.Set("Level", 5)
	o := runCells(t, "locate", "47.4979", "19.0402", "48.2082", "16.3738", "47.4979", "19.0402")
	want := []cellid.ID{budapest5, cellid.MustNew(15, 5, 1, 2, 1, 2), budapest5}
	if got := o.ids(); !reflect.DeepEqual(got, want) {
		t.Errorf("cells = %v; want %v", got, want)
	}
	f := o.Features[0]
	if f.Type != "Feature" || f.Geometry.Type != "Polygon" {
		t.Errorf("feature types = %s, %s", f.Type, f.Geometry.Type)
	}
	poly, _ := trigrid.Polygon(budapest5)
	if len(f.Geometry.Coordinates) != 1 || len(f.Geometry.Coordinates[0]) != 4 {
		t.Fatalf("coordinates = %v", f.Geometry.Coordinates)
	}
	for i, c := range f.Geometry.Coordinates[0] {
		if c[0] != poly[0][i].X || c[1] != poly[0][i].Y {
			t.Errorf("vertex %d = %v; want %v", i, c, poly[0][i])
		}
	}
	if f.Properties.Face != 5 || f.Properties.Level != 5 || !reflect.DeepEqual(f.Properties.Path, []int{2, 1, 2, 1}) {
		t.Errorf("properties = %+v", f.Properties)
	}
	if !scalar.EqualWithinRel(f.Properties.Area, 9.36500336884845e10, 1e-6) {
		t.Errorf("area = %g", f.Properties.Area)
	}
}

func TestLocateNegative(t *testing.T) {
	reset()
	Cfg.Set("Level", 3)
	o := runCells(t, "locate", "--", "-33.87", "151.21")
	want, err := trigrid.PointToCell(-33.87, 151.21, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := o.ids(); !reflect.DeepEqual(got, []cellid.ID{want}) {
		t.Errorf("cells = %v; want %v", got, want)
	}
}

func TestLocateInvalid(t *testing.T) {
	reset()
	if _, err := execute("locate", "47.4979"); err == nil {
		t.Error("an odd number of coordinates should fail")
	}
	if _, err := execute("locate", "north", "19"); err == nil {
		t.Error("a non-numeric coordinate should fail")
	}
	if _, err := execute("locate", "95", "19"); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("latitude 95: err = %v", err)
	}
	Cfg.Set("Level", 22)
	if _, err := execute("locate", "47.4979", "19.0402"); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("level 22: err = %v", err)
	}
}

func TestBBox(t *testing.T) {
	reset()
	Cfg.Set("Level", 5)
	Cfg.Set("BBox", []string{"19", "47", "19.1", "47.6"})
	o := runCells(t, "bbox")
	if got := o.ids(); !reflect.DeepEqual(got, []cellid.ID{budapest5}) {
		t.Errorf("cells = %v", got)
	}

	Cfg.Set("Level", 1)
	Cfg.Set("BBox", []string{"-180", "-90", "180", "90"})
	o = runCells(t, "bbox")
	if len(o.Features) != 20 {
		t.Errorf("world at level 1: %d cells", len(o.Features))
	}

	Cfg.Set("BBox", []string{"21", "46", "18", "49"})
	if _, err := execute("bbox"); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("west > east: err = %v", err)
	}
	Cfg.Set("BBox", []string{"18", "46", "21"})
	if _, err := execute("bbox"); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("three values: err = %v", err)
	}
}

func TestNearest(t *testing.T) {
	reset()
	Cfg.Set("Level", 5)
	Cfg.Set("Count", 2)
	o := runCells(t, "nearest", "47.4979", "19.0402")
	want := []cellid.ID{budapest5, cellid.MustNew(15, 5, 1, 2, 1, 2)}
	if got := o.ids(); !reflect.DeepEqual(got, want) {
		t.Errorf("cells = %v; want %v", got, want)
	}
}

func TestPath(t *testing.T) {
	reset()
	Cfg.Set("Level", 5)
	o := runCells(t, "path", "47.4979", "19.0402", "48.2082", "16.3738")
	want := []cellid.ID{budapest5, cellid.MustNew(15, 5, 1, 2, 1, 2)}
	if got := o.ids(); !reflect.DeepEqual(got, want) {
		t.Errorf("cells = %v; want %v", got, want)
	}
}

func TestHierarchy(t *testing.T) {
	reset()
	s := budapest5.String()

	o := runCells(t, "describe", s, cellid.MustNew(0, 1).String())
	if got := o.ids(); !reflect.DeepEqual(got, []cellid.ID{budapest5, cellid.MustNew(0, 1)}) {
		t.Errorf("describe = %v", got)
	}

	o = runCells(t, "parent", s)
	if got := o.ids(); !reflect.DeepEqual(got, []cellid.ID{cellid.MustNew(5, 4, 2, 1, 2)}) {
		t.Errorf("parent = %v", got)
	}

	o = runCells(t, "children", s)
	c, _ := budapest5.Children()
	if got := o.ids(); !reflect.DeepEqual(got, c[:]) {
		t.Errorf("children = %v; want %v", got, c)
	}
	var area float64
	for _, f := range o.Features {
		area += f.Properties.Area
	}
	if parent, _ := trigrid.Area(budapest5); !scalar.EqualWithinRel(area, parent, 1e-3) {
		t.Errorf("children cover %g m²; parent has %g", area, parent)
	}

	o = runCells(t, "neighbors", s)
	want := []cellid.ID{
		cellid.MustNew(5, 5, 2, 1, 3, 1),
		cellid.MustNew(15, 5, 1, 2, 1, 2),
		cellid.MustNew(5, 5, 2, 1, 2, 3),
	}
	if got := o.ids(); !reflect.DeepEqual(got, want) {
		t.Errorf("neighbors = %v; want %v", got, want)
	}

	if _, err := execute("parent", cellid.MustNew(3, 1).String()); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("parent of a seed: err = %v", err)
	}
}

func TestDecode(t *testing.T) {
	reset()
	out := run(t, "decode", budapest5.String(), cellid.MustNew(19, 1).String())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out)
	}
	var d decoded
	if err := json.Unmarshal([]byte(lines[0]), &d); err != nil {
		t.Fatal(err)
	}
	if want := (decoded{ID: budapest5, Face: 5, Level: 5, Path: []int{2, 1, 2, 1}}); !reflect.DeepEqual(d, want) {
		t.Errorf("decoded = %+v; want %+v", d, want)
	}

	s := budapest5.String()
	last := s[len(s)-1]
	tampered := s[:len(s)-1] + "A"
	if last == 'A' {
		tampered = s[:len(s)-1] + "B"
	}
	if _, err := execute("decode", tampered); !errors.Is(err, cellid.ErrIntegrity) {
		t.Errorf("tampered checksum: err = %v", err)
	}
	if _, err := execute("decode", "STEP-TRI-v2:F5-21210000000000000000-CAT"); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("wrong prefix: err = %v", err)
	}
}

func TestLevels(t *testing.T) {
	reset()
	out := run(t, "levels")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != cellid.MaxLevel+1 {
		t.Fatalf("%d lines:\n%s", len(lines), out)
	}
	if f := strings.Fields(lines[1]); len(f) != 3 || f[0] != "1" || f[1] != "20" || f[2] != "8000000" {
		t.Errorf("level 1 row = %q", lines[1])
	}
	if f := strings.Fields(lines[5]); len(f) != 3 || f[1] != "5120" {
		t.Errorf("level 5 row = %q", lines[5])
	}
}

func TestShapefile(t *testing.T) {
	reset()
	dir, err := ioutil.TempDir("", "trigrid")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	Cfg.Set("Level", 6)
	Cfg.Set("BBox", []string{"18", "46", "21", "49"})
	Cfg.Set("OutputFile", filepath.Join(dir, "hungary.shp"))
	if out := run(t, "bbox"); out != "" {
		t.Errorf("unexpected output %q", out)
	}
	want, err := trigrid.CellsInBbox(trigrid.BBox{West: 18, South: 46, East: 21, North: 49}, 6, 1000)
	if err != nil {
		t.Fatal(err)
	}

	d, err := shp.NewDecoder(filepath.Join(dir, "hungary.shp"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var got []cellid.ID
	for {
		var r ShapeRecord
		if !d.DecodeRow(&r) {
			break
		}
		// String attributes are padded with NUL bytes.
		id, err := cellid.Decode(strings.TrimRight(r.ID, "\x00"))
		if err != nil {
			t.Fatal(err)
		}
		if r.Face != id.Face() || r.Level != 6 || r.Antimerid != 0 {
			t.Errorf("%v: record = %+v", id, r)
		}
		if len(r.Polygon) != 1 {
			t.Errorf("%v: %d rings", id, len(r.Polygon))
		}
		got = append(got, id)
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("shapefile cells = %v; want %v", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "hungary.prj")); err != nil {
		t.Error(err)
	}
}

func TestGeoJSONFile(t *testing.T) {
	reset()
	dir, err := ioutil.TempDir("", "trigrid")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "cell.geojson")
	Cfg.Set("OutputFile", path)
	run(t, "describe", budapest5.String())
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var o output
	if err := json.Unmarshal(b, &o); err != nil {
		t.Fatal(err)
	}
	if got := o.ids(); !reflect.DeepEqual(got, []cellid.ID{budapest5}) {
		t.Errorf("cells = %v", got)
	}
}

func TestOutputProj(t *testing.T) {
	reset()
	const webMapProj = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
	Cfg.Set("OutputProj", webMapProj)
	o := runCells(t, "describe", budapest5.String())
	poly, _ := trigrid.Polygon(budapest5)
	for i, c := range o.Features[0].Geometry.Coordinates[0] {
		x := 6378137 * poly[0][i].X * math.Pi / 180
		y := 6378137 * math.Log(math.Tan(math.Pi/4+poly[0][i].Y*math.Pi/360))
		if !scalar.EqualWithinRel(c[0], x, 1e-9) || !scalar.EqualWithinRel(c[1], y, 1e-9) {
			t.Errorf("vertex %d = %v; want [%g %g]", i, c, x, y)
		}
	}

	Cfg.Set("OutputProj", "+proj=nonsense")
	if _, err := execute("describe", budapest5.String()); err == nil {
		t.Error("an invalid projection should fail")
	}
}

func TestLogFile(t *testing.T) {
	reset()
	dir, err := ioutil.TempDir("", "trigrid")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "trigrid.log")
	Cfg.Set("LogLevel", "info")
	Cfg.Set("LogFile", path)
	Cfg.Set("Level", 5)
	Cfg.Set("BBox", []string{"19", "47", "19.1", "47.6"})
	run(t, "bbox")
	reset()
	run(t, "version") // closes the log file

	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(b), &entry); err != nil {
		t.Fatalf("log entry %q: %v", b, err)
	}
	if entry["msg"] != "searched bounding box" || entry["cells"] != 1.0 || entry["grid_level"] != 5.0 {
		t.Errorf("log entry = %v", entry)
	}

	Cfg.Set("LogLevel", "loud")
	if _, err := execute("version"); err == nil {
		t.Error("an invalid LogLevel should fail")
	}
	reset()
}

func TestConfigFile(t *testing.T) {
	reset()
	dir, err := ioutil.TempDir("", "trigrid")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "trigrid.toml")
	if err := ioutil.WriteFile(path, []byte("MaxResults = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer func() {
		// Reading a file with the default replaces the values read above.
		ioutil.WriteFile(path, []byte("MaxResults = 1000\n"), 0644)
		run(t, "version")
		reset()
	}()
	Cfg.Set("config", path)
	Cfg.Set("Level", 6)
	Cfg.Set("BBox", []string{"18", "46", "21", "49"})
	o := runCells(t, "bbox")
	if len(o.Features) != 3 {
		t.Errorf("%d cells; want MaxResults = 3", len(o.Features))
	}

	var config map[string]interface{}
	if _, err := toml.Decode(run(t, "config"), &config); err != nil {
		t.Fatal(err)
	}
	if config["MaxResults"] != int64(3) || config["Level"] != int64(6) || config["LogLevel"] != "error" {
		t.Errorf("config = %v", config)
	}
	if _, ok := config["config"]; ok {
		t.Error("config should not print its own location")
	}

	Cfg.Set("config", filepath.Join(dir, "missing.toml"))
	if _, err := execute("version"); err == nil {
		t.Error("a missing configuration file should fail")
	}
	Cfg.Set("config", path)
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	b := NewBatch(2)
	ids := []cellid.ID{budapest5, cellid.MustNew(0, 1), budapest5, cellid.MustNew(7, 2, 3), budapest5}
	cells, err := b.Describe(ctx, ids...)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range cells {
		want, _ := trigrid.Describe(ids[i])
		if diff := pretty.Diff(c, want); len(diff) > 0 {
			t.Errorf("cell %d: %v", i, diff)
		}
	}
	if cells[0] != cells[2] || cells[0] != cells[4] {
		t.Error("repeated cells should be computed once")
	}

	// Invalid requests fail without blocking their duplicates.
	if _, err := b.Describe(ctx, budapest5, cellid.ID{}, cellid.ID{}); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("zero ID: err = %v", err)
	}

	pts := []geom.Point{{X: 19.0402, Y: 47.4979}, {X: 19.0402, Y: 47.4979}, {X: 16.3738, Y: 48.2082}}
	cells, err = b.Locate(ctx, 5, pts...)
	if err != nil {
		t.Fatal(err)
	}
	if cells[0].ID != budapest5 || cells[1].ID != budapest5 || cells[2].ID != cellid.MustNew(15, 5, 1, 2, 1, 2) {
		t.Errorf("located %v, %v, %v", cells[0].ID, cells[1].ID, cells[2].ID)
	}
	if _, err := b.Locate(ctx, 5, geom.Point{X: 200, Y: 0}, geom.Point{X: 200, Y: 0}); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("longitude 200: err = %v", err)
	}
}
