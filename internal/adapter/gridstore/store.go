// Package gridstore persists datasets as self-describing NetCDF-4 files with
// time/lat/lon dimensions and CF attributes.
package gridstore

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/fhs/go-netcdf/netcdf"
)

// variablesAttr is the global attribute listing the stored variable names.
const variablesAttr = "variables"

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrNotDataset is returned when a file lacks the dimensions or coordinate
// variables this store writes.
var ErrNotDataset = errors.New("not a gridded dataset")

// Store reads and writes datasets under a directory as <name>.nc.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Path returns the file path for a dataset name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".nc")
}

// Write stores ds as <name>.nc, replacing any existing file.
func (s *Store) Write(name string, ds *domain.Dataset) (string, error) {
	if err := ds.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	path := s.Path(name)
	tmp := path + ".tmp"
	if err := writeFile(tmp, ds); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	s.logger.Info("dataset stored", "path", path, "variables", len(ds.Vars), "shape", ds.Shape())
	return path, nil
}

func writeFile(path string, ds *domain.Dataset) (err error) {
	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := nc.Close(); err == nil {
			err = cerr
		}
	}()

	shape := ds.Shape()
	timeDim, err := nc.AddDim("time", uint64(shape[0]))
	if err != nil {
		return err
	}
	latDim, err := nc.AddDim("lat", uint64(shape[1]))
	if err != nil {
		return err
	}
	lonDim, err := nc.AddDim("lon", uint64(shape[2]))
	if err != nil {
		return err
	}

	axisAttrs := domain.AxisAttrs()
	timeVar, err := nc.AddVar("time", netcdf.INT, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	latVar, err := nc.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := nc.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	for name, v := range map[string]netcdf.Var{"time": timeVar, "lat": latVar, "lon": lonVar} {
		if err := writeAttrs(v.Attr, axisAttrs[name]); err != nil {
			return fmt.Errorf("%s attributes: %w", name, err)
		}
	}

	names := ds.Names()
	dataVars := make(map[string]netcdf.Var, len(names))
	for _, name := range names {
		v, err := nc.AddVar(name, netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
		if err != nil {
			return fmt.Errorf("add variable %s: %w", name, err)
		}
		if err := v.Attr("_FillValue").WriteFloat32s([]float32{domain.Missing}); err != nil {
			return fmt.Errorf("%s fill value: %w", name, err)
		}
		if err := writeAttrs(v.Attr, ds.VarAttrs[name]); err != nil {
			return fmt.Errorf("%s attributes: %w", name, err)
		}
		dataVars[name] = v
	}

	if err := writeAttrs(nc.Attr, ds.Attrs); err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}
	if err := nc.Attr(variablesAttr).WriteBytes([]byte(strings.Join(names, ","))); err != nil {
		return err
	}

	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("end define mode: %w", err)
	}

	days := make([]int32, len(ds.Times))
	for i, t := range ds.Times {
		days[i] = int32(t.UTC().Sub(epoch).Hours() / 24)
	}
	if err := timeVar.WriteInt32s(days); err != nil {
		return fmt.Errorf("write time: %w", err)
	}
	if err := latVar.WriteFloat64s(ds.Axes.Lat); err != nil {
		return fmt.Errorf("write lat: %w", err)
	}
	if err := lonVar.WriteFloat64s(ds.Axes.Lon); err != nil {
		return fmt.Errorf("write lon: %w", err)
	}
	for _, name := range names {
		if err := dataVars[name].WriteFloat32s(ds.Vars[name].Data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func sortedKeys(a domain.Attrs) []string {
	return slices.Sorted(maps.Keys(a))
}

// writeAttrs stores string, float64 and int attributes; other types are skipped.
func writeAttrs(attr func(string) netcdf.Attr, attrs domain.Attrs) error {
	for _, k := range sortedKeys(attrs) {
		var err error
		switch v := attrs[k].(type) {
		case string:
			err = attr(k).WriteBytes([]byte(v))
		case float64:
			err = attr(k).WriteFloat64s([]float64{v})
		case int:
			err = attr(k).WriteInt32s([]int32{int32(v)})
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("attribute %s: %w", k, err)
		}
	}
	return nil
}

// Read loads <name>.nc back into a dataset.
func (s *Store) Read(name string) (*domain.Dataset, error) {
	path := s.Path(name)
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	lat, err := readFloat64s(nc, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := readFloat64s(nc, "lon")
	if err != nil {
		return nil, err
	}
	times, err := readTimes(nc)
	if err != nil {
		return nil, err
	}

	ds := domain.NewDataset(domain.Axes{Lat: lat, Lon: lon}, times)
	ds.Attrs = readAttrs(nc.Attr, domain.GlobalAttrKeys)

	list, ok := readString(nc.Attr(variablesAttr))
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q attribute", ErrNotDataset, path, variablesAttr)
	}
	shape := ds.Shape()
	for _, vname := range strings.Split(list, ",") {
		if vname == "" {
			continue
		}
		v, err := nc.Var(vname)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", vname, err)
		}
		g := domain.NewGrid(shape[0], shape[1], shape[2])
		if err := v.ReadFloat32s(g.Data); err != nil {
			return nil, fmt.Errorf("read %s: %w", vname, err)
		}
		if fill, ok := readFill(v); ok && !math.IsNaN(float64(fill)) {
			for i, x := range g.Data {
				if x == fill {
					g.Data[i] = domain.Missing
				}
			}
		}
		ds.Vars[vname] = g
		ds.VarAttrs[vname] = readAttrs(v.Attr, domain.VariableAttrKeys)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	s.logger.Info("dataset loaded", "path", path, "variables", len(ds.Vars), "shape", shape)
	return ds, nil
}

func readFloat64s(nc netcdf.Dataset, name string) ([]float64, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s: %v", ErrNotDataset, name, err)
	}
	n, err := varLen(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if err := v.ReadFloat64s(out); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

func readTimes(nc netcdf.Dataset) ([]time.Time, error) {
	v, err := nc.Var("time")
	if err != nil {
		return nil, fmt.Errorf("%w: missing time: %v", ErrNotDataset, err)
	}
	n, err := varLen(v)
	if err != nil {
		return nil, err
	}
	days := make([]int32, n)
	if err := v.ReadInt32s(days); err != nil {
		return nil, fmt.Errorf("read time: %w", err)
	}
	out := make([]time.Time, n)
	for i, d := range days {
		out[i] = epoch.AddDate(0, 0, int(d))
	}
	return out, nil
}

func varLen(v netcdf.Var) (int, error) {
	dims, err := v.Dims()
	if err != nil {
		return 0, fmt.Errorf("get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return 0, fmt.Errorf("%w: expected 1D coordinate, got %dD", ErrNotDataset, len(dims))
	}
	n, err := dims[0].Len()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func readFill(v netcdf.Var) (float32, bool) {
	a := v.Attr("_FillValue")
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf := make([]float32, 1)
	if err := a.ReadFloat32s(buf); err != nil {
		return 0, false
	}
	return buf[0], true
}

// readAttrs reads the listed attribute keys that are present.
func readAttrs(attr func(string) netcdf.Attr, keys []string) domain.Attrs {
	out := domain.Attrs{}
	for _, k := range keys {
		a := attr(k)
		t, err := a.Type()
		if err != nil {
			continue
		}
		switch t {
		case netcdf.CHAR:
			if s, ok := readString(a); ok {
				out[k] = s
			}
		case netcdf.DOUBLE:
			buf := make([]float64, 1)
			if a.ReadFloat64s(buf) == nil {
				out[k] = buf[0]
			}
		case netcdf.INT:
			buf := make([]int32, 1)
			if a.ReadInt32s(buf) == nil {
				out[k] = int(buf[0])
			}
		}
	}
	return out
}

func readString(a netcdf.Attr) (string, bool) {
	n, err := a.Len()
	if err != nil {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return string(buf), true
}
