package main

import (
	"github.com/BurntSushi/toml"
	"github.com/gomlx/hostmesh/mesh"
	"github.com/gomlx/hostmesh/types/grids"
	"github.com/pkg/errors"
)

// fileConfig is the TOML layout accepted by --config. Example:
//
//	grid = [16, 8]
//	subgrid = [8, 4]
//	validate = true
//	debug = "none"
//	hosts = 4
type fileConfig struct {
	Grid     []int  `toml:"grid"`
	Subgrid  []int  `toml:"subgrid"`
	Validate *bool  `toml:"validate"`
	Debug    string `toml:"debug"`
	Hosts    int    `toml:"hosts"`
}

func loadConfigFile(path string) (fileConfig, error) {
	var file fileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fileConfig{}, errors.Wrapf(err, "reading config file %q", path)
	}
	return file, nil
}

// apply overlays the file's settings onto cfg and hosts. Settings absent from
// the file are left untouched.
func (f fileConfig) apply(cfg *mesh.Config, hosts *int) error {
	shape := func(dims []int, name string) (grids.Shape, error) {
		if len(dims) != 2 {
			return grids.Shape{}, errors.Errorf("config %s wants [x, y], got %v", name, dims)
		}
		if dims[0] <= 0 || dims[1] <= 0 {
			return grids.Shape{}, errors.Errorf("config %s dimensions must be positive, got %v", name, dims)
		}
		return grids.Make(dims[0], dims[1]), nil
	}
	if f.Grid != nil {
		grid, err := shape(f.Grid, "grid")
		if err != nil {
			return err
		}
		cfg.Grid = grid
	}
	if f.Subgrid != nil {
		sub, err := shape(f.Subgrid, "subgrid")
		if err != nil {
			return err
		}
		cfg.Subgrid = sub
	}
	if f.Validate != nil {
		cfg.Validate = *f.Validate
	}
	if f.Debug != "" {
		debug, err := mesh.ParseDebug(f.Debug)
		if err != nil {
			return err
		}
		cfg.Debug = debug
	}
	if f.Hosts != 0 {
		if f.Hosts < 0 {
			return errors.Errorf("config hosts must be positive, got %d", f.Hosts)
		}
		*hosts = f.Hosts
	}
	return nil
}
