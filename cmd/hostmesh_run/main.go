// hostmesh_run opens a host mesh of the given dimensions, runs a small
// symmetric workload against it (a mock fabric multicast stress test) and
// tears it down.
//
// Usage: hostmesh_run [flags] <grid_x> <grid_y> <subgrid_x> <subgrid_y>
//
// All four dimensions must be powers of two and the sub-grid must evenly
// divide the grid. The coordination group's world size must equal
// (grid_x/subgrid_x)*(grid_y/subgrid_y), or the whole group aborts with a
// non-zero status.
//
// By default the program runs as a single member on the registered
// coordinator; --hosts N runs N SPMD members as goroutines of this process
// on the in-process fabric.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/gomlx/hostmesh/coordinator"
	"github.com/gomlx/hostmesh/coordinator/inprocess"
	_ "github.com/gomlx/hostmesh/coordinator/single"
	"github.com/gomlx/hostmesh/mesh"
	"github.com/gomlx/hostmesh/types/grids"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagValidate = flag.Bool("validate", true,
		"Enable the collective consistency checks run on every global descriptor construction.")
	flagDebug = flag.String("debug", "none",
		"Debug print policy: \"none\", \"all\" or a non-negative rank id.")
	flagConfig = flag.String("config", "",
		"Optional TOML file with grid/subgrid/validate/debug/hosts settings. "+
			"Positional arguments and explicitly set flags take precedence over the file.")
	flagHosts = flag.Int("hosts", 1,
		"Number of SPMD members to run as goroutines on the in-process fabric. "+
			"With 1 the program runs as a single member of the default coordinator.")
)

func usage() {
	_, _ = fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [flags] <grid_x> <grid_y> <subgrid_x> <subgrid_y>\n"+
			"  grid_x, grid_y: overall grid dimensions (must be powers of 2)\n"+
			"  subgrid_x, subgrid_y: per-host sub-grid dimensions (must be powers of 2\n"+
			"  and evenly divide the grid dimensions)\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	cfg, hosts, err := buildConfig(flag.Args())
	if err != nil {
		klog.Errorf("%v", err)
		usage()
		os.Exit(1)
	}

	if hosts > 1 {
		runFabric(cfg, hosts)
		return
	}

	coord := must.M1(coordinator.New())
	if err := run(cfg, coord); err != nil {
		// Config and divergence errors are group-fatal: report once and
		// take the whole group down, or survivors would desync on their
		// next collective.
		if coord.Rank() == 0 {
			klog.Errorf("rank 0: %+v", err)
		}
		abort(coord, 1)
	}
}

// runFabric drives N SPMD members over the in-process fabric, one goroutine
// per member.
func runFabric(cfg mesh.Config, hosts int) {
	fabric := must.M1(inprocess.NewFabric(hosts))
	errs := make([]error, hosts)
	var wg sync.WaitGroup
	for _, member := range fabric.Members() {
		wg.Add(1)
		go func(m *inprocess.Member) {
			defer wg.Done()
			errs[m.Rank()] = run(cfg, m)
		}(member)
	}
	wg.Wait()
	for rank, err := range errs {
		if err != nil {
			klog.Errorf("rank %d: %+v", rank, err)
			os.Exit(1)
		}
	}
}

// run is the symmetric per-member program: every member executes exactly the
// same sequence of calls, diverging only through rank-derived data.
func run(cfg mesh.Config, coord coordinator.Coordinator) error {
	m, err := mesh.Open(cfg, coord)
	if err != nil {
		return err
	}
	defer m.Close()

	if printsLayout(cfg.Debug, m.Rank()) {
		fmt.Println(systemSummary(m))
		fmt.Println(layoutTable(m.GridShape(), m.SubgridShape()))
	}

	// Mock fabric multicast stress test: all members build identical
	// buffers and an identical one-word workload.
	testShape := grids.Make(1024, 1024)
	inBuf, err := m.Allocate(testShape)
	if err != nil {
		return err
	}
	outBuf, err := m.AllocateOn(testShape, m.GridShape())
	if err != nil {
		return err
	}

	const testPattern = uint64(0xCAFEBABE)
	cmd := testPattern<<32 | uint64(inBuf.Bytes()+outBuf.Bytes())&0xFFFFFFFF
	wl, err := m.NewWorkload([]uint64{cmd}, m.GridShape())
	if err != nil {
		return err
	}

	m.Dispatch().Push(wl)
	m.FlushPending()
	m.Wait()
	return nil
}

// printsLayout designates the single rank that prints the global summary:
// rank 0 when every rank debugs, the target rank when one does.
func printsLayout(d mesh.Debug, rank int) bool {
	switch d.Mode {
	case mesh.DebugAll:
		return rank == 0
	case mesh.DebugRank:
		return rank == d.Target
	default:
		return false
	}
}

func abort(coord coordinator.Coordinator, code int) {
	if aborter, ok := coord.(coordinator.Aborter); ok {
		aborter.Abort(code)
	}
	os.Exit(code)
}

// buildConfig merges, in order of increasing precedence: defaults, the
// optional TOML config file, explicitly set flags, and the positional
// dimension arguments.
func buildConfig(args []string) (cfg mesh.Config, hosts int, err error) {
	cfg.Validate = *flagValidate
	cfg.Debug, err = mesh.ParseDebug(*flagDebug)
	if err != nil {
		return cfg, 0, err
	}
	hosts = *flagHosts

	if *flagConfig != "" {
		file, err := loadConfigFile(*flagConfig)
		if err != nil {
			return cfg, 0, err
		}
		if err := file.apply(&cfg, &hosts); err != nil {
			return cfg, 0, err
		}
		// Explicitly set flags win over the file.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "validate":
				cfg.Validate = *flagValidate
			case "debug":
				cfg.Debug = must.M1(mesh.ParseDebug(*flagDebug))
			case "hosts":
				hosts = *flagHosts
			}
		})
	}

	if len(args) != 0 && len(args) != 4 {
		return cfg, 0, errors.Errorf("want exactly 4 positional dimension arguments, got %d", len(args))
	}
	if len(args) == 4 {
		dims := make([]int, 4)
		for i, arg := range args {
			dims[i], err = strconv.Atoi(arg)
			if err != nil {
				return cfg, 0, errors.Wrapf(err, "dimension argument %q", arg)
			}
			if dims[i] <= 0 {
				return cfg, 0, errors.Errorf("dimension argument %q must be positive", arg)
			}
		}
		cfg.Grid = grids.Make(dims[0], dims[1])
		cfg.Subgrid = grids.Make(dims[2], dims[3])
	}
	if !cfg.Grid.Ok() || !cfg.Subgrid.Ok() {
		return cfg, 0, errors.New("grid and sub-grid dimensions are required (positional arguments or --config file)")
	}
	if hosts <= 0 {
		return cfg, 0, errors.Errorf("--hosts must be positive, got %d", hosts)
	}
	return cfg, hosts, nil
}
