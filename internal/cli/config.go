package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gridroute/gridroute/pkg/errors"
	"github.com/gridroute/gridroute/pkg/route"
)

// loadOptions reads router options from a TOML config file. An empty path
// yields zero options, which ValidateAndSetDefaults fills later; a path to a
// file that does not exist is a FILE_NOT_FOUND error. Flag overrides are
// applied by the caller.
//
// A config file looks like:
//
//	router_heap = "binary"
//	num_workers = 8
//	max_router_iterations = 60
//	initial_pres_fac = 0.5
//	pres_fac_mult = 1.3
//	route_bb_update = "dynamic"
func loadOptions(path string) (route.Options, error) {
	var opts route.Options
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return opts, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return opts, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0], path)
	}
	return opts, nil
}
