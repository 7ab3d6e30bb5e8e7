package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gridroute/gridroute/pkg/errors"
	"github.com/gridroute/gridroute/pkg/route"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "router.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOptions(t *testing.T) {
	path := writeConfig(t, `
router_heap = "bucket"
num_workers = 8
max_router_iterations = 60
pres_fac_mult = 1.5
route_bb_update = "static"
`)

	opts, err := loadOptions(path)
	if err != nil {
		t.Fatalf("loadOptions: %v", err)
	}
	if opts.RouterHeap != route.BucketHeap {
		t.Errorf("RouterHeap = %q, want bucket", opts.RouterHeap)
	}
	if opts.NumWorkers != 8 {
		t.Errorf("NumWorkers = %d, want 8", opts.NumWorkers)
	}
	if opts.MaxRouterIterations != 60 {
		t.Errorf("MaxRouterIterations = %d, want 60", opts.MaxRouterIterations)
	}
	if opts.PresFacMult != 1.5 {
		t.Errorf("PresFacMult = %v, want 1.5", opts.PresFacMult)
	}
	if opts.RouteBBUpdate != route.BBStatic {
		t.Errorf("RouteBBUpdate = %q, want static", opts.RouteBBUpdate)
	}
}

func TestLoadOptions_EmptyPath(t *testing.T) {
	opts, err := loadOptions("")
	if err != nil {
		t.Fatalf("loadOptions(\"\"): %v", err)
	}
	if opts.NumWorkers != 0 {
		t.Error("empty path should yield zero options for later defaulting")
	}
}

func TestLoadOptions_UnknownKey(t *testing.T) {
	path := writeConfig(t, `router_heap = "binary"
turbo_mode = true
`)
	_, err := loadOptions(path)
	if err == nil {
		t.Fatal("loadOptions accepted an unknown key")
	}
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error code = %v, want INVALID_CONFIG", errors.GetCode(err))
	}
}

func TestLoadOptions_MissingFile(t *testing.T) {
	_, err := loadOptions(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}
