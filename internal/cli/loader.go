package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/retracehq/retrace/internal/compiler"
	"github.com/retracehq/retrace/internal/component"
)

// FindScenarioFiles returns the scenario YAML files under dir, sorted.
// An optional glob filter matches against the base filename.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FindCUEFiles returns the CUE files under dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories like .git and editor caches.
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// LoadDeclarations compiles every CUE component declaration under dir.
// Returns ExitCommandError-coded errors for path problems and the
// compiler's positioned errors for bad declarations.
func LoadDeclarations(dir string) ([]*component.Declaration, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("declarations directory not found: %s", dir))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error accessing declarations directory", err)
	}
	if !info.IsDir() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", dir))
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error scanning directory", err)
	}
	if len(cueFiles) == 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("no CUE files found in %s", dir))
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, NewExitError(ExitCommandError, "no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, WrapExitError(ExitFailure, "loading CUE files", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, WrapExitError(ExitFailure, "building CUE value", err)
	}

	decls, err := compiler.CompileDeclarations(value)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "compiling declarations", err)
	}
	return decls, nil
}
