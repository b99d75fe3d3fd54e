package funcapp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

const (
	HostFileName     = "host.json"
	FunctionFileName = "function.json"

	extensionBundleID      = "Microsoft.Azure.Functions.ExtensionBundle"
	extensionBundleVersion = "[4.*, 5.0.0)"
)

// HostMetadata returns the host.json content for a script served by a custom handler
// executable started with the given arguments.
func HostMetadata(executable string, args ...string) servicedef.HostMetadata {
	return servicedef.HostMetadata{
		Version: "2.0",
		Logging: &servicedef.HostLogging{
			LogLevel: map[string]string{"default": "Information"},
		},
		CustomHandler: servicedef.CustomHandlerMetadata{
			Description: servicedef.CustomHandlerDescription{
				DefaultExecutablePath: executable,
				Arguments:             args,
			},
		},
		ExtensionBundle: &servicedef.ExtensionBundle{
			ID:      extensionBundleID,
			Version: extensionBundleVersion,
		},
	}
}

// WriteScriptDir writes host.json and one <function>/function.json per indexed function
// into dir, creating it if necessary. Function directories left over from a previous run
// that are no longer in the index are removed, so an empty index leaves only host.json.
func WriteScriptDir(dir string, index *Index, host servicedef.HostMetadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, HostFileName), host); err != nil {
		return err
	}
	keep := make(map[string]bool)
	for _, f := range index.Functions() {
		keep[f.Name] = true
		fdir := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(fdir, 0o755); err != nil {
			return err
		}
		if err := writeJSONFile(filepath.Join(fdir, FunctionFileName), f.Metadata()); err != nil {
			return err
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || keep[e.Name()] {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), FunctionFileName)); err == nil {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFunctionMetadata reads the function.json files of a script directory, keyed by
// function name.
func ReadFunctionMetadata(dir string) (map[string]servicedef.FunctionMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]servicedef.FunctionMetadata)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name(), FunctionFileName))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var m servicedef.FunctionMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid %s for %s: %w", FunctionFileName, e.Name(), err)
		}
		ret[e.Name()] = m
	}
	return ret, nil
}

func writeJSONFile(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
