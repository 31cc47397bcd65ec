package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LongLingMichael/renjin/common"
	"github.com/pelletier/go-toml"
)

// InitProject creates a new project file with the given name at the given
// path.  Every C and Fortran source already in the directory is added to the
// project.
func InitProject(name, path, plugin string) error {
	// convert the project directory to the path to the project file
	projFilePath := filepath.Join(path, common.ProjectFileName)

	// check to see if a project already exists
	_, err := os.Stat(projFilePath)
	if err == nil {
		return errors.New("project file already exists")
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("project file error: %w", err)
	}

	if !IsValidIdentifier(name) {
		return errors.New("project name must be a valid identifier")
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("unable to read project directory: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		if !entry.IsDir() && isSourceFile(entry.Name()) && !IsDumpSource(entry.Name()) {
			sources = append(sources, entry.Name())
		}
	}

	tpf := &tomlProjectFile{
		Project: &tomlProject{
			Name:    name,
			Version: common.BridgeVersion,
			Sources: sources,
			Output:  "out",
		},
		Profiles: []*tomlProfile{
			{Name: "debug", Default: true, Debug: true, Plugin: plugin},
			{Name: "release", Plugin: plugin},
		},
	}

	f, err := os.Create(projFilePath)
	if err != nil {
		return fmt.Errorf("error creating project file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(tpf); err != nil {
		return fmt.Errorf("error encoding TOML: %w", err)
	}

	return nil
}
