package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
	"github.com/LongLingMichael/renjin/translate"
	"github.com/pelletier/go-toml"
	"golang.org/x/mod/semver"
)

// tomlProjectFile represents the project file as it is encoded in TOML
type tomlProjectFile struct {
	Project   *tomlProject    `toml:"project"`
	Profiles  []*tomlProfile  `toml:"profiles"`
	Externals []*tomlExternal `toml:"externals,omitempty"`
	Fields    []*tomlField    `toml:"fields,omitempty"`
}

// tomlProject represents the project table
type tomlProject struct {
	Name              string   `toml:"name"`
	Class             string   `toml:"class,omitempty"`
	Version           string   `toml:"gccbridge-version"`
	Sources           []string `toml:"sources"`
	Output            string   `toml:"output,omitempty"`
	DefaultConvention string   `toml:"default-convention,omitempty"`
}

// tomlProfile represents a profile as it encoded in TOML
type tomlProfile struct {
	Name        string   `toml:"name"`
	Default     bool     `toml:"default"`
	Debug       bool     `toml:"debug"`
	IncludeDirs []string `toml:"include-dirs,omitempty"`
	Flags       []string `toml:"flags,omitempty"`
	Plugin      string   `toml:"plugin"`
	Gcc         string   `toml:"gcc,omitempty"`
}

// tomlExternal represents an external method: a native symbol implemented by
// a static method of an existing class
type tomlExternal struct {
	Name       string   `toml:"name"`
	Class      string   `toml:"class"`
	Method     string   `toml:"method,omitempty"`
	Returns    string   `toml:"returns"`
	Params     []string `toml:"params"`
	Convention string   `toml:"convention,omitempty"`
}

// tomlField represents an external static field standing in for a native
// global variable
type tomlField struct {
	Name  string `toml:"name"`
	Class string `toml:"class"`
	Field string `toml:"field,omitempty"`
	Type  string `toml:"type"`
}

// LoadProject loads and validates the project in the directory at path.
// selectedProfile is the name of the profile to build with: if it is empty, the
// default profile is used.
func LoadProject(path, selectedProfile string) (*Project, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	buff, err := os.ReadFile(filepath.Join(root, common.ProjectFileName))
	if err != nil {
		return nil, fmt.Errorf("unable to open project file: %w", err)
	}

	tpf := &tomlProjectFile{}
	if err := toml.Unmarshal(buff, tpf); err != nil {
		return nil, fmt.Errorf("error parsing project file at `%s`: %w", root, err)
	}

	if tpf.Project == nil {
		return nil, fmt.Errorf("project file at `%s` has no [project] table", root)
	}

	proj := &Project{Root: root}
	if err := validateProject(proj, tpf.Project); err != nil {
		return nil, err
	}

	if proj.Profile, err = selectProfile(proj, tpf.Profiles, selectedProfile); err != nil {
		return nil, err
	}

	if proj.Methods, err = buildMethodTable(tpf.Externals, tpf.Fields); err != nil {
		return nil, fmt.Errorf("in project `%s`: %w", proj.Name, err)
	}

	return proj, nil
}

// validateProject checks that the project table is valid and moves its
// contents over to the project.
func validateProject(proj *Project, tp *tomlProject) error {
	if tp.Name == "" {
		return fmt.Errorf("missing project name for project at %s", proj.Root)
	}

	if !IsValidIdentifier(tp.Name) {
		return errors.New("project name must be a valid identifier")
	}

	proj.Name = tp.Name

	proj.ClassName = tp.Class
	if proj.ClassName == "" {
		proj.ClassName = tp.Name
	}

	if !IsValidClassName(proj.ClassName) {
		return fmt.Errorf("`%s` is not a valid class name", proj.ClassName)
	}

	if err := checkVersion(tp.Name, tp.Version); err != nil {
		return err
	}

	if len(tp.Sources) == 0 {
		return fmt.Errorf("project `%s` has no sources", tp.Name)
	}

	for _, src := range tp.Sources {
		if !isSourceFile(src) {
			return fmt.Errorf("source `%s` of project `%s` is neither C, Fortran nor a GIMPLE dump", src, tp.Name)
		}

		proj.Sources = append(proj.Sources, proj.resolvePath(src))
	}

	if tp.Output == "" {
		proj.OutputDir = filepath.Join(proj.Root, "out")
	} else {
		proj.OutputDir = proj.resolvePath(tp.Output)
	}

	if tp.DefaultConvention != "" {
		conv, ok := translate.ConventionNamed(tp.DefaultConvention)
		if !ok {
			return fmt.Errorf("unknown calling convention `%s`", tp.DefaultConvention)
		}

		proj.DefaultConvention = conv
	}

	return nil
}

// checkVersion validates the gccbridge version a project was written for.  A
// project written for a different release is still built but a warning is
// reported.
func checkVersion(name, version string) error {
	if version == "" {
		return fmt.Errorf("project `%s` does not specify a gccbridge version", name)
	}

	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid gccbridge version `%s` in project `%s`", version, name)
	}

	current := "v" + common.BridgeVersion
	if semver.MajorMinor(v) != semver.MajorMinor(current) {
		report.ReportWarning("project", "version of project `%s` (%s) does not match current gccbridge version (%s)",
			name, v, current)
	}

	return nil
}

// selectProfile selects the named profile or the default profile if no name is
// given.  A project with a single profile uses it by default.  A project with
// no profiles can only build GIMPLE dumps.
func selectProfile(proj *Project, profiles []*tomlProfile, selected string) (*Profile, error) {
	if selected != "" {
		for _, prof := range profiles {
			if prof.Name == selected {
				return proj.convertProfile(prof), nil
			}
		}

		return nil, fmt.Errorf("project `%s` has no profile `%s`", proj.Name, selected)
	}

	switch len(profiles) {
	case 0:
		for _, src := range proj.Sources {
			if !IsDumpSource(src) {
				return nil, fmt.Errorf("project `%s` must provide at least one build profile", proj.Name)
			}
		}

		return &Profile{Name: "default"}, nil
	case 1:
		return proj.convertProfile(profiles[0]), nil
	}

	var defaultProf *tomlProfile
	for _, prof := range profiles {
		if prof.Default {
			if defaultProf != nil {
				return nil, fmt.Errorf("project `%s` specifies multiple default profiles", proj.Name)
			}

			defaultProf = prof
		}
	}

	if defaultProf == nil {
		return nil, fmt.Errorf("project `%s` does not specify a default profile; `--profile` argument is required", proj.Name)
	}

	return proj.convertProfile(defaultProf), nil
}

// convertProfile converts a TOML profile into a profile with absolute paths.
func (proj *Project) convertProfile(tp *tomlProfile) *Profile {
	prof := &Profile{
		Name:    tp.Name,
		Debug:   tp.Debug,
		Flags:   tp.Flags,
		GccPath: tp.Gcc,
	}

	if tp.Plugin != "" {
		prof.PluginLibrary = proj.resolvePath(tp.Plugin)
	}

	for _, dir := range tp.IncludeDirs {
		prof.IncludeDirs = append(prof.IncludeDirs, proj.resolvePath(dir))
	}

	return prof
}

// resolvePath converts a path relative to the project root into an absolute
// path.
func (proj *Project) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(proj.Root, path)
}

func isSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, se := range sourceExts {
		if ext == se {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// buildMethodTable creates the external method table of the project.
func buildMethodTable(externals []*tomlExternal, fields []*tomlField) (*translate.MethodTable, error) {
	mt := translate.NewMethodTable()

	for _, ext := range externals {
		if ext.Name == "" || ext.Class == "" {
			return nil, errors.New("external methods must specify a name and a class")
		}

		ref := &jimple.MethodRef{Class: ext.Class, Name: ext.Method}
		if ref.Name == "" {
			ref.Name = ext.Name
		}

		var err error
		if ref.Return, err = parseType(ext.Returns, "void"); err != nil {
			return nil, fmt.Errorf("return type of external `%s`: %w", ext.Name, err)
		}

		for _, p := range ext.Params {
			pt, err := parseType(p, "")
			if err != nil {
				return nil, fmt.Errorf("parameter of external `%s`: %w", ext.Name, err)
			}

			ref.Params = append(ref.Params, pt)
		}

		var conv translate.CallingConvention
		if ext.Convention != "" {
			var ok bool
			if conv, ok = translate.ConventionNamed(ext.Convention); !ok {
				return nil, fmt.Errorf("unknown calling convention `%s` of external `%s`", ext.Convention, ext.Name)
			}
		}

		mt.AddMethod(ext.Name, ref, conv)
	}

	for _, f := range fields {
		if f.Name == "" || f.Class == "" {
			return nil, errors.New("external fields must specify a name and a class")
		}

		t, err := parseType(f.Type, "")
		if err != nil {
			return nil, fmt.Errorf("type of external field `%s`: %w", f.Name, err)
		}

		ref := &jimple.FieldRef{Class: f.Class, Name: f.Field, T: t}
		if ref.Name == "" {
			ref.Name = f.Name
		}

		mt.AddField(f.Name, ref)
	}

	return mt, nil
}

// parseType parses a type spelling, using def for an empty spelling.
func parseType(s, def string) (jimple.Type, error) {
	if strings.TrimSpace(s) == "" {
		if def == "" {
			return nil, errors.New("missing type")
		}

		s = def
	}

	t, err := jimple.ParseType(s)
	if err != nil {
		return nil, err
	}

	if t == jimple.Void && def == "" {
		return nil, errors.New("`void` is only valid as a return type")
	}

	return t, nil
}
