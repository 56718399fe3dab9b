// Package config provides the rules file loader for tend.
package config

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"path/filepath"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only rules file version understood by the loader.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	// FS is the filesystem the rules file is read from. Nil means the OS filesystem.
	FS FileSystem
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

func (l *Loader) fs() FileSystem {
	if l.FS == nil {
		return NewOSFS()
	}
	return l.FS
}

// Load finds the rules file by walking up from cwd and returns its rules.
func (l *Loader) Load(cwd string) ([]domain.RuleSpec, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(configPath)
}

// LoadFile reads the rules file at path.
func (l *Loader) LoadFile(path string) ([]domain.RuleSpec, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var tendfile Tendfile
	if err := l.readAndUnmarshalYAML(abs, &tendfile); err != nil {
		return nil, zerr.With(err, "path", abs)
	}

	if tendfile.Version != "" && tendfile.Version != SupportedVersion {
		l.Logger.Warn("unsupported rules file version, reading it as version "+SupportedVersion,
			"version", tendfile.Version, "path", abs)
	}

	return l.buildRules(&tendfile, resolveRoot(abs, tendfile.Root))
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir := cwd

	for {
		for _, name := range []string{domain.ConfigFileName, domain.ConfigFileNameAlt} {
			candidate := filepath.Join(currentDir, name)
			if info, err := l.fs().Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) buildRules(tendfile *Tendfile, root string) ([]domain.RuleSpec, error) {
	specs := make([]domain.RuleSpec, 0, len(tendfile.Rules))
	names := make(map[string]int)

	for i := range tendfile.Rules {
		dto := &tendfile.Rules[i]

		if dto.Name != "" {
			if first, exists := names[dto.Name]; exists {
				err := zerr.With(domain.ErrDuplicateRuleName, "rule", dto.Name)
				err = zerr.With(err, "first_occurrence", first)
				return nil, zerr.With(err, "duplicate_at", i)
			}
			names[dto.Name] = i
		}

		spec, err := buildRule(dto, &tendfile.Defaults, tendfile.Env, root)
		if err != nil {
			return nil, zerr.With(err, "index", i)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// buildRule layers the rule options over the defaults section over the
// built-in defaults and validates the result.
func buildRule(dto *RuleDTO, defaults *OptionsDTO, env map[string]string, root string) (domain.RuleSpec, error) {
	mode, err := domain.ParseMode(dto.Mode)
	if err != nil {
		return domain.RuleSpec{}, zerr.With(err, "rule", dto.Name)
	}

	spec := domain.NewRuleSpec(mode, []string(dto.Patterns), domain.TemplateCommand(dto.Cmd))
	spec.Name = dto.Name
	spec.Dir = resolveDir(root, dto.Dir)
	spec.Env = mergeEnv(env, dto.Env)

	if err := defaults.apply(&spec.Policy); err != nil {
		return domain.RuleSpec{}, zerr.With(err, "section", "defaults")
	}
	if err := dto.apply(&spec.Policy); err != nil {
		return domain.RuleSpec{}, zerr.With(err, "rule", dto.Name)
	}

	if err := spec.Validate(); err != nil {
		return domain.RuleSpec{}, err
	}
	return spec, nil
}

// readAndUnmarshalYAML reads a YAML file and strictly decodes it into target.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *Tendfile) error {
	configFile, err := l.fs().ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// resolveDir resolves a rule directory against the root. An empty dir is the root itself.
func resolveDir(root, dir string) string {
	switch {
	case dir == "":
		return root
	case filepath.IsAbs(dir):
		return filepath.Clean(dir)
	default:
		return filepath.Clean(filepath.Join(root, dir))
	}
}

// mergeEnv creates a new map with the file env as base, rule env overriding.
func mergeEnv(fileEnv, ruleEnv map[string]string) map[string]string {
	if len(fileEnv) == 0 && len(ruleEnv) == 0 {
		return nil
	}
	result := make(map[string]string, len(fileEnv)+len(ruleEnv))
	maps.Copy(result, fileEnv)
	maps.Copy(result, ruleEnv)
	return result
}
