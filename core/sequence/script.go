package sequence

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"smpctl/core/audio"
	"smpctl/core/engine"
	"smpctl/logger"
)

type scriptFile struct {
	Name        string     `yaml:"name"`
	StopOnError bool       `yaml:"stop_on_error"`
	Steps       []stepFile `yaml:"steps"`
	Finally     []stepFile `yaml:"finally"`
}

type stepFile struct {
	Name    string    `yaml:"name"`
	Raw     string    `yaml:"raw"`
	Command string    `yaml:"command"`
	Args    yaml.Node `yaml:"args"`
}

// LoadScript reads a YAML script from disk.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes a YAML script. Argument mappings keep the order they
// are written in, since the engine reads arguments left to right.
func ParseScript(data []byte) (Script, error) {
	var f scriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Script{}, fmt.Errorf("invalid script: %w", err)
	}
	if len(f.Steps) == 0 {
		return Script{}, errors.New("invalid script: no steps")
	}

	s := Script{Name: f.Name, StopOnError: f.StopOnError}
	var err error
	if s.Steps, err = convertSteps("steps", f.Steps); err != nil {
		return Script{}, err
	}
	if s.Finally, err = convertSteps("finally", f.Finally); err != nil {
		return Script{}, err
	}
	return s, nil
}

func convertSteps(section string, in []stepFile) ([]Step, error) {
	out := make([]Step, 0, len(in))
	for i, sf := range in {
		step, err := sf.step()
		if err != nil {
			return nil, fmt.Errorf("invalid script: %s[%d]: %w", section, i, err)
		}
		out = append(out, step)
	}
	return out, nil
}

func (sf stepFile) step() (Step, error) {
	step := Step{Name: sf.Name, Raw: strings.TrimSpace(sf.Raw), Command: strings.TrimSpace(sf.Command)}

	switch {
	case step.Raw != "" && step.Command != "":
		return Step{}, errors.New("raw and command are mutually exclusive")
	case step.Raw != "":
		if sf.Args.Kind != 0 {
			return Step{}, errors.New("raw steps take no args")
		}
		if _, err := engine.ParseCommand(step.Raw); err != nil {
			return Step{}, err
		}
		return step, nil
	case step.Command == "":
		return Step{}, errors.New("step needs raw or command")
	}

	args, err := argsFromNode(&sf.Args)
	if err != nil {
		return Step{}, err
	}
	step.Args = args
	if _, err := step.Encode(); err != nil {
		return Step{}, err
	}
	return step, nil
}

func argsFromNode(n *yaml.Node) ([]engine.Arg, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: args must be a mapping", n.Line)
	}

	args := make([]engine.Arg, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		v, err := argValue(val)
		if err != nil {
			return nil, fmt.Errorf("line %d: arg %q: %w", val.Line, key.Value, err)
		}
		args = append(args, engine.A(key.Value, v))
	}
	return args, nil
}

func argValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n), nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return nil, errors.New("lists may only hold scalars")
			}
			items = append(items, scalar(c))
		}
		return items, nil
	case yaml.AliasNode:
		return argValue(n.Alias)
	default:
		return nil, errors.New("nested mappings are not supported")
	}
}

// scalar keeps numbers as written and maps YAML booleans to 1/0.
func scalar(n *yaml.Node) string {
	switch n.Tag {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			if b {
				return "1"
			}
			return "0"
		}
	case "!!null":
		return ""
	}
	return n.Value
}

// Warning is a pre-flight finding that does not stop a script.
type Warning struct {
	Step     string
	Filename string
	Err      error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %v", w.Step, w.Filename, w.Err)
}

// Preflight probes the local audio files referenced by loadfile steps.
// Files that do not exist locally are skipped; the engine may resolve
// them relative to its own directory.
func Preflight(s Script, reg *audio.Registry) []Warning {
	var warnings []Warning
	for _, step := range append(append([]Step{}, s.Steps...), s.Finally...) {
		filename, ok := loadfileName(step)
		if !ok {
			continue
		}
		st, err := os.Stat(filename)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		info, err := reg.ProbeFile(filename)
		if err != nil {
			warnings = append(warnings, Warning{Step: step.Label(), Filename: filename, Err: err})
			logger.Warn("audio file failed pre-flight probe",
				logger.String("file", filename),
				logger.ErrorField(err))
			continue
		}
		logger.Info("audio file probed",
			logger.String("file", filename),
			logger.Int("sample_rate", info.SampleRate),
			logger.Int("channels", info.Channels),
			logger.Duration("duration", info.Duration))
	}
	return warnings
}

func loadfileName(step Step) (string, bool) {
	cmd := engine.Command{Name: step.Command, Args: step.Args}
	if step.Raw != "" {
		parsed, err := engine.ParseCommand(step.Raw)
		if err != nil {
			return "", false
		}
		cmd = parsed
	}
	if !strings.EqualFold(cmd.Name, "loadfile") {
		return "", false
	}
	v, ok := cmd.Get("filename")
	if !ok {
		return "", false
	}
	name, err := engine.FormatValue(v)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}
