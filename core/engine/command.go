package engine

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Arg is one key=value pair of a command. Value may be a string, bool,
// integer, float, a slice of those, or a fmt.Stringer.
type Arg struct {
	Key   string
	Value any
}

// A is shorthand for building an Arg.
func A(key string, value any) Arg {
	return Arg{Key: key, Value: value}
}

// Command is a named engine command with ordered arguments.
type Command struct {
	Name string
	Args []Arg
}

// NewCommand builds a Command.
func NewCommand(name string, args ...Arg) Command {
	return Command{Name: name, Args: args}
}

// Encode renders the command in the engine's wire format:
//
//	command=<name>;key=value;key=v1,v2;
func (c Command) Encode() (string, error) {
	if err := checkToken("command name", c.Name); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("command=")
	sb.WriteString(c.Name)
	sb.WriteByte(';')

	for _, arg := range c.Args {
		if err := checkToken("argument key", arg.Key); err != nil {
			return "", err
		}
		value, err := FormatValue(arg.Value)
		if err != nil {
			return "", fmt.Errorf("argument %q: %w", arg.Key, err)
		}
		sb.WriteString(arg.Key)
		sb.WriteByte('=')
		sb.WriteString(value)
		sb.WriteByte(';')
	}
	return sb.String(), nil
}

// String returns the encoded command, or a marker if it does not encode.
func (c Command) String() string {
	s, err := c.Encode()
	if err != nil {
		return "<invalid " + c.Name + ">"
	}
	return s
}

// Get returns the value of the first argument named key.
func (c Command) Get(key string) (any, bool) {
	for _, arg := range c.Args {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return nil, false
}

func checkToken(what, s string) error {
	if s == "" {
		return invalidCommand("empty %s", what)
	}
	if strings.ContainsAny(s, ";=\x00") {
		return invalidCommand("%s %q contains a reserved character", what, s)
	}
	return nil
}

// FormatValue renders a single argument value. Lists are comma-joined and
// their elements may not contain commas.
func FormatValue(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		items := make([]string, rv.Len())
		for i := range items {
			s, err := formatScalar(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			if strings.Contains(s, ",") {
				return "", invalidCommand("list element %q contains a comma", s)
			}
			items[i] = s
		}
		return strings.Join(items, ","), nil
	}
	return formatScalar(v)
}

func formatScalar(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	case bool:
		if x {
			s = "1"
		} else {
			s = "0"
		}
	case int:
		s = strconv.Itoa(x)
	case int8, int16, int32, int64:
		s = strconv.FormatInt(reflect.ValueOf(x).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		s = strconv.FormatUint(reflect.ValueOf(x).Uint(), 10)
	case float32:
		s = strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		s = strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", invalidCommand("unsupported value type %T", v)
	}
	if strings.ContainsAny(s, ";\x00") {
		return "", invalidCommand("value %q contains a reserved character", s)
	}
	return s, nil
}

// ParseCommand splits a raw wire command into name and string arguments.
// The first segment must be command=<name>.
func ParseCommand(raw string) (Command, error) {
	var cmd Command
	for i, seg := range strings.Split(raw, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, value, found := strings.Cut(seg, "=")
		key = strings.TrimSpace(key)
		if cmd.Name == "" {
			if !found || !strings.EqualFold(key, "command") || strings.TrimSpace(value) == "" {
				return Command{}, invalidCommand("segment %d: expected command=<name>, got %q", i, seg)
			}
			cmd.Name = strings.TrimSpace(value)
			continue
		}
		if !found || key == "" {
			return Command{}, invalidCommand("segment %d: expected key=value, got %q", i, seg)
		}
		cmd.Args = append(cmd.Args, Arg{Key: key, Value: value})
	}
	if cmd.Name == "" {
		return Command{}, invalidCommand("no command name in %q", raw)
	}
	return cmd, nil
}
