// Package job loads YAML job files describing one Fabric binary invocation
// and turns them into configured builders.
package job

import (
	"context"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
)

// ErrUnknownBinary is returned for a binary no builder exists for.
var ErrUnknownBinary = errors.New("unknown binary")

// ErrUnknownCommand is returned for a subcommand the binary does not have.
var ErrUnknownCommand = errors.New("unknown command")

// ErrUnknownGroup is returned for an option group the binary does not have.
var ErrUnknownGroup = errors.New("unknown option group")

// ErrUnknownOption is returned for a key inside an option group that the
// group does not have.
var ErrUnknownOption = errors.New("unknown option")

// Job is one invocation described in YAML.
type Job struct {
	Binary  string            `yaml:"binary"`
	Command string            `yaml:"command"`
	Dir     string            `yaml:"dir"`
	Env     map[string]string `yaml:"env"`

	// Options maps option group names to their fields. Groups are applied
	// in file order.
	Options yaml.Node `yaml:"options"`
}

// Builder is the part of a binary builder a job needs.
type Builder interface {
	Build() string
	Args() []string
	Invocation() process.Invocation
	Execute(ctx context.Context) (*process.Process, error)
}

// Load reads and parses a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read job file")
	}
	j, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "job file %s", path)
	}
	return j, nil
}

// Parse parses a job document and checks the binary and command names.
func Parse(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(err, "parse yaml")
	}
	if j.Binary == "" {
		return nil, errors.New("binary is required")
	}
	f, ok := factories[j.Binary]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBinary, "%q", j.Binary)
	}
	if j.Command != "" && !slices.Contains(f.commands, j.Command) {
		return nil, errors.Wrapf(ErrUnknownCommand, "%s %q", j.Binary, j.Command)
	}
	if j.Options.Kind != 0 && j.Options.Kind != yaml.MappingNode {
		return nil, errors.Errorf("options must be a mapping, line %d", j.Options.Line)
	}
	return &j, nil
}

// group is one named option group from the options mapping.
type group struct {
	name string
	node *yaml.Node
}

// groups returns the option groups in document order.
func (j *Job) groups() []group {
	if j.Options.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]group, 0, len(j.Options.Content)/2)
	for i := 0; i+1 < len(j.Options.Content); i += 2 {
		out = append(out, group{name: j.Options.Content[i].Value, node: j.Options.Content[i+1]})
	}
	return out
}

// envKeys returns the env keys sorted, so the environment is stable.
func (j *Job) envKeys() []string {
	keys := make([]string, 0, len(j.Env))
	for k := range j.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builder returns a builder for the job's binary with the command selected
// and every option group applied. Groups go through the builder setters, so
// a group the command does not accept fails with
// command.ErrUnsupportedCommand.
func (j *Job) Builder(opts ...command.Option) (Builder, error) {
	f, ok := factories[j.Binary]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBinary, "%q", j.Binary)
	}
	b, err := f.build(j, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", j.Binary, j.Command)
	}
	return b, nil
}

// configure applies the parts every builder shares.
func configure[C ~string](b *command.Builder[C], j *Job) {
	if j.Command != "" {
		b.SetCommand(C(j.Command))
	}
	if j.Dir != "" {
		b.SetDir(j.Dir)
	}
	for _, k := range j.envKeys() {
		b.SetEnv(k, j.Env[k])
	}
}

// setters maps option group names to functions decoding and applying them.
type setters map[string]func(*yaml.Node) error

func (s setters) apply(j *Job) error {
	for _, g := range j.groups() {
		set, ok := s[g.name]
		if !ok {
			return errors.Wrapf(ErrUnknownGroup, "%q", g.name)
		}
		if err := set(g.node); err != nil {
			return errors.Wrapf(err, "options.%s", g.name)
		}
	}
	return nil
}

// decode unmarshals node into a fresh T and passes it to set. Keys that
// match no yaml tag of T are rejected.
func decode[T any](set func(*T) error) func(*yaml.Node) error {
	return func(node *yaml.Node) error {
		v := new(T)
		if err := checkKeys(node, reflect.TypeOf(v).Elem()); err != nil {
			return err
		}
		if err := node.Decode(v); err != nil {
			return errors.Wrap(err, "decode")
		}
		return set(v)
	}
}

// checkKeys compares the keys of a mapping node with the yaml names of the
// fields of struct type t.
func checkKeys(node *yaml.Node, t reflect.Type) error {
	if node.Kind != yaml.MappingNode || t.Kind() != reflect.Struct {
		return nil
	}
	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = strings.ToLower(f.Name)
		}
		known[name] = true
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !known[key.Value] {
			return errors.Wrapf(ErrUnknownOption, "%q (line %d)", key.Value, key.Line)
		}
	}
	return nil
}
