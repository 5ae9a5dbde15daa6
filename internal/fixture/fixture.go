// Package fixture loads module exports from JSON or YAML documents.
//
// A fixture looks like:
//
//	module: ./greeter
//	esModule: false
//	exports:
//	  greet: {$fn: greet, returns: "Hello, world!"}
//	  Greeter:
//	    $class: Greeter
//	    static: {greetStatic: {$fn: greetStatic, returns: "Hello from static method!"}}
//	    methods: {greet: "Hello from class method!"}
//	  config: {retries: 3, self: {$ref: config}}
//
// JSON documents are read with the same decoder, so key order is kept for
// both formats.
package fixture

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oxjest/mockgraph/runtime/modules"
	"github.com/oxjest/mockgraph/runtime/value"
)

var (
	// ErrInvalidFixture is returned for documents that do not describe a module.
	ErrInvalidFixture = errors.New("invalid fixture")
	// ErrUnresolvedRef is returned when a $ref names a node that was not built yet.
	ErrUnresolvedRef = errors.New("unresolved $ref")
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".json", ".yaml", ".yml"}

// Fixture is one loaded module.
type Fixture struct {
	Module   string
	ESModule bool
	Exports  value.Value
	// Path is the file the fixture came from, if any.
	Path string
	// Digest is the hex sha256 of the raw document.
	Digest string
}

type document struct {
	Module   string    `yaml:"module"`
	ESModule bool      `yaml:"esModule"`
	Exports  yaml.Node `yaml:"exports"`
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if doc.Module == "" {
		return nil, fmt.Errorf("%w: missing module specifier", ErrInvalidFixture)
	}
	if doc.Exports.Kind == 0 {
		return nil, fmt.Errorf("%w: %s has no exports", ErrInvalidFixture, doc.Module)
	}

	exports, err := newBuilder().exports(&doc.Exports, doc.ESModule)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", doc.Module, err)
	}

	sum := sha256.Sum256(data)
	return &Fixture{
		Module:   doc.Module,
		ESModule: doc.ESModule,
		Exports:  exports,
		Digest:   hex.EncodeToString(sum[:]),
	}, nil
}

// Load reads and parses the fixture at path.
func Load(path string) (*Fixture, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidFixture, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	fx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fx.Path = path
	return fx, nil
}

// LoadDir loads every fixture directly inside dir, sorted by file name.
func LoadDir(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	fixtures := make([]*Fixture, 0, len(names))
	for _, name := range names {
		fx, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}

// Supported reports whether path has a fixture extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Register installs the fixture's exports in reg.
func (f *Fixture) Register(reg *modules.Registry) {
	reg.RegisterVersion(f.Module, f.Exports, f.Digest)
}
