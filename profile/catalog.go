package profile

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

// DefaultDocument is the file merged underneath every profile.
const DefaultDocument = "default.yml"

var (
	// ErrUnknownProfile is returned by Select for an id no document declares.
	ErrUnknownProfile = errors.ErrProfileNotFound
	// ErrInvalidDocument is returned for documents that cannot be used.
	ErrInvalidDocument = stderrors.New("invalid profile document")
)

type source struct {
	path string
	node *yaml.Node
}

// Catalog holds every loaded profile document. It is read-only once
// LoadFS returns.
type Catalog struct {
	defaults *yaml.Node
	sources  map[string]source
	logger   *slog.Logger
}

// LoadFS reads default.yml and every other *.yml or *.yaml file at the root
// of fsys. Documents without info.id are skipped.
func LoadFS(fsys fs.FS, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{
		sources: make(map[string]source),
		logger:  logger,
	}

	if data, err := fs.ReadFile(fsys, DefaultDocument); err == nil {
		node, err := parseMapping(data)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s: %v", ErrInvalidDocument, DefaultDocument, err),
				"Catalog", "LoadFS", "parse default document")
		}
		c.defaults = node
	} else if !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.WrapTransient(err, "Catalog", "LoadFS", "read default document")
	}

	files, err := documentFiles(fsys)
	if err != nil {
		return nil, errors.WrapTransient(err, "Catalog", "LoadFS", "list profile documents")
	}

	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.WrapTransient(err, "Catalog", "LoadFS", "read "+name)
		}
		node, err := parseMapping(data)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s: %v", ErrInvalidDocument, name, err),
				"Catalog", "LoadFS", "parse profile document")
		}

		id := profileID(node)
		if id == "" {
			logger.Debug("Skipping document without info.id", "file", name)
			continue
		}
		if prev, dup := c.sources[id]; dup {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: profile %q declared by %s and %s", ErrInvalidDocument, id, prev.path, name),
				"Catalog", "LoadFS", "register profile")
		}
		c.sources[id] = source{path: name, node: node}
	}

	logger.Debug("Loaded telegram profiles", "count", len(c.sources), "profiles", c.IDs())
	return c, nil
}

func documentFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == DefaultDocument {
			continue
		}
		if ext := path.Ext(e.Name()); ext == ".yml" || ext == ".yaml" {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// IDs returns the known profile identifiers in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.sources))
	for id := range c.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether id names a loaded profile.
func (c *Catalog) Has(id string) bool {
	_, ok := c.sources[id]
	return ok
}

// Select merges the default document under the profile called id and builds
// its match index. An unknown id is fatal and the error lists every known
// identifier.
func (c *Catalog) Select(id string) (*Profile, error) {
	src, ok := c.sources[id]
	if !ok {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %q, available profiles: %s", ErrUnknownProfile, id, strings.Join(c.IDs(), ", ")),
			"Catalog", "Select", "resolve profile")
	}

	var doc document
	if err := mergeTopLevel(c.defaults, src.node).Decode(&doc); err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %s: %v", ErrInvalidDocument, src.path, err),
			"Catalog", "Select", "decode profile")
	}

	p, err := doc.build(c.logger.With("profile", id))
	if err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %s: %v", ErrInvalidDocument, src.path, err),
			"Catalog", "Select", "build profile")
	}

	c.logger.Info("Selected telegram profile",
		"profile", id,
		"name", p.Info.Name,
		"definitions", len(p.Definitions),
		"transformations", len(p.Rules))
	return p, nil
}
