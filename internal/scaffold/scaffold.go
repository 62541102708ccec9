package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"stackprobe/internal/config"
	"stackprobe/pkg/logging"
)

//go:embed templates/*
var builtinTemplates embed.FS

// TemplateSet is a collection of templates rendered into every new endpoint.
type TemplateSet struct {
	FS    fs.FS
	Names []string
}

// DefaultTemplates returns the built-in endpoint templates.
func DefaultTemplates() TemplateSet {
	sub, err := fs.Sub(builtinTemplates, "templates")
	if err != nil {
		// The embedded tree is fixed at build time.
		panic(err)
	}
	names, err := listTemplates(sub)
	if err != nil {
		panic(err)
	}
	return TemplateSet{FS: sub, Names: names}
}

// LoadTemplates returns every regular file in dir as a template set.
func LoadTemplates(dir string) (TemplateSet, error) {
	fsys := os.DirFS(dir)
	names, err := listTemplates(fsys)
	if err != nil {
		return TemplateSet{}, fmt.Errorf("failed to read templates from %s: %w", dir, err)
	}
	if len(names) == 0 {
		return TemplateSet{}, fmt.Errorf("no templates found in %s", dir)
	}
	return TemplateSet{FS: fsys, Names: names}, nil
}

// TemplatesFor picks the configured template directory or the built-in set.
func TemplatesFor(cfg config.ProjectConfig) (TemplateSet, error) {
	if cfg.TemplatesDir == "" {
		return DefaultTemplates(), nil
	}
	return LoadTemplates(cfg.TemplatesDir)
}

func listTemplates(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Job describes a generated endpoint.
type Job struct {
	Project      string   `json:"project"`
	Endpoint     string   `json:"endpoint"`
	OriginalName string   `json:"originalName"`
	Dir          string   `json:"dir"`
	Files        []string `json:"files"`
}

// Generator renders endpoint skeletons inside a project tree.
type Generator struct {
	cfg config.ProjectConfig
}

// NewGenerator creates a Generator for the configured project layout.
func NewGenerator(cfg config.ProjectConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Dir returns {root}/{project}/{backendDir}/{swaggerDir}/{endpoint}.
func (g *Generator) Dir(project, endpoint string) string {
	return filepath.Join(g.cfg.Root, project, g.cfg.BackendDir, g.cfg.SwaggerDir, strings.ToLower(endpoint))
}

// Generate renders every template of set into the endpoint directory.
//
// All templates are rendered before anything is written. The directory tree
// is created if missing and reused otherwise. Each file is written to a
// temporary name and renamed into place; if any write fails, the files this
// call created are removed again. Regenerating with the same input produces
// the same content.
func (g *Generator) Generate(project, endpoint string, set TemplateSet) (*Job, error) {
	if err := validateName("project", project); err != nil {
		return nil, err
	}
	if err := validateName("endpoint", endpoint); err != nil {
		return nil, err
	}

	job := &Job{
		Project:      project,
		Endpoint:     strings.ToLower(endpoint),
		OriginalName: endpoint,
		Dir:          g.Dir(project, endpoint),
	}

	data := map[string]interface{}{
		"endpoint_name": job.Endpoint,
		"original_name": job.OriginalName,
		"class_name":    className(job.OriginalName),
		"project":       job.Project,
	}

	rendered, err := renderAll(set, data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(job.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", job.Dir, err)
	}

	var created []string
	for _, name := range set.Names {
		target := filepath.Join(job.Dir, name)
		isNew, err := writeAtomic(target, rendered[name])
		if err != nil {
			rollback(created)
			return nil, err
		}
		if isNew {
			created = append(created, target)
		}
		job.Files = append(job.Files, target)
	}

	logging.Info("Scaffold", "Generated endpoint %s in %s (%d file(s))", job.Endpoint, job.Dir, len(job.Files))
	return job, nil
}

func renderAll(set TemplateSet, data map[string]interface{}) (map[string][]byte, error) {
	if set.FS == nil || len(set.Names) == 0 {
		return nil, fmt.Errorf("empty template set")
	}

	rendered := make(map[string][]byte, len(set.Names))
	for _, name := range set.Names {
		if name != filepath.Base(name) {
			return nil, fmt.Errorf("template name %q must be a plain file name", name)
		}
		raw, err := fs.ReadFile(set.FS, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render template %s: %w", name, err)
		}
		rendered[name] = buf.Bytes()
	}
	return rendered, nil
}

// writeAtomic writes content next to target and renames it into place. It
// reports whether target did not exist before.
func writeAtomic(target string, content []byte) (bool, error) {
	_, statErr := os.Stat(target)
	isNew := os.IsNotExist(statErr)

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return false, fmt.Errorf("failed to stage %s: %w", target, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to place %s: %w", target, err)
	}
	return isNew, nil
}

func rollback(created []string) {
	for _, path := range created {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("Scaffold", "Failed to remove %s during rollback: %v", path, err)
		}
	}
}

func validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name must not be empty", kind)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}

func className(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
