package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/util/jsonpath"
)

// ProjectRC is the driven CLI's runtime-configuration file.
type ProjectRC struct {
	Path string
	data map[string]interface{}
}

// LoadProjectRC reads and parses the projectrc at path. A missing file yields
// an empty ProjectRC when optional is true and an error otherwise.
func LoadProjectRC(path string, optional bool) (*ProjectRC, error) {
	rc := &ProjectRC{Path: path, data: map[string]interface{}{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return rc, nil
		}
		return nil, fmt.Errorf("failed to read projectrc %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &rc.data); err != nil {
		return nil, fmt.Errorf("failed to parse projectrc %s: %w", path, err)
	}
	if rc.data == nil {
		rc.data = map[string]interface{}{}
	}
	return rc, nil
}

// Lookup resolves a dotted path such as "project_configuration.variables.env.X".
// Missing keys resolve to the empty string.
func (p *ProjectRC) Lookup(path string) string {
	if p == nil || len(p.data) == 0 || path == "" {
		return ""
	}

	jp := jsonpath.New("projectrc").AllowMissingKeys(true)
	if err := jp.Parse("{." + strings.TrimPrefix(path, ".") + "}"); err != nil {
		return ""
	}

	var buf bytes.Buffer
	if err := jp.Execute(&buf, p.data); err != nil {
		return ""
	}
	return buf.String()
}

// Variable returns an environment variable declared by the project.
func (p *ProjectRC) Variable(name string) string {
	return p.Lookup("project_configuration.variables.env." + name)
}
