package mcpserver

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/panbanda/deadexports/pkg/config"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/deadexports"
	imageName      = "ghcr.io/panbanda/deadexports"
)

// releaseVersion matches the semantic versions the registry accepts.
var releaseVersion = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

// ServerManifest is the registry server.json describing how to run
// `deadexports mcp` from the container image.
type ServerManifest struct {
	Schema      string         `json:"$schema"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Repository  SourceRepo     `json:"repository"`
	Packages    []ImagePackage `json:"packages"`
}

type SourceRepo struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// ImagePackage is an OCI image entry. The server reads its config from the
// file named by EnvironmentVariables when the client sets one.
type ImagePackage struct {
	RegistryType         string            `json:"registryType"`
	Identifier           string            `json:"identifier"`
	PackageArguments     []PackageArgument `json:"packageArguments"`
	EnvironmentVariables []EnvVar          `json:"environmentVariables,omitempty"`
	Transport            stdioTransport    `json:"transport"`
}

type PackageArgument struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type EnvVar struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Format      string `json:"format"`
	IsRequired  bool   `json:"isRequired"`
}

type stdioTransport struct {
	Type string `json:"type"`
}

// manifestVersion maps a build version to a registry version. Development
// builds publish as 0.0.0 and a leading "v" from a git tag is dropped.
func manifestVersion(version string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" || v == "dev" {
		return "0.0.0", nil
	}
	if !releaseVersion.MatchString(v) {
		return "", fmt.Errorf("manifest version %q is not a semantic version", version)
	}
	return v, nil
}

func newServerManifest(version string) (*ServerManifest, error) {
	v, err := manifestVersion(version)
	if err != nil {
		return nil, err
	}
	return &ServerManifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Description: "Find unused exports in TypeScript and JavaScript projects",
		Version:     v,
		Repository:  SourceRepo{URL: "https://github.com/panbanda/deadexports", Source: "github"},
		Packages: []ImagePackage{{
			RegistryType:     "oci",
			Identifier:       imageName + ":" + v,
			PackageArguments: []PackageArgument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []EnvVar{{
				Name:        config.EnvFile,
				Description: "Config file supplying defaults for find_unused_exports",
				Format:      "filepath",
			}},
			Transport: stdioTransport{Type: "stdio"},
		}},
	}, nil
}

// GenerateManifest returns the indented server.json for version.
func GenerateManifest(version string) ([]byte, error) {
	m, err := newServerManifest(version)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(m, "", "  ")
}
