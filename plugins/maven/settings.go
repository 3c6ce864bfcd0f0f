package maven

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smeltbuild/smelt/plugins"
)

// settings models the subset of the Maven settings file the plugin
// generates: non-interactive mode, proxy configuration taken from the
// ambient environment, and an offline profile when earlier parts
// published a shared repository into the backstage.
type settings struct {
	XMLName         xml.Name  `xml:"settings"`
	Xmlns           string    `xml:"xmlns,attr"`
	XmlnsXSI        string    `xml:"xmlns:xsi,attr"`
	SchemaLocation  string    `xml:"xsi:schemaLocation,attr"`
	InteractiveMode bool      `xml:"interactiveMode"`
	Proxies         []proxy   `xml:"proxies>proxy"`
	Profiles        []profile `xml:"profiles>profile"`
	Mirrors         []mirror  `xml:"mirrors>mirror"`
	LocalRepository string    `xml:"localRepository,omitempty"`
	ActiveProfiles  []string  `xml:"activeProfiles>activeProfile"`
}

type proxy struct {
	ID            string  `xml:"id"`
	Active        bool    `xml:"active"`
	Protocol      string  `xml:"protocol"`
	Host          string  `xml:"host"`
	Port          string  `xml:"port"`
	Username      string  `xml:"username,omitempty"`
	Password      *string `xml:"password,omitempty"`
	NonProxyHosts string  `xml:"nonProxyHosts"`
}

type profile struct {
	ID           string       `xml:"id"`
	Repositories []repository `xml:"repositories>repository"`
}

type repository struct {
	ID   string `xml:"id"`
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

type mirror struct {
	ID       string `xml:"id"`
	MirrorOf string `xml:"mirrorOf"`
	URL      string `xml:"url"`
}

func writeSettings(path string, ctx *plugins.Context) error {
	s := settings{
		Xmlns:    "http://maven.apache.org/SETTINGS/1.0.0",
		XmlnsXSI: "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://maven.apache.org/SETTINGS/1.0.0 " +
			"http://maven.apache.org/xsd/settings-1.0.0.xsd",
		InteractiveMode: false,
	}

	for _, protocol := range []string{"http", "https"} {
		raw, ok := ctx.Env[protocol+"_proxy"]
		if !ok {
			continue
		}
		p, err := proxyFromURL(protocol, raw, ctx.Env)
		if err != nil {
			return err
		}
		s.Proxies = append(s.Proxies, p)
	}

	if repo := backstageRepo(ctx); repo != "" {
		repoURL := "file://" + repo
		s.Profiles = []profile{{
			ID: "smelt",
			Repositories: []repository{{
				ID:   "smelt",
				Name: "backstage repository",
				URL:  repoURL,
			}},
		}}
		s.Mirrors = []mirror{{
			ID:       "smelt-central",
			MirrorOf: "central",
			URL:      repoURL,
		}}
		s.LocalRepository = filepath.Join(ctx.BuildDir, ".parts", ".m2", "repository")
		s.ActiveProfiles = []string{"smelt"}
	}

	data, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render maven settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write maven settings: %w", err)
	}
	return nil
}
