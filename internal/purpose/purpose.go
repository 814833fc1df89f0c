// Package purpose labels directories and files with a short functional
// description inferred from conventional names, falling back to the
// contents when the name alone says nothing.
package purpose

import (
	"path"
	"strings"

	"archmap/internal/model"
)

// wellKnown maps conventional directory names to their role.
var wellKnown = map[string]string{
	"auth":        "Authentication and authorization",
	"models":      "Data models and schemas",
	"views":       "View layer / UI rendering",
	"controllers": "Request handling and routing logic",
	"services":    "Business logic services",
	"utils":       "Utility functions and helpers",
	"helpers":     "Utility functions and helpers",
	"tests":       "Test suite",
	"test":        "Test suite",
	"spec":        "Test specifications",
	"docs":        "Documentation",
	"api":         "API endpoints and handlers",
	"components":  "Reusable UI components",
	"lib":         "Core library code",
	"src":         "Main source code",
	"static":      "Static assets",
	"public":      "Publicly served assets",
	"config":      "Configuration files",
	"scripts":     "Automation and build scripts",
	"middleware":  "Request middleware",
	"migrations":  "Database migrations",
	"fixtures":    "Test fixtures and sample data",
}

// Annotate walks the directory tree and fills Purpose where one can be
// inferred. Unlabeled directories stay empty.
func Annotate(root *model.DirectoryNode, dirFiles map[string][]string) {
	var visit func(n *model.DirectoryNode)
	visit = func(n *model.DirectoryNode) {
		if n.Path != "." {
			n.Purpose = Directory(path.Base(n.Path), dirFiles[n.Path])
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(root)
}

// Directory infers what a directory is for from its name, then from the
// names of the files it holds.
func Directory(name string, files []string) string {
	lower := strings.ToLower(name)
	if p, ok := wellKnown[lower]; ok {
		return p
	}
	for key, p := range wellKnown {
		if strings.Contains(lower, key) {
			return p
		}
	}

	var tests, models, routes, components int
	for _, f := range files {
		fl := strings.ToLower(f)
		switch {
		case strings.Contains(fl, "test") || strings.Contains(fl, "spec"):
			tests++
		case strings.Contains(fl, "model"):
			models++
		case strings.Contains(fl, "route") || strings.Contains(fl, "handler"):
			routes++
		case strings.Contains(fl, "component"):
			components++
		}
	}
	if len(files) > 0 {
		switch {
		case tests*2 > len(files):
			return "Test suite"
		case models*2 > len(files):
			return "Data models and schemas"
		case routes*2 > len(files):
			return "API endpoints and handlers"
		case components*2 > len(files):
			return "Reusable UI components"
		}
	}
	return ""
}

// File infers the role of a single file from its base name.
func File(rel string) string {
	base := strings.ToLower(path.Base(rel))
	stem := strings.TrimSuffix(base, path.Ext(base))
	switch {
	case stem == "index" || stem == "main" || stem == "app" || stem == "__main__":
		return "Entry point"
	case strings.HasSuffix(stem, "_test") || strings.HasSuffix(stem, ".test") ||
		strings.HasSuffix(stem, ".spec") || strings.HasPrefix(stem, "test_"):
		return "Tests"
	case strings.Contains(stem, "config") || stem == "settings":
		return "Configuration"
	case strings.Contains(stem, "route"):
		return "Route definitions"
	case strings.Contains(stem, "model"):
		return "Data models"
	case strings.Contains(stem, "util") || strings.Contains(stem, "helper"):
		return "Utilities"
	case strings.Contains(stem, "middleware"):
		return "Middleware"
	}
	return ""
}
