// Where: cli/internal/domain/config/output.go
// What: Pure output path helpers for synthesized templates.
// Why: Keep template path defaults consistent across commands.
package config

import (
	"path/filepath"
	"strings"

	"github.com/poruru/webviz-stack/internal/meta"
)

// NormalizeOutputDir normalizes the output directory name.
func NormalizeOutputDir(outputDir string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(outputDir), "/\\")
	if trimmed == "" {
		return meta.DefaultOutDir
	}
	return trimmed
}

// ResolveTemplatePath returns output when set, otherwise
// <outDir>/<stack>.template.<ext>.
func ResolveTemplatePath(output, outputDir, stackName, ext string) string {
	if out := strings.TrimSpace(output); out != "" {
		return out
	}
	return filepath.Join(NormalizeOutputDir(outputDir), stackName+".template."+ext)
}
