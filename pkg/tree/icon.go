package tree

import (
	"strings"
)

// IconCategory is the presentation class of a file, independent of any
// particular icon set.
type IconCategory string

const (
	IconCode    IconCategory = "code"
	IconStyle   IconCategory = "style"
	IconText    IconCategory = "text"
	IconPDF     IconCategory = "pdf"
	IconImage   IconCategory = "image"
	IconModel   IconCategory = "model"
	IconGeneric IconCategory = "generic"
)

// DefaultImageExtensions are the extensions classified as images when no
// configuration overrides them.
var DefaultImageExtensions = []string{"ico", "bmp", "png", "jpg", "jpeg", "gif", "svg"}

// DefaultModelExtensions are the extensions of modeler artefacts.
var DefaultModelExtensions = []string{
	"extension", "extensionpoint", "edm", "model", "dsm", "schema", "bpmn",
	"job", "listener", "websocket", "roles", "constraints", "table", "view",
}

var fixedCategories = map[string]IconCategory{
	"js":   IconCode,
	"mjs":  IconCode,
	"xsjs": IconCode,
	"ts":   IconCode,
	"json": IconCode,
	"css":  IconStyle,
	"less": IconStyle,
	"scss": IconStyle,
	"txt":  IconText,
	"pdf":  IconPDF,
}

// Classifier maps file names to icon categories. The image and model
// extension sets are configurable.
type Classifier struct {
	image map[string]struct{}
	model map[string]struct{}
}

// NewClassifier creates a classifier for the given image and model extension
// sets. Extensions are matched case-insensitively and may carry a leading dot.
func NewClassifier(imageExts, modelExts []string) *Classifier {
	return &Classifier{
		image: extSet(imageExts),
		model: extSet(modelExts),
	}
}

// DefaultClassifier returns a classifier with the built-in extension sets.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultImageExtensions, DefaultModelExtensions)
}

// Classify returns the icon category for a file name.
func (c *Classifier) Classify(fileName string) IconCategory {
	ext := Extension(fileName)
	if ext == "" {
		return IconGeneric
	}
	if cat, ok := fixedCategories[ext]; ok {
		return cat
	}
	if _, ok := c.image[ext]; ok {
		return IconImage
	}
	if _, ok := c.model[ext]; ok {
		return IconModel
	}
	return IconGeneric
}

// Extension returns the lowercased substring after the last dot, or "" when
// the name has none.
func Extension(fileName string) string {
	i := strings.LastIndexByte(fileName, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(fileName[i+1:])
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
