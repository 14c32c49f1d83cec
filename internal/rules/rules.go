// Package rules loads rules files: YAML documents of named grok definitions
// that a pattern can reference like any other sub-pattern.
package rules

import (
	"fmt"
	"os"
	"regexp"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/parser"
)

// File is the on-disk shape of a rules file.
type File struct {
	Patterns map[string]string `yaml:"patterns" validate:"dive,keys,grokname,endkeys,required"`
	Rules    []Rule            `yaml:"rules" validate:"dive"`
}

// Rule names a grok expression.
type Rule struct {
	Name        string `yaml:"name" validate:"required,grokname"`
	Pattern     string `yaml:"pattern" validate:"required"`
	Description string `yaml:"description"`
}

var grokName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("grokname", func(fl validator.FieldLevel) bool {
		return grokName.MatchString(fl.Field().String())
	})
	return v
}

// Load reads one rules file. Environment variables (${VAR}) are expanded
// before parsing; write $$ for a literal dollar sign.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars in %s: %w", path, err)
	}

	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}

	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid rules %s: %w", path, err)
	}
	return &f, nil
}

// Definitions flattens the file into sub-pattern definitions.
// A name defined twice in the same file is an error.
func (f *File) Definitions() (parser.Definitions, error) {
	defs := make(parser.Definitions, len(f.Patterns)+len(f.Rules))
	for name, pattern := range f.Patterns {
		defs[name] = pattern
	}
	for _, r := range f.Rules {
		if _, dup := defs[r.Name]; dup {
			return nil, fmt.Errorf("%s is defined more than once", r.Name)
		}
		defs[r.Name] = r.Pattern
	}
	return defs, nil
}

// LoadFiles reads rules files in order and merges their definitions.
// A later file overrides an earlier one. Errors are compile errors.
func LoadFiles(paths ...string) (parser.Definitions, error) {
	merged := make(parser.Definitions)
	for _, path := range paths {
		f, err := Load(path)
		if err != nil {
			return nil, errs.Compile("load rules", err)
		}
		defs, err := f.Definitions()
		if err != nil {
			return nil, errs.Compile("load rules", fmt.Errorf("%s: %w", path, err))
		}
		logrus.WithFields(logrus.Fields{
			"file":  path,
			"rules": len(f.Rules),
		}).Debug("Loaded rules file")
		merged = merged.Merge(defs)
	}
	return merged, nil
}
