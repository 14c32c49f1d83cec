// Package config resolves run options from flags, environment and an optional
// YAML config file, and validates them before anything is compiled or opened.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/output"
)

// EnvPrefix prefixes environment overrides, e.g. GROKLINE_OUTPUT_FORMAT.
const EnvPrefix = "GROKLINE"

// Options holds everything a run needs. Keys match the command-line flag names.
type Options struct {
	Pattern      string   `mapstructure:"pattern" validate:"required"`
	PatternsDir  string   `mapstructure:"patterns"`
	NoPatterns   bool     `mapstructure:"no-patterns"`
	Rules        []string `mapstructure:"rules" validate:"dive,required"`
	Output       string   `mapstructure:"output"`
	Overwrite    bool     `mapstructure:"overwrite"`
	OutputFormat string   `mapstructure:"output-format" validate:"oneof=json csv"`
	Stats        bool     `mapstructure:"stats"`
	LogLevel     string   `mapstructure:"log-level" validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`

	// Inputs come from positional arguments only.
	Inputs []string `mapstructure:"-"`
}

// Format returns the parsed output format.
func (o *Options) Format() output.Format {
	f, err := output.ParseFormat(o.OutputFormat)
	if err != nil {
		return output.FormatJSON
	}
	return f
}

// NewViper returns a viper instance reading cfgFile, or .grokline.yaml from
// the home or current directory when cfgFile is empty. A missing default
// config file is not an error; a missing explicit one is.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Config("read config", err)
		}
		return v, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigName(".grokline")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errs.Config("read config", err)
		}
	}
	return v, nil
}

// Load decodes options from v, normalizes them and validates them.
func Load(v *viper.Viper, inputs []string) (*Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, errs.Config("decode", err)
	}
	opts.Inputs = inputs
	opts.OutputFormat = strings.ToLower(strings.TrimSpace(opts.OutputFormat))
	if opts.OutputFormat == "" {
		opts.OutputFormat = string(output.FormatJSON)
	}

	if err := Validate(&opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks opts and reports the first problem per field using flag names.
func Validate(opts *Options) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Config("validate", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errs.Config("validate", errors.New(strings.Join(msgs, "; ")))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("--%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("--%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("--%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
