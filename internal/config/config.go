// Package config turns flags, environment and an optional JSON file into a
// validated runner configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"buyloop/internal/runner"
)

// Keys double as flag names and JSON config keys.
const (
	KeyData              = "data"
	KeyNoStop            = "no-stop"
	KeyMaxAttempts       = "max-attempts"
	KeyDelay             = "delay"
	KeyStopOnDecodeError = "stop-on-decode-error"
	KeyReleaseTime       = "release-time"
	KeyStartBefore       = "start-before"
	KeyConfig            = "config"
	KeyEndpoint          = "endpoint"
	KeyTUI               = "tui"
	KeyOut               = "out"
	KeyLogLevel          = "log-level"
	KeyNoHistory         = "no-history"

	EnvPrefix = "BUYLOOP"
)

// Error is a fatal configuration problem reported before the loop starts.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: --%s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options is everything the root command needs for one run.
type Options struct {
	Run runner.Config

	TUI       bool
	OutPrefix string
	LogLevel  string
	NoHistory bool
}

// RegisterFlags declares the command line surface on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := runner.DefaultConfig()
	fs.StringP(KeyData, "d", "", "Base64 encoded data to send in the request (required)")
	fs.BoolP(KeyNoStop, "n", false, "Continue running even after finding \""+runner.SuccessMarker+"\"")
	fs.IntP(KeyMaxAttempts, "m", d.MaxAttempts, "Maximum number of attempts")
	fs.Float64P(KeyDelay, "l", d.Delay, "Delay between requests in seconds (jittered ±20%)")
	fs.BoolP(KeyStopOnDecodeError, "s", false, "Stop when a response cannot be decoded")
	fs.StringP(KeyReleaseTime, "r", "", "Release date-time; requests start at release+60s minus --start-before")
	fs.Float64P(KeyStartBefore, "b", d.StartBefore, "Seconds before freeze-end to start sending")
	fs.StringP(KeyConfig, "c", "", "JSON config file providing any of the options above")

	fs.String(KeyEndpoint, d.Endpoint, "Trade endpoint URL")
	fs.Bool(KeyTUI, false, "Show a live terminal dashboard instead of console output")
	fs.StringP(KeyOut, "o", "", "Output filename prefix for CSV/JSON reports")
	fs.String(KeyLogLevel, "warn", "Log level (debug, info, warn, error)")
	fs.Bool(KeyNoHistory, false, "Do not record this run in the history file")
}

// NewViper binds fs and the environment. A file named by --config is read
// with JSON syntax regardless of its extension.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, &Error{Err: err}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Key: KeyConfig, Err: err}
		}
	}
	return v, nil
}

var validate = validator.New()

// Load builds Options from v. Release times without a zone are read in loc.
func Load(v *viper.Viper, loc *time.Location) (Options, error) {
	cfg := runner.DefaultConfig()

	data, err := cast.ToStringE(v.Get(KeyData))
	if err != nil {
		return Options{}, &Error{Key: KeyData, Err: err}
	}
	if strings.TrimSpace(data) == "" {
		return Options{}, &Error{Key: KeyData, Err: errors.New("data argument cannot be empty")}
	}
	cfg.Payload = data

	if cfg.NoStop, err = cast.ToBoolE(v.Get(KeyNoStop)); err != nil {
		return Options{}, &Error{Key: KeyNoStop, Err: err}
	}
	if cfg.MaxAttempts, err = wholeNumber(v.Get(KeyMaxAttempts)); err != nil {
		return Options{}, &Error{Key: KeyMaxAttempts, Err: err}
	}
	if cfg.Delay, err = cast.ToFloat64E(v.Get(KeyDelay)); err != nil {
		return Options{}, &Error{Key: KeyDelay, Err: err}
	}
	if cfg.StopOnDecodeError, err = cast.ToBoolE(v.Get(KeyStopOnDecodeError)); err != nil {
		return Options{}, &Error{Key: KeyStopOnDecodeError, Err: err}
	}
	if cfg.StartBefore, err = cast.ToFloat64E(v.Get(KeyStartBefore)); err != nil {
		return Options{}, &Error{Key: KeyStartBefore, Err: err}
	}
	if ep := strings.TrimSpace(v.GetString(KeyEndpoint)); ep != "" {
		cfg.Endpoint = ep
	}

	if raw := strings.TrimSpace(v.GetString(KeyReleaseTime)); raw != "" {
		cfg.ReleaseTime, err = ParseReleaseTime(raw, loc)
		if err != nil {
			return Options{}, &Error{Key: KeyReleaseTime, Err: err}
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return Options{}, validationError(err)
	}

	return Options{
		Run:       cfg,
		TUI:       v.GetBool(KeyTUI),
		OutPrefix: strings.TrimSpace(v.GetString(KeyOut)),
		LogLevel:  v.GetString(KeyLogLevel),
		NoHistory: v.GetBool(KeyNoHistory),
	}, nil
}

// wholeNumber reads an integer setting. JSON numbers arrive as float64 and
// must not lose a fractional part silently.
func wholeNumber(val any) (int, error) {
	n, err := cast.ToFloat64E(val)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, fmt.Errorf("must be a whole number, got %v", val)
	}
	return int(n), nil
}

// ParseReleaseTime accepts RFC 3339 and the other date-time layouts cast
// understands. Strings without a zone are read in loc.
func ParseReleaseTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := cast.ToTimeInDefaultLocationE(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date-time %q: %w", raw, err)
	}
	return t, nil
}

var fieldKeys = map[string]string{
	"Payload":     KeyData,
	"Endpoint":    KeyEndpoint,
	"MaxAttempts": KeyMaxAttempts,
	"Delay":       KeyDelay,
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Err: err}
	}
	fe := verrs[0]
	key := fieldKeys[fe.Field()]

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "gte":
		msg = fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "url":
		msg = fmt.Sprintf("must be a valid URL, got %q", fe.Value())
	default:
		msg = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return &Error{Key: key, Err: errors.New(msg)}
}
