// Copyright 2025 The fusetranslator Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cfg is the translator daemon's settings, decoded by viper from
// flags/environment/config file the way the teacher's own cfg package
// decodes gcsfuse's mount flags — adapted here from bucket/mount-point
// settings to the translator core's own knobs (IOQ throttling, the
// coroutine depth bound, transact buffer sizing, logging).
package cfg

import (
	"fmt"

	"github.com/fspgo/fusetranslator/internal/config"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of settings a mount command needs to construct
// a corefs.Core and its ambient stack.
type Config struct {
	// LogSeverity gates every logger.* call; LogFormat selects text or
	// json; LogFile, if set, routes logs through lumberjack instead of
	// stderr.
	LogSeverity string `mapstructure:"log-severity"`
	LogFormat   string `mapstructure:"log-format"`
	LogFile     string `mapstructure:"log-file"`

	// IOQBucketCapacity and IOQFillFrequencyMS are the token-bucket
	// settings for pacing ioq.Queue's outbound protocol requests
	// (IOQBucketCapacity <= 0 meaning no throttling). The mount command
	// decodes them but constructs its core without a throttle, so they
	// have no effect there.
	IOQBucketCapacity  int64 `mapstructure:"ioq-bucket-capacity"`
	IOQFillFrequencyMS int64 `mapstructure:"ioq-fill-frequency-ms"`

	// MetricsAddr, if set, serves a Prometheus /metrics endpoint on this
	// address (e.g. ":9191"); empty disables the endpoint.
	MetricsAddr string `mapstructure:"metrics-addr"`

	// EnableTracing turns on the stdouttrace span exporter, which the
	// mount command points at stderr.
	EnableTracing bool `mapstructure:"enable-tracing"`
}

// BindFlags registers every Config field as a pflag flag on fs with the
// teacher's own defaults-via-flag pattern (cmd/flags.go), so cobra
// commands can bind the same flag set viper later decodes from.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("log-severity", "INFO", "logging verbosity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF")
	fs.String("log-format", "text", "log encoding: text or json")
	fs.String("log-file", "", "log file path; empty logs to stderr")
	fs.Int64("ioq-bucket-capacity", 0, "outbound protocol request token-bucket capacity; 0 disables throttling")
	fs.Int64("ioq-fill-frequency-ms", 100, "token-bucket refill interval in milliseconds")
	fs.String("metrics-addr", "", "address to serve Prometheus metrics on; empty disables the endpoint")
	fs.Bool("enable-tracing", false, "export spans to stderr")
}

// Decode builds a Config from v, the way the teacher's cfg.BuildConfig
// decodes gcsfuse's mount flags via viper + mapstructure.
func Decode(v *viper.Viper) (Config, error) {
	var c Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Config{}, fmt.Errorf("cfg: building decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("cfg: decoding settings: %w", err)
	}
	return c, nil
}

// Severity parses LogSeverity, defaulting to INFO on an empty or
// unrecognized value rather than failing the whole decode.
func (c Config) Severity() config.LogSeverity {
	sev, err := config.ParseLogSeverity(c.LogSeverity)
	if err != nil {
		return config.INFO
	}
	return sev
}
