package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed settings and remembers every value that failed to
// parse, so a typo in the environment fails startup instead of silently
// using the default.
type envReader struct {
	lookup  func(string) (string, bool)
	invalid []error
}

func newEnvReader() *envReader {
	return &envReader{lookup: os.LookupEnv}
}

func (r *envReader) value(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) reject(key, value, want string) {
	r.invalid = append(r.invalid, fmt.Errorf("%s=%q is not a valid %s", key, value, want))
}

func (r *envReader) String(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

func (r *envReader) Int(key string, def int) int {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.reject(key, v, "integer")
		return def
	}
	return n
}

func (r *envReader) Bool(key string, def bool) bool {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.reject(key, v, "boolean")
		return def
	}
	return b
}

func (r *envReader) Duration(key string, def time.Duration) time.Duration {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.reject(key, v, "duration")
		return def
	}
	return d
}

// List splits a comma separated value, dropping blanks. An empty result keeps
// the default.
func (r *envReader) List(key string, def []string) []string {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (r *envReader) Err() error {
	return errors.Join(r.invalid...)
}
