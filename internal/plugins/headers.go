package plugins

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	servedByHeader      = "X-Served-By"
	hostnamePlaceholder = "{hostname}"
)

type headersOptions struct {
	ServedBy *bool             `yaml:"served_by"`
	Set      map[string]string `yaml:"set"`
}

// decodeOptions re-reads a plugin's free-form settings into out, rejecting
// unknown keys.
func decodeOptions(cfg map[string]interface{}, out interface{}) error {
	if len(cfg) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// responseHeaders resolves the headers added to every response. X-Served-By
// carries the hostname unless served_by is false; {hostname} in set values
// expands to the same name.
func responseHeaders(opts headersOptions, hostname string) (http.Header, error) {
	h := http.Header{}
	if hostname != "" && (opts.ServedBy == nil || *opts.ServedBy) {
		h.Set(servedByHeader, hostname)
	}
	for name, value := range opts.Set {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("header name must not be empty")
		}
		h.Set(name, strings.ReplaceAll(value, hostnamePlaceholder, hostname))
	}
	return h, nil
}

// headers identifies the serving node on every response.
//
//	plugins:
//	  enabled: true
//	  chain:
//	    - name: headers
//	      config:
//	        served_by: true
//	        set:
//	          X-Greeter-Node: "node/{hostname}"
func init() {
	RegisterBuiltin("headers", func(name string, cfg map[string]interface{}, env Env) (Middleware, error) {
		var opts headersOptions
		if err := decodeOptions(cfg, &opts); err != nil {
			return nil, fmt.Errorf("invalid headers config: %w", err)
		}
		extra, err := responseHeaders(opts, env.Hostname)
		if err != nil {
			return nil, err
		}

		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				dst := w.Header()
				for k, v := range extra {
					dst[k] = append([]string(nil), v...)
				}
				next.ServeHTTP(w, r)
			})
		}, nil
	})
}
