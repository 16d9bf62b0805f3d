package config

import (
	"errors"
	"testing"
)

// FuzzParse feeds random documents to the config parser. It must never panic,
// and every rejection must wrap ErrInvalidConfig.
func FuzzParse(f *testing.F) {
	f.Add([]byte(validConfigYAML))
	f.Add([]byte{})
	f.Add([]byte(`{{{invalid yaml---`))
	f.Add([]byte("truncate: sometimes\n"))
	f.Add([]byte("controls: [{category: x, id: \"\", probes: [{command: \"rm -rf /\"}]}]\n"))
	f.Add([]byte("partitions: {/tmp: [\"tmpfs on /tmp\"]}\nmodule_patterns: {udf: \"install /bin/true\"}\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := Parse(data)
		if err != nil {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error does not wrap ErrInvalidConfig: %v", err)
			}
			return
		}
		if cfg == nil {
			t.Fatal("nil config without error")
		}
	})
}
