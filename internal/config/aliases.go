package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasFile is the YAML layout of ALIASES_FILE: extra bulk-entry tokens per
// service, merged over the built-in ones.
//
//	aliases:
//	  whoosh: [вуш-вуш, wh]
//	  bolt: [bt]
type AliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads path and returns a token -> service name map. An empty
// path yields a nil map and no error.
func LoadAliases(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ALIASES_FILE: %w", err)
	}
	var f AliasFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("ALIASES_FILE %s: %w", path, err)
	}
	out := make(map[string]string)
	for service, tokens := range f.Aliases {
		for _, tok := range tokens {
			key := strings.ToLower(strings.TrimSpace(tok))
			if prev, ok := out[key]; ok && !strings.EqualFold(prev, service) {
				return nil, fmt.Errorf("ALIASES_FILE %s: token %q listed for both %s and %s", path, tok, prev, service)
			}
			out[key] = service
		}
	}
	return out, nil
}
