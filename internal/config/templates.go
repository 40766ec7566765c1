package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Template returns a starter file. kind is fixconv for the TOML config or
// criteria for a YAML validation criteria file.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "fixconv", "":
		return fixconvTemplate, nil
	case "criteria":
		return criteriaTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Encode renders cfg as TOML, e.g. to show the effective config after
// defaults and environment overrides.
func Encode(cfg Config) ([]byte, error) {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config encode failed: %w", err)
	}
	return b, nil
}

const fixconvTemplate = `dictionary_dir = "spec"
default_version = "44"
verify_checksum = true
verify_body_length = true
verify_msg_type = false

[dictionary_overrides]
# "44" = "spec/FIX44_custom.xml"

[server]
addr = ":8088"
cors_origins = ["http://localhost:3000"]
# api_token = ""

[output]
compression = "null"

[database]
url = ""

[criteria]
"8" = "FIX.4.4"
"35" = ["D", "G"]
"54" = ["1", "2"]
`

const criteriaTemplate = `# tag: value or tag: [allowed, values]
"8": FIX.4.4
"35": [D, G]
"54": [1, 2]
`
