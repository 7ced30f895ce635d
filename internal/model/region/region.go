package region

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DefaultTopic is used when a chat view is opened without a region name.
const DefaultTopic = "Lazio"

//go:embed regions.yaml
var seedYAML []byte

// Region describes one entry of the region picker.
type Region struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Capital string `json:"capital" yaml:"capital"`
}

// Seed returns the twenty Italian regions bundled with the binary.
func Seed() []Region {
	regions, err := Parse(seedYAML)
	if err != nil {
		panic(fmt.Sprintf("region: embedded catalogue is invalid: %v", err))
	}
	return regions
}

// Parse decodes a YAML region list.
func Parse(data []byte) ([]Region, error) {
	var regions []Region
	if err := yaml.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("failed to decode region catalogue: %w", err)
	}
	for i, r := range regions {
		if r.ID == "" || r.Name == "" {
			return nil, fmt.Errorf("region %d: id and name are required", i)
		}
	}
	return regions, nil
}

// NormalizeTopic turns a route segment into the display form used in prompts
// and titles: first letter upper case, the rest lower case. Surrounding
// whitespace is trimmed and a blank segment yields fallback, or DefaultTopic
// when fallback is blank too. An invalid leading byte becomes U+FFFD.
func NormalizeTopic(raw, fallback string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = strings.TrimSpace(fallback)
		if name == "" {
			return DefaultTopic
		}
	}

	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// Suggestions lists the starter questions shown on an empty transcript.
func Suggestions() []string {
	return []string{
		"Qual a capital?",
		"Gastronomia",
		"Arte e cultura",
		"Locais para turismo",
	}
}
