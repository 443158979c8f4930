package columns

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Aliases holds extra header spellings per dataset and logical field.
//
//	columns:
//	  workshops:
//	    name: ["Dealer Outlet"]
//	  demand:
//	    weight: ["Projected ROs"]
type Aliases map[string]map[string][]string

// LoadAliases reads an alias file. An empty path returns no aliases.
func LoadAliases(path string) (Aliases, error) {
	if path == "" {
		return Aliases{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "columns: read aliases %s", path)
	}

	var wrapper struct {
		Columns Aliases `yaml:"columns"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "columns: parse aliases")
	}
	if wrapper.Columns == nil {
		return Aliases{}, nil
	}
	return wrapper.Columns, nil
}

// Apply returns s extended with the aliases for its dataset.
func (a Aliases) Apply(s Schema) Schema {
	return s.WithAliases(a[s.Dataset])
}
