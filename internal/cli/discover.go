package cli

import (
	"os"
	"path/filepath"
)

// configFileNames are tried in order in each directory during discovery.
var configFileNames = []string{"hto.config.json", "hto.config.yaml", "hto.config.yml"}

// discoverConfig walks up from dir and returns the first config file found,
// or "" when the filesystem root is reached without a match.
func discoverConfig(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(abs, name)
			if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}
