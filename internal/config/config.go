package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	ClientConfig
	GuardConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

type mainConfig struct {
	EnvVars
	Client
	Guard
	Storage
}

func New() Config {
	return mainConfig{}
}

var (
	fileValues     = map[string]string{}
	fileValuesLock sync.RWMutex
)

// LoadFile overlays values from a YAML file of KEY: value pairs. Real environment
// variables still take precedence over anything in the file.
func LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("[config LoadFile] read %s: %w", path, err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(content, &values); err != nil {
		return fmt.Errorf("[config LoadFile] parse %s: %w", path, err)
	}

	fileValuesLock.Lock()
	defer fileValuesLock.Unlock()
	for k, v := range values {
		if v == nil {
			continue
		}
		fileValues[k] = fmt.Sprint(v)
	}
	return nil
}

// ResetFile drops any values loaded by LoadFile.
func ResetFile() {
	fileValuesLock.Lock()
	defer fileValuesLock.Unlock()
	fileValues = map[string]string{}
}

func fileValue(key string) (string, bool) {
	fileValuesLock.RLock()
	defer fileValuesLock.RUnlock()
	v, ok := fileValues[key]
	return v, ok
}
