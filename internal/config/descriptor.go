package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"django-deployer/internal/model"
	"django-deployer/pkg/utils"
)

const DefaultDescriptorFile = "deploy.yml"

// LoadDescriptor reads, parses and validates a deploy descriptor. A missing
// file yields ConfigMissing; everything else that goes wrong yields
// ConfigMalformed. Missing fields are never defaulted.
func LoadDescriptor(path string) (*model.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, utils.NewConfigMissingError(path)
		}
		return nil, utils.NewConfigMalformedError(path, fmt.Errorf("read: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, utils.NewConfigMalformedError(path, errors.New("file is empty"))
	}

	var d model.Descriptor
	if err := decodeDescriptor(path, data, &d); err != nil {
		return nil, utils.NewConfigMalformedError(path, fmt.Errorf("parse: %w", err))
	}
	if err := utils.ValidateStruct(&d); err != nil {
		return nil, utils.NewConfigMalformedError(path, err)
	}
	return &d, nil
}

func decodeDescriptor(path string, data []byte, out *model.Descriptor) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), out)
		return err
	default:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
			return errors.New("top level must be a mapping")
		}
		return doc.Decode(out)
	}
}
