package index

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
)

// DescriptorFile is the file inside an index data directory that records
// which repository the directory belongs to.
const DescriptorFile = "descriptor.yaml"

// Descriptor is the persisted identity of an index data directory.
type Descriptor struct {
	Kind     Kind   `yaml:"kind"`
	Location string `yaml:"location"`
}

// ReadDescriptor reads the descriptor stored in dir.
func ReadDescriptor(dir string) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to read descriptor in %s", dir)
	}

	var d Descriptor
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return nil, errutils.Wrapf(err, "failed to parse descriptor in %s", dir)
	}
	if d.Location == "" {
		return nil, errutils.Wrapf(errutils.ErrValidation, "descriptor in %s has no location", dir)
	}
	return &d, nil
}

func writeDescriptor(dir string, d Descriptor) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return errutils.Wrap(err, "failed to marshal descriptor")
	}
	return fsutil.WriteFileAtomic(filepath.Join(dir, DescriptorFile), data, fsutil.FileModeDefault)
}
