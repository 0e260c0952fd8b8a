package loaders

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string) (interface{}, error) {
	return LoadSPIRVFile(path)
}

// LoadSPIRVFile reads a compiled shader as the word stream Vulkan expects.
func LoadSPIRVFile(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read shader %s", path)
	}
	code, err := bytesToBytecode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid shader %s", path)
	}
	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("SPIR-V size %d is not a positive multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if byteCode[0] != SPIRVMagic {
		return nil, errors.Newf("bad SPIR-V magic number 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
