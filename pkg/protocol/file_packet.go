package protocol

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const HeaderFileName = "file_name"

var ErrMissingFileName = errors.New("missing file name")

// FilePacket carries one whole file.
type FilePacket struct {
	Name     string
	Contents []byte
}

// ReadFilePacket loads the file at path. Directory components are stripped
// from the name.
func ReadFilePacket(path string) (FilePacket, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return FilePacket{}, err
	}
	return FilePacket{Name: filepath.Base(path), Contents: contents}, nil
}

func (f FilePacket) Bytes() []byte {
	return Encode(map[string]string{HeaderFileName: f.Name}, f.Contents)
}

// DecodeFilePacket parses a received transfer. The name is reduced to its
// base so a sender cannot escape the save directory.
func DecodeFilePacket(b []byte) (FilePacket, error) {
	p, err := Decode(b)
	if err != nil {
		return FilePacket{}, err
	}

	name, ok := p.Header(HeaderFileName)
	if !ok || name == "" {
		return FilePacket{}, ErrMissingFileName
	}
	base := filepath.Base(filepath.Clean("/" + filepath.FromSlash(name)))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return FilePacket{}, fmt.Errorf("%w: unusable name %q", ErrMissingFileName, name)
	}

	return FilePacket{Name: base, Contents: p.Payload}, nil
}
