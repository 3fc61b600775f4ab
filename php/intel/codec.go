package intel

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/dhamidi/phpintel/php"
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// EncodeDeclarations serializes one file's declaration set as a
// zstd-compressed JSON blob.
func EncodeDeclarations(decls []php.Declaration) ([]byte, error) {
	return encode(decls)
}

func DecodeDeclarations(data []byte) ([]php.Declaration, error) {
	var decls []php.Declaration
	if err := decode(data, &decls); err != nil {
		return nil, err
	}
	return decls, nil
}

func EncodeIndex(x *Index) ([]byte, error) {
	return encode(x.Snapshot())
}

func DecodeIndex(data []byte) (*Index, error) {
	var snapshot map[string][]string
	if err := decode(data, &snapshot); err != nil {
		return nil, err
	}
	return IndexFromSnapshot(snapshot), nil
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return encoder.EncodeAll(data, nil), nil
}

func decode(data []byte, v any) error {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// FileKey is the blob name for a source file: the hex md5 of its absolute
// path.
func FileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}
