package cfg

import (
	"os"
	"path/filepath"

	"github.com/corbocal/idx/cfg/decoder"
	"github.com/corbocal/idx/cfg/validator"
	"github.com/pkg/errors"
)

// Load 读取配置文件，按扩展名选择解码器
func Load(path string) (*Storage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	d, err := decoder.ForExt(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	return Parse(d, data)
}

// Parse 使用指定解码器解析配置数据
func Parse(d decoder.Decoder, data []byte) (*Storage, error) {
	tree, err := d.Decode(data)
	if err != nil {
		return nil, err
	}
	return NewStorage(tree), nil
}

// LoadInto 读取配置文件中 key 对应的子树，转换到 object 并校验
// key 为空表示整个文件
func LoadInto(path string, key string, object any) error {
	s, err := Load(path)
	if err != nil {
		return err
	}
	return Bind(s.Sub(key), object)
}

// Bind 把配置转换到 object 并执行 validate 标签校验
func Bind(s *Storage, object any) error {
	if err := s.ConvertTo(object); err != nil {
		return err
	}
	if err := validator.ValidateStruct(object); err != nil {
		return errors.WithMessage(err, "config validation failed")
	}
	return nil
}
