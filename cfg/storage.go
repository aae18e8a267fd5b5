package cfg

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Storage 包装解码后的配置树，实现 ref.Convertable
// 转换通过 YAML 往返完成，目标结构体使用 yaml 标签
type Storage struct {
	data any
}

func NewStorage(data any) *Storage {
	return &Storage{data: data}
}

// Data 返回原始配置树
func (s *Storage) Data() any {
	return s.data
}

// Sub 按 "a.b.0.c" 形式的路径取子树，路径不存在时返回空 Storage
func (s *Storage) Sub(key string) *Storage {
	if key == "" {
		return s
	}

	cur := s.data
	for _, part := range strings.Split(key, ".") {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[part]
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return &Storage{}
			}
			cur = node[idx]
		default:
			return &Storage{}
		}
	}
	return &Storage{data: cur}
}

// IsEmpty 判断是否没有任何数据
func (s *Storage) IsEmpty() bool {
	return s.data == nil
}

func (s *Storage) ConvertTo(object any) error {
	if s.data == nil {
		return nil
	}
	buf, err := yaml.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "yaml.Marshal failed")
	}
	if err := yaml.Unmarshal(buf, object); err != nil {
		return errors.Wrapf(err, "failed to convert config to %T", object)
	}
	return nil
}
