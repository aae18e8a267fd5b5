package strgen

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NanoIDGenerator 21 个字符，URL 安全字母表
type NanoIDGenerator struct{}

func NewNanoIDGenerator() *NanoIDGenerator {
	return &NanoIDGenerator{}
}

func (g *NanoIDGenerator) Generate() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", &RandomSourceError{Generator: "nanoid", Err: err}
	}
	return id, nil
}
