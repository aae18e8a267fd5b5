package writer

import (
	"io"
	"os"

	"github.com/corbocal/idx/cfg/validator"
	"github.com/pkg/errors"
)

// ConsoleWriterOptions 控制台输出配置
type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr，默认 stdout
	Target string `yaml:"target" validate:"omitempty,oneof=stdout stderr"`
}

// ConsoleWriter 控制台输出器
type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid console writer options")
	}
	if options != nil && options.Target == "stderr" {
		return &ConsoleWriter{w: os.Stderr}, nil
	}
	return &ConsoleWriter{w: os.Stdout}, nil
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Close 标准输出不需要关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
