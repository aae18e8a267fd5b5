package log

import (
	"github.com/corbocal/idx/log/logger"
	"github.com/corbocal/idx/log/writer"
	"github.com/corbocal/idx/ref"
)

func init() {
	ref.MustRegisterT[*writer.ConsoleWriter](writer.NewConsoleWriterWithOptions)
	ref.MustRegisterT[*writer.FileWriter](writer.NewFileWriterWithOptions)
	ref.MustRegisterT[*logger.SLog](logger.NewSLogWithOptions)
}
