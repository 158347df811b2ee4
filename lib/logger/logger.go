package logger

import "fmt"

type Logger interface {
	Debug(log ...any)
	Error(log ...any)
}

type PrefixedLogger struct {
	Prefix string
}

func (pl PrefixedLogger) Debug(log ...any) {
	fmt.Println(append([]any{"[" + pl.Prefix + "] Debug:"}, log...)...)
}

func (pl PrefixedLogger) Error(log ...any) {
	fmt.Println(append([]any{"[" + pl.Prefix + "] Error:"}, log...)...)
}

var _ Logger = &PrefixedLogger{}
