package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

type levelStyle struct {
	tag   string
	color string
}

var levelStyles = map[string]levelStyle{
	"trace": {"[TRC]", "\033[90m"},
	"debug": {"[DBG]", "\033[36m"},
	"info":  {"[INF]", "\033[32m"},
	"warn":  {"[WRN]", "\033[33m"},
	"error": {"[ERR]", "\033[31m"},
}

// consoleWriter renders records as "15:04:05 [INF] message key:value".
func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i any) string {
			lvl := strings.ToLower(fmt.Sprint(i))
			style, ok := levelStyles[lvl]
			if !ok {
				return "[" + strings.ToUpper(lvl) + "]"
			}
			if noColor {
				return style.tag
			}
			return style.color + style.tag + "\033[0m"
		},
		FormatFieldName: func(i any) string { return fmt.Sprint(i) + ":" },
	}
}
