package logger

import (
	"flag"
	"fmt"
	"strings"
)

var loggerJSONFields = flag.String("loggerJSONFields", "", `Allows renaming fields in JSON formatted logs. `+
	`Example: "ts:timestamp,msg:message" renames "ts" to "timestamp" and "msg" to "message". Supported fields: ts, level, caller, msg`)

var (
	fieldTs     = "ts"
	fieldLevel  = "level"
	fieldCaller = "caller"
	fieldMsg    = "msg"
)

func setLoggerJSONFields() {
	if *loggerJSONFields == "" {
		return
	}
	fields := strings.Split(*loggerJSONFields, ",")
	for _, f := range fields {
		f = strings.TrimSpace(f)
		v := strings.Split(f, ":")
		if len(v) != 2 {
			// We cannot use logger.Panicf here, since the logger isn't initialized yet.
			panic(fmt.Errorf("FATAL: unexpected `-loggerJSONFields` item: %q; must have the form `name:value`", f))
		}
		name, value := v[0], v[1]
		switch name {
		case "ts":
			fieldTs = value
		case "level":
			fieldLevel = value
		case "caller":
			fieldCaller = value
		case "msg":
			fieldMsg = value
		default:
			panic(fmt.Errorf("FATAL: unknown field name in `-loggerJSONFields`: %q; supported fields: ts, level, caller, msg", name))
		}
	}
}
