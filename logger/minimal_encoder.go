package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Everforest Dark palette
const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"

	colorFg          = "\x1b[38;5;223m"
	colorGreenBright = "\x1b[38;5;108m"
	colorGreenMid    = "\x1b[38;5;107m"
	colorGreenDeep   = "\x1b[38;5;65m"
	colorAqua        = "\x1b[38;5;109m"
	colorOrange      = "\x1b[38;5;208m"
	colorYellow      = "\x1b[38;5;179m"
	colorRed         = "\x1b[38;5;167m"
	colorRedBg       = "\x1b[48;5;52m"
	colorYellowBg    = "\x1b[48;5;58m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  v.control  Graph loaded  g-42 (19 nodes, 31 edges)  mode=force"
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(colorGreenMid)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level only for WARN and above
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorFg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	merged := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		merged.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(merged)
	}
	if rendered := formatFields(merged.Fields); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	if ent.Stack != "" && ent.Level >= zapcore.ErrorLevel {
		final.AppendString("\n")
		final.AppendString(ent.Stack)
	}

	final.AppendString("\n")
	return final, nil
}

func levelColorString(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorGreenDeep + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + colorYellowBg + colorYellow + "WARN" + colorReset
	default:
		return colorBold + colorRedBg + colorRed + level.CapitalString() + colorReset
	}
}

func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	switch hash % 3 {
	case 0:
		return colorGreenBright
	case 1:
		return colorGreenDeep
	default:
		return colorOrange
	}
}

// abbreviateName shortens component names: server -> server, viz.control -> v.control
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// formatFields renders every field. IDs and graph sizes get a compact form,
// everything else is key=value in key order. Nothing is dropped.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	var values []string
	for _, key := range []string{FieldGraphID, FieldClientID} {
		if v, ok := fields[key]; ok {
			values = append(values, colorAqua+fmt.Sprint(v)+colorReset)
		}
	}

	nodes, hasNodes := fields[FieldNodes]
	edges, hasEdges := fields[FieldEdges]
	if hasNodes && hasEdges {
		values = append(values, fmt.Sprintf("%s(%s%v%s nodes, %s%v%s edges)%s",
			colorFg, colorGreenBright, nodes, colorFg, colorGreenBright, edges, colorFg, colorReset))
	}

	if d, ok := fields[FieldDurationMS]; ok {
		values = append(values, colorGreenBright+fmt.Sprint(d)+colorReset+"ms")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case FieldGraphID, FieldClientID, FieldDurationMS:
			continue
		case FieldNodes, FieldEdges:
			if hasNodes && hasEdges {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values = append(values, fmt.Sprintf("%s=%v", k, fields[k]))
	}

	return strings.Join(values, "  ")
}
