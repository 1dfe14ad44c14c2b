//go:build rp2040 || rp2350

package logx

// MCU builds avoid fmt. The format string is emitted verbatim followed by
// the arguments; enough for bring-up logs over a serial console.

func Errorf(format string, a ...any) { emit("error: ", format, a) }
func Warnf(format string, a ...any)  { emit("warn: ", format, a) }
func Infof(format string, a ...any)  { emit("info: ", format, a) }

func emit(level, msg string, args []any) {
	print(level, msg)
	for _, v := range args {
		switch x := v.(type) {
		case string:
			print(" ", x)
		case error:
			print(" ", x.Error())
		case int:
			print(" ", x)
		case int64:
			print(" ", x)
		case uint8:
			print(" ", x)
		case uint16:
			print(" ", x)
		case uint32:
			print(" ", x)
		case uint64:
			print(" ", x)
		case bool:
			print(" ", x)
		default:
			print(" ?")
		}
	}
	println()
}
