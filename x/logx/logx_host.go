//go:build !(rp2040 || rp2350)

package logx

import "log"

func Errorf(format string, a ...any) { log.Printf("error: "+format, a...) }
func Warnf(format string, a ...any)  { log.Printf("warn: "+format, a...) }
func Infof(format string, a ...any)  { log.Printf("info: "+format, a...) }
