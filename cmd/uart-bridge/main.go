//go:build rp2040 || rp2350

// uart-bridge runs an ipcf service over uart0 on a Pico and echoes every
// message arriving on the echo channel back to the peer.
package main

import (
	"context"
	"time"

	ipcf "ipcfshm-go/services/ipcf"
	"ipcfshm-go/services/ipcf/config"
	"ipcfshm-go/transport/uartlink"
)

func main() {
	println("[bridge] boot ...")
	time.Sleep(1500 * time.Millisecond)

	port, err := uartlink.OpenPort("uart0", 115200, 0, 1)
	if err != nil {
		println("[bridge] open uart0:", err.Error())
		return
	}
	link, err := uartlink.New(port, uartlink.Config{BufLen: 128, Bufs: 4})
	if err != nil {
		println("[bridge] link:", err.Error())
		return
	}

	svc, err := ipcf.New(config.Default(), link)
	if err != nil {
		println("[bridge] service:", err.Error())
		return
	}
	go link.Run(context.Background())

	echo, err := svc.OpenPath("ipcfshm/M7_0/echo")
	if err != nil {
		println("[bridge] open echo:", err.Error())
		return
	}

	buf := make([]byte, 128)
	for {
		<-echo.Readable()
		for {
			n, err := echo.Read(buf)
			if err != nil {
				println("[bridge] read:", err.Error())
				break
			}
			if n == 0 {
				break
			}
			if _, err := echo.Write(buf[:n]); err != nil {
				println("[bridge] write:", err.Error())
			}
		}
	}
}
