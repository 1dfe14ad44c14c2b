//go:build rp2040 || rp2350

package uartlink

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"ipcfshm-go/errcode"
)

// OpenPort configures one of the hardware UARTs and returns it as a Port.
// Zero baud leaves the uartx default in place.
func OpenPort(id string, baud uint32, tx, rx int) (Port, error) {
	var hw *uartx.UART
	switch id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "uartlink.OpenPort",
			Msg: "unknown uart " + id}
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.Pin(tx),
		RX:       machine.Pin(rx),
	}); err != nil {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "uartlink.OpenPort", Err: err}
	}
	return hw, nil
}
