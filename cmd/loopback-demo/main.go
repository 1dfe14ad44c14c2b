//go:build !(rp2040 || rp2350)

// loopback-demo wires two ipcf services back to back over an in-memory
// link and runs traffic over both configured channels: a raw echo
// round-trip and a framed statistics read.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	ipcf "ipcfshm-go/services/ipcf"
	"ipcfshm-go/services/ipcf/config"
	"ipcfshm-go/transport/loopback"
)

const channelMap = `
instances:
  - name: M7_0
    id: 0
    channels:
      - name: echo
        id: 0
        queue_size: 64
        max_msg_len: 128
      - name: idps_statistics
        id: 1
        queue_size: 64
        max_msg_len: 128
        prepend_size: true
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "loopback-demo:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load([]byte(channelMap))
	if err != nil {
		return err
	}

	// One endpoint plays the application core, the other the remote core.
	appEnd, remoteEnd := loopback.NewPair(128, 4)
	app, err := ipcf.New(cfg, appEnd)
	if err != nil {
		return err
	}
	remote, err := ipcf.New(cfg, remoteEnd)
	if err != nil {
		return err
	}

	for _, path := range app.Paths() {
		fmt.Println("device:", path)
	}

	// Raw echo round-trip.
	appEcho, err := app.OpenPath("ipcfshm/M7_0/echo")
	if err != nil {
		return err
	}
	remoteEcho, err := remote.OpenPath("ipcfshm/M7_0/echo")
	if err != nil {
		return err
	}
	if _, err := appEcho.Write([]byte("hello from APP")); err != nil {
		return err
	}
	buf := make([]byte, 128)
	n, err := remoteEcho.Read(buf)
	if err != nil {
		return err
	}
	fmt.Printf("remote echo rx: %q\n", buf[:n])
	if _, err := remoteEcho.Write(buf[:n]); err != nil {
		return err
	}
	n, err = appEcho.Read(buf)
	if err != nil {
		return err
	}
	fmt.Printf("app echo rx:    %q\n", buf[:n])

	// Framed statistics: the remote publishes, the app reads a
	// length-prefixed record.
	remoteStats, err := remote.OpenPath("ipcfshm/M7_0/idps_statistics")
	if err != nil {
		return err
	}
	appStats, err := app.OpenPath("ipcfshm/M7_0/idps_statistics")
	if err != nil {
		return err
	}
	if _, err := remoteStats.Write([]byte("pkts=1024 drops=0")); err != nil {
		return err
	}
	n, err = appStats.Read(buf)
	if err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(buf)
	fmt.Printf("stats rx: %d-byte record %q\n", size, buf[4:n])

	for dev := 0; dev < app.DeviceCount(); dev++ {
		st, _ := app.Stats(dev)
		fmt.Printf("stats[%d]: pending=%d dropped=%d\n", dev, st.Pending, st.Dropped)
	}
	return nil
}
