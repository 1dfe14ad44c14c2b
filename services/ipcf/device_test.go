package ipcf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"ipcfshm-go/errcode"
)

func TestReadRaw(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(0)

	p := make([]byte, 128)
	n, err := d.Read(p)
	if n != 0 || err != nil {
		t.Fatalf("empty Read = %d, %v; want 0, nil", n, err)
	}

	tr.inject(t, 0, 0, []byte("hello"))
	tr.inject(t, 0, 0, []byte("world"))

	n, err = d.Read(p)
	if err != nil || n != 5 || !bytes.Equal(p[:n], []byte("hello")) {
		t.Fatalf("Read = %d, %v, %q", n, err, p[:n])
	}
	n, _ = d.Read(p)
	if !bytes.Equal(p[:n], []byte("world")) {
		t.Fatalf("second Read = %q", p[:n])
	}
	if n, err := d.Read(p); n != 0 || err != nil {
		t.Fatalf("drained Read = %d, %v", n, err)
	}
}

func TestReadFramed(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(1) // idps_statistics, prepend_size

	tr.inject(t, 0, 1, []byte("stats"))

	if got := d.PeekSize(); got != 4+5 {
		t.Fatalf("PeekSize = %d, want 9", got)
	}
	p := make([]byte, 64)
	n, err := d.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 9 {
		t.Fatalf("Read = %d bytes, want 9", n)
	}
	if got := binary.BigEndian.Uint32(p); got != 5 {
		t.Fatalf("length prefix = %d, want 5", got)
	}
	if !bytes.Equal(p[4:9], []byte("stats")) {
		t.Fatalf("payload = %q", p[4:9])
	}
}

func TestReadShortBufferLeavesMessagePending(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(0)

	tr.inject(t, 0, 0, []byte("longish message"))

	n, err := d.Read(make([]byte, 4))
	if n != 0 || errcode.Of(err) != errcode.ShortBuffer {
		t.Fatalf("short Read = %d, %v; want 0, short_buffer", n, err)
	}
	st, _ := s.Stats(0)
	if st.Pending != 1 {
		t.Fatalf("Pending after short read = %d, want 1", st.Pending)
	}

	// A retry with enough room gets the same message.
	p := make([]byte, 64)
	n, err = d.Read(p)
	if err != nil || !bytes.Equal(p[:n], []byte("longish message")) {
		t.Fatalf("retry Read = %q, %v", p[:n], err)
	}
}

func TestReadShortBufferFramedCountsPrefix(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(1)

	tr.inject(t, 0, 1, []byte("12345"))

	// Room for the payload but not the prefix.
	if _, err := d.Read(make([]byte, 5)); errcode.Of(err) != errcode.ShortBuffer {
		t.Fatalf("err = %v, want short_buffer", err)
	}
	if n, err := d.Read(make([]byte, 9)); err != nil || n != 9 {
		t.Fatalf("exact-fit Read = %d, %v", n, err)
	}
}

func TestWriteRaw(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(0)

	n, err := d.Write([]byte("ping"))
	if err != nil || n != 4 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if !bytes.Equal(tr.lastTx, []byte("ping")) {
		t.Fatalf("tx payload = %q", tr.lastTx)
	}
	if tr.acquires != 1 || tr.txs != 1 || tr.releases != 0 {
		t.Fatalf("acquires=%d txs=%d releases=%d", tr.acquires, tr.txs, tr.releases)
	}
}

func TestWriteFramedChannelSendsBarePayload(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(1)

	n, err := d.Write([]byte("abc"))
	if err != nil || n != 3 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	// Framing decorates reads only; the wire carries the raw payload.
	if !bytes.Equal(tr.lastTx, []byte("abc")) {
		t.Fatalf("tx payload = %q", tr.lastTx)
	}
}

func TestWriteTruncatesOversizePayload(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)

	d, _ := s.Open(0)
	n, err := d.Write(make([]byte, 200))
	if err != nil || n != 128 {
		t.Fatalf("raw Write = %d, %v; want 128", n, err)
	}
	if len(tr.lastTx) != 128 {
		t.Fatalf("raw tx size = %d, want 128", len(tr.lastTx))
	}

	// The cap applies to the payload on framed channels too.
	df, _ := s.Open(1)
	n, err = df.Write(make([]byte, 200))
	if err != nil || n != 128 {
		t.Fatalf("framed Write = %d, %v; want 128", n, err)
	}
	if len(tr.lastTx) != 128 {
		t.Fatalf("framed tx size = %d, want 128", len(tr.lastTx))
	}
}

func TestWriteAcquireFailure(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(0)
	tr.failAcquire = true

	n, err := d.Write([]byte("ping"))
	if n != 0 || errcode.Of(err) != errcode.NoBuffer {
		t.Fatalf("Write = %d, %v; want 0, no_buffer", n, err)
	}
	if tr.txs != 0 {
		t.Fatal("Tx attempted without a buffer")
	}
}

func TestWriteTxFailureReleasesBuffer(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(0)
	tr.failTx = true

	n, err := d.Write([]byte("ping"))
	if n != 0 || errcode.Of(err) != errcode.TxFailed {
		t.Fatalf("Write = %d, %v; want 0, tx_failed", n, err)
	}
	if tr.releases != 1 {
		t.Fatalf("releases = %d, want 1", tr.releases)
	}
}

func TestWriteTxAndReleaseFailure(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)
	d, _ := s.Open(0)
	tr.failTx = true
	tr.failRelease = true

	_, err := d.Write([]byte("ping"))
	if errcode.Of(err) != errcode.Transfer {
		t.Fatalf("err = %v, want transfer", err)
	}
}

func TestWriteEmptyPayload(t *testing.T) {
	tr := newFakeTransport(128)
	s, _ := New(testConfig(), tr)

	d, _ := s.Open(0)
	if n, err := d.Write(nil); n != 0 || err != nil {
		t.Fatalf("raw empty Write = %d, %v", n, err)
	}
	if len(tr.lastTx) != 0 {
		t.Fatalf("raw empty tx size = %d", len(tr.lastTx))
	}

	df, _ := s.Open(1)
	if n, err := df.Write(nil); n != 0 || err != nil {
		t.Fatalf("framed empty Write = %d, %v", n, err)
	}
	if len(tr.lastTx) != 0 {
		t.Fatalf("framed empty tx = %v", tr.lastTx)
	}
}
