package types

// ------------------------
// Transport contract
// ------------------------

// RxFunc is invoked by a transport when an inbound message for a registered
// (instance, channel) pair arrives. buf is owned by the transport and valid
// only for the duration of the call; the callee must copy what it keeps,
// must not block, and must release the buffer via Transport.ReleaseBuf
// exactly once before returning. arg is the value passed at registration.
type RxFunc func(arg any, inst InstanceID, ch ChannelID, buf []byte)

// Transport is the inter-core messaging layer: it hands out outbound
// buffers, transmits them, takes back received buffers, and delivers
// inbound messages through a registered callback. Implementations decide
// the medium (shared memory, UART link, in-process loopback); the four
// operations below are the whole contract the core relies on.
type Transport interface {
	// AcquireBuf returns an outbound buffer of at least size bytes for the
	// given channel, or an error when the pool is exhausted. The caller owns
	// the buffer until Tx.
	AcquireBuf(inst InstanceID, ch ChannelID, size int) ([]byte, error)

	// Tx transmits a previously acquired buffer. On success ownership
	// passes to the transport; on failure it stays with the caller, who
	// must release the buffer. The core never retries a failed Tx.
	Tx(inst InstanceID, ch ChannelID, buf []byte, size int) error

	// ReleaseBuf returns a received buffer to the transport's pool. It must
	// be called exactly once per delivered message.
	ReleaseBuf(inst InstanceID, ch ChannelID, buf []byte) error

	// RegisterRx installs fn as the inbound callback for (inst, ch).
	RegisterRx(inst InstanceID, ch ChannelID, fn RxFunc, arg any) error
}
