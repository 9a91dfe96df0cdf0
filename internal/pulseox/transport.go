package pulseox

// Transport is the boundary to the attribute-protocol layer. Connection
// establishment, discovery and the write primitives themselves live behind
// it; a Client only issues descriptor writes and (de)registers its
// indication handler through it.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	// WriteDescriptor issues an asynchronous write of value to the
	// descriptor at handle. A non-nil return means the write was never
	// issued and done will not be called. Otherwise done is invoked
	// exactly once from the transport's own context with the write
	// outcome; peer-side rejections arrive as *ATTError.
	WriteDescriptor(handle uint16, value []byte, done func(error)) error

	// SetIndicationHandler registers fn to receive indication payloads for
	// the characteristic whose value attribute is at valueHandle,
	// replacing any previous handler. fn is invoked from the transport's
	// context; payloads it receives are only valid for the duration of
	// the call.
	SetIndicationHandler(valueHandle uint16, fn func(payload []byte))

	// ClearIndicationHandler removes the handler for valueHandle.
	// Indications arriving with no handler registered are dropped.
	ClearIndicationHandler(valueHandle uint16)
}
