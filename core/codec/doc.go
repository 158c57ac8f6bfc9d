// Package codec converts domain entities to and from their wire text form.
//
// The bridge treats serialization as an external boundary: variants call the
// codec at the translation layer and never inspect wire text themselves. JSON
// is the wire format of the protocol, provided by JSON[T]; the Codec interface
// exists so tests and embedders can substitute their own encoding.
//
//	c := codec.JSON[ChatMessage]{}
//	text, err := c.Encode(msg)
//	msg2, err := c.Decode(text)
//
// Decode failures indicate a violated wire contract and are treated as fatal
// by the owning Subject; Encode failures only fail the send that produced
// them.
package codec
