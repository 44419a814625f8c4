// Copyright (c) 2009 The Go Authors. All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// Package pprofile turns a sampler-provided call tree into pprof's wire
// format without depending on a general protobuf runtime: the message
// shape is small and fixed, so a minimal varint/length-delimited encoder
// is all that's needed.
package pprofile

// wireType values used by the pprof message set.
const (
	wireVarint = 0
	wireBytes  = 2
)

// wireEncoder accumulates the tag-length-value bytes of a protobuf
// subset sufficient to emit a pprof Profile message.
type wireEncoder struct {
	buf []byte
}

func (e *wireEncoder) bytes() []byte { return e.buf }

func (e *wireEncoder) reset() { e.buf = e.buf[:0] }

// encodeVarint appends the unsigned LEB128 encoding of n.
func (e *wireEncoder) encodeVarint(n uint64) {
	for n >= 0x80 {
		e.buf = append(e.buf, byte(n)|0x80)
		n >>= 7
	}
	e.buf = append(e.buf, byte(n))
}

// encodeTag appends (fieldNumber<<3)|wireType as a varint.
func (e *wireEncoder) encodeTag(fieldNumber int, wireType int) {
	e.encodeVarint(uint64(fieldNumber)<<3 | uint64(wireType))
}

// encodeInt64 emits a signed int64 field unconditionally, as the plain
// (non-zigzag) varint of its two's-complement bit pattern — that is how
// pprof's int64 fields are defined.
func (e *wireEncoder) encodeInt64(fieldNumber int, v int64) {
	e.encodeTag(fieldNumber, wireVarint)
	e.encodeVarint(uint64(v))
}

// encodeInt64Opt emits a signed int64 field only if v != 0 (proto3
// default-value suppression).
func (e *wireEncoder) encodeInt64Opt(fieldNumber int, v int64) {
	if v == 0 {
		return
	}
	e.encodeInt64(fieldNumber, v)
}

// encodeUint64Opt emits an unsigned int64 field only if v != 0.
func (e *wireEncoder) encodeUint64Opt(fieldNumber int, v uint64) {
	if v == 0 {
		return
	}
	e.encodeTag(fieldNumber, wireVarint)
	e.encodeVarint(v)
}

// encodeStrings emits a repeated string field unconditionally, one
// tag-length-bytes triple per entry — including empty entries, which is
// how the pprof string table keeps position 0 ("") present.
func (e *wireEncoder) encodeStrings(fieldNumber int, values []string) {
	for _, s := range values {
		e.encodeTag(fieldNumber, wireBytes)
		e.encodeVarint(uint64(len(s)))
		e.buf = append(e.buf, s...)
	}
}

// encodeInt64s emits a packed repeated int64 field: one tag, the byte
// length of the packed varints, then the varints themselves. Skipped
// when values is empty.
func (e *wireEncoder) encodeInt64s(fieldNumber int, values []int64) {
	if len(values) == 0 {
		return
	}
	e.encodeTag(fieldNumber, wireBytes)
	// The length isn't known up front, so encode into a scratch buffer
	// first and copy it once its size is known.
	var tmp wireEncoder
	for _, v := range values {
		tmp.encodeVarint(uint64(v))
	}
	e.encodeVarint(uint64(len(tmp.buf)))
	e.buf = append(e.buf, tmp.buf...)
}

// encodeUint64s emits a packed repeated uint64 field, as encodeInt64s.
func (e *wireEncoder) encodeUint64s(fieldNumber int, values []uint64) {
	if len(values) == 0 {
		return
	}
	e.encodeTag(fieldNumber, wireBytes)
	var tmp wireEncoder
	for _, v := range values {
		tmp.encodeVarint(v)
	}
	e.encodeVarint(uint64(len(tmp.buf)))
	e.buf = append(e.buf, tmp.buf...)
}

// wireMessage is implemented by every pprof sub-message type so that
// encodeMessage can learn its encoded length before emitting the
// length-delimited field.
type wireMessage interface {
	marshalTo(e *wireEncoder)
}

// encodeMessage writes msg into a scratch buffer to learn its length,
// then emits tag + length + bytes.
func encodeMessage(e *wireEncoder, fieldNumber int, msg wireMessage) {
	var tmp wireEncoder
	msg.marshalTo(&tmp)
	e.encodeTag(fieldNumber, wireBytes)
	e.encodeVarint(uint64(len(tmp.buf)))
	e.buf = append(e.buf, tmp.buf...)
}

// encodeRepeatedMessage calls encodeMessage once per element of msgs.
func encodeRepeatedMessage[T wireMessage](e *wireEncoder, fieldNumber int, msgs []T) {
	for _, msg := range msgs {
		encodeMessage(e, fieldNumber, msg)
	}
}
