package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic — сигнатура кадра. Кадр с другим значением отбрасывается.
const Magic uint32 = 0xA1B2C3D4

// HeaderSize — размер заголовка кадра в байтах
const HeaderSize = 21

// MaxBodySize ограничивает тело кадра (защита от мусорных длин)
const MaxBodySize = 64 * 1024

var (
	ErrBadMagic   = errors.New("protocol: bad magic")
	ErrShortFrame = errors.New("protocol: frame too short")
	ErrBodySize   = errors.New("protocol: body size out of range")
)

// Header — заголовок каждого кадра, TCP и UDP.
// Все многобайтовые поля передаются в сетевом порядке байт.
type Header struct {
	Magic      uint32
	OpCode     OpCode
	BodySize   uint32
	SequenceID uint32
	AckID      uint32
	SessionID  uint32
}

// EncodeHeader записывает заголовок в dst (len(dst) >= HeaderSize)
func EncodeHeader(dst []byte, h Header) {
	binary.BigEndian.PutUint32(dst[0:4], h.Magic)
	dst[4] = byte(h.OpCode)
	binary.BigEndian.PutUint32(dst[5:9], h.BodySize)
	binary.BigEndian.PutUint32(dst[9:13], h.SequenceID)
	binary.BigEndian.PutUint32(dst[13:17], h.AckID)
	binary.BigEndian.PutUint32(dst[17:21], h.SessionID)
}

// DecodeHeader разбирает заголовок и валидирует сигнатуру и размер тела
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, ErrShortFrame
	}

	h := Header{
		Magic:      binary.BigEndian.Uint32(src[0:4]),
		OpCode:     OpCode(src[4]),
		BodySize:   binary.BigEndian.Uint32(src[5:9]),
		SequenceID: binary.BigEndian.Uint32(src[9:13]),
		AckID:      binary.BigEndian.Uint32(src[13:17]),
		SessionID:  binary.BigEndian.Uint32(src[17:21]),
	}

	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: 0x%08X", ErrBadMagic, h.Magic)
	}
	if h.BodySize > MaxBodySize {
		return Header{}, fmt.Errorf("%w: %d", ErrBodySize, h.BodySize)
	}

	return h, nil
}

// Packet — декодированный кадр: заголовок плюс сырое тело
type Packet struct {
	Header Header
	Body   []byte
}

// NewPacket собирает пакет с проставленной сигнатурой и размером тела
func NewPacket(op OpCode, sessionID uint32, body []byte) *Packet {
	return &Packet{
		Header: Header{
			Magic:     Magic,
			OpCode:    op,
			BodySize:  uint32(len(body)),
			SessionID: sessionID,
		},
		Body: body,
	}
}

// Encode сериализует кадр целиком (заголовок + тело)
func (p *Packet) Encode() []byte {
	buf := make([]byte, HeaderSize+len(p.Body))
	p.Header.BodySize = uint32(len(p.Body))
	EncodeHeader(buf, p.Header)
	copy(buf[HeaderSize:], p.Body)
	return buf
}

// DecodePacket разбирает кадр из датаграммы.
// Длина датаграммы обязана точно соответствовать HeaderSize+BodySize.
func DecodePacket(data []byte) (*Packet, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) != HeaderSize+int(h.BodySize) {
		return nil, fmt.Errorf("%w: datagram %d bytes, want %d",
			ErrBodySize, len(data), HeaderSize+int(h.BodySize))
	}
	return &Packet{Header: h, Body: data[HeaderSize:]}, nil
}
