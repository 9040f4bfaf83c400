package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Magic:      Magic,
		OpCode:     OpInputTick,
		BodySize:   5,
		SequenceID: 42,
		AckID:      41,
		SessionID:  7,
	}

	buf := make([]byte, HeaderSize)
	EncodeHeader(buf, h)

	decoded, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("неожиданная ошибка декодирования: %v", err)
	}
	if decoded != h {
		t.Errorf("заголовок исказился: %+v != %+v", decoded, h)
	}
}

func TestHeaderBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeader(buf, Header{Magic: 0xDEADBEEF, OpCode: OpHello})

	if _, err := DecodeHeader(buf); !errors.Is(err, ErrBadMagic) {
		t.Errorf("ожидали ErrBadMagic, получили %v", err)
	}
}

func TestHeaderShortBuffer(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); !errors.Is(err, ErrShortFrame) {
		t.Errorf("ожидали ErrShortFrame, получили %v", err)
	}
}

func TestDecodePacketSizeMismatch(t *testing.T) {
	// Датаграмма заявляет тело 10 байт, но несёт только 3
	pkt := NewPacket(OpInputTick, 1, []byte{1, 2, 3})
	raw := pkt.Encode()
	raw[5], raw[6], raw[7], raw[8] = 0, 0, 0, 10

	if _, err := DecodePacket(raw); err == nil {
		t.Error("датаграмма с неверным размером тела должна отклоняться")
	}
}

func TestPacketEncodeDecode(t *testing.T) {
	body := (&InputTickPayload{Tick: 100, Mask: InputMoveUp | InputShoot}).Marshal()
	raw := NewPacket(OpInputTick, 7, body).Encode()

	pkt, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if pkt.Header.OpCode != OpInputTick || pkt.Header.SessionID != 7 {
		t.Errorf("заголовок разобран неверно: %+v", pkt.Header)
	}

	var input InputTickPayload
	if err := input.Unmarshal(pkt.Body); err != nil {
		t.Fatalf("ошибка разбора тела: %v", err)
	}
	if input.Tick != 100 || input.Mask != (InputMoveUp|InputShoot) {
		t.Errorf("тело разобрано неверно: %+v", input)
	}
}

func TestStringPayloadTruncated(t *testing.T) {
	// Строка с префиксом длины больше фактических данных
	w := NewWriter()
	w.PutU16(100)
	body := append(w.Bytes(), []byte("abc")...)

	var creds CredentialsPayload
	if err := creds.Unmarshal(body); !errors.Is(err, ErrTruncated) {
		t.Errorf("ожидали ErrTruncated, получили %v", err)
	}
}

func TestRoomUpdateCountMismatch(t *testing.T) {
	// Заявлено 3 записи, но в теле только одна
	good := (&RoomUpdatePayload{
		Tick:     1,
		Entities: []EntityState{{NetworkID: 5, X: 1, Y: 2}},
	}).Marshal()
	bad := bytes.Clone(good)
	bad[4], bad[5] = 0, 3

	var snap RoomUpdatePayload
	if err := snap.Unmarshal(bad); err == nil {
		t.Error("снапшот с неверным счётчиком записей должен отклоняться")
	}
}

func TestRoomUpdateRoundTrip(t *testing.T) {
	src := RoomUpdatePayload{
		Tick: 600,
		Entities: []EntityState{
			{NetworkID: 1, X: 100, Y: 200, VelX: -120, Rotation: 0},
			{NetworkID: 2, X: 950, Y: 340, VelY: 35.5, Rotation: 90},
		},
	}

	var dst RoomUpdatePayload
	if err := dst.Unmarshal(src.Marshal()); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(dst.Entities) != 2 || dst.Tick != 600 {
		t.Fatalf("снапшот разобран неверно: %+v", dst)
	}
	if dst.Entities[0] != src.Entities[0] || dst.Entities[1] != src.Entities[1] {
		t.Errorf("записи исказились: %+v", dst.Entities)
	}
}
