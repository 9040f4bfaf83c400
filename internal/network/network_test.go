package network

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annel0/airtrap-server/internal/protocol"
)

// startServer поднимает транспорт на свободных портах loopback
func startServer(t *testing.T) (*Server, *EventQueue) {
	t.Helper()

	queue := NewEventQueue()
	srv, err := NewServer("127.0.0.1:0", "127.0.0.1:0", queue, nil)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Stop)
	return srv, queue
}

// readWelcome читает кадр Welcome и возвращает выданный session id
func readWelcome(t *testing.T, conn net.Conn) uint32 {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	headerBuf := make([]byte, protocol.HeaderSize)
	_, err := io.ReadFull(conn, headerBuf)
	require.NoError(t, err)

	header, err := protocol.DecodeHeader(headerBuf)
	require.NoError(t, err)
	require.Equal(t, protocol.OpWelcome, header.OpCode)

	body := make([]byte, header.BodySize)
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)

	var welcome protocol.WelcomePayload
	require.NoError(t, welcome.Unmarshal(body))
	return welcome.SessionID
}

// waitEvent ждёт появления события, удовлетворяющего предикату
func waitEvent(t *testing.T, queue *EventQueue, match func(NetworkEvent) bool) NetworkEvent {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range queue.Drain() {
			if match(ev) {
				return ev
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("событие не пришло за отведённое время")
	return NetworkEvent{}
}

func TestWelcomeAssignsMonotonicSessionIDs(t *testing.T) {
	srv, _ := startServer(t)

	first, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	defer first.Close()
	id1 := readWelcome(t, first)

	second, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	defer second.Close()
	id2 := readWelcome(t, second)

	// Идентификаторы начинаются с 1 и растут монотонно
	require.Equal(t, uint32(1), id1)
	require.Equal(t, uint32(2), id2)
}

func TestTCPFrameReachesQueue(t *testing.T) {
	srv, queue := startServer(t)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	id := readWelcome(t, conn)

	body := (&protocol.CredentialsPayload{Username: "ada", Password: "pw"}).Marshal()
	_, err = conn.Write(protocol.NewPacket(protocol.OpLoginRequest, id, body).Encode())
	require.NoError(t, err)

	ev := waitEvent(t, queue, func(ev NetworkEvent) bool {
		return ev.Kind == EventPacket && ev.Packet.Header.OpCode == protocol.OpLoginRequest
	})
	require.Equal(t, id, ev.SessionID)
}

func TestUDPHelloBindsEndpoint(t *testing.T) {
	srv, queue := startServer(t)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	id := readWelcome(t, conn)

	udp, err := net.Dial("udp", srv.UDPAddr().String())
	require.NoError(t, err)
	defer udp.Close()

	// До Hello датаграммы отбрасываются молча
	input := (&protocol.InputTickPayload{Tick: 1, Mask: protocol.InputShoot}).Marshal()
	_, err = udp.Write(protocol.NewPacket(protocol.OpInputTick, id, input).Encode())
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	for _, ev := range queue.Drain() {
		if ev.Kind == EventPacket && ev.Packet.Header.OpCode == protocol.OpInputTick {
			t.Fatal("датаграмма от непривязанного endpoint не должна публиковаться")
		}
	}

	// Hello привязывает endpoint; Hello сам не публикуется
	_, err = udp.Write(protocol.NewPacket(protocol.OpHello, id, nil).Encode())
	require.NoError(t, err)

	// Последующие датаграммы атрибутируются сессии
	require.Eventually(t, func() bool {
		_, errW := udp.Write(protocol.NewPacket(protocol.OpInputTick, id, input).Encode())
		if errW != nil {
			return false
		}
		for _, ev := range queue.Drain() {
			if ev.Kind == EventPacket && ev.Packet.Header.OpCode == protocol.OpInputTick {
				require.Equal(t, id, ev.SessionID)
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPingAnsweredByTransport(t *testing.T) {
	srv, queue := startServer(t)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	id := readWelcome(t, conn)

	ping := protocol.NewPacket(protocol.OpPing, id, nil)
	ping.Header.SequenceID = 77
	_, err = conn.Write(ping.Encode())
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	headerBuf := make([]byte, protocol.HeaderSize)
	_, err = io.ReadFull(conn, headerBuf)
	require.NoError(t, err)

	header, err := protocol.DecodeHeader(headerBuf)
	require.NoError(t, err)
	require.Equal(t, protocol.OpPong, header.OpCode)
	require.Equal(t, uint32(77), header.AckID)

	// Ping не публикуется как игровое событие
	time.Sleep(50 * time.Millisecond)
	for _, ev := range queue.Drain() {
		if ev.Kind == EventPacket {
			t.Fatalf("лишнее событие в очереди: %v", ev.Packet.Header.OpCode)
		}
	}
}

func TestDisconnectPublishesEvent(t *testing.T) {
	srv, queue := startServer(t)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	id := readWelcome(t, conn)

	waitEvent(t, queue, func(ev NetworkEvent) bool {
		return ev.Kind == EventConnected && ev.SessionID == id
	})

	conn.Close()

	waitEvent(t, queue, func(ev NetworkEvent) bool {
		return ev.Kind == EventDisconnected && ev.SessionID == id
	})

	_, ok := srv.Session(id)
	require.False(t, ok, "сессия должна быть удалена из таблицы")
}

func TestBadMagicDisconnects(t *testing.T) {
	srv, queue := startServer(t)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	id := readWelcome(t, conn)

	garbage := make([]byte, protocol.HeaderSize)
	copy(garbage, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	_, err = conn.Write(garbage)
	require.NoError(t, err)

	// Искажённый TCP поток невосстановим — сервер рвёт соединение
	waitEvent(t, queue, func(ev NetworkEvent) bool {
		return ev.Kind == EventDisconnected && ev.SessionID == id
	})
	_, ok := srv.Session(id)
	require.False(t, ok)
}
