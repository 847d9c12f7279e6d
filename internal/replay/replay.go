// Package replay пишет и читает бинарный журнал решений агентов за сессию.
//
// Формат: заголовок файла, затем записи подряд. Строки (ID агента и посылки)
// идут сразу за заголовком записи, длины лежат в заголовке.
package replay

import (
	"deliveroo-agent/internal/domain"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	MagicHeader string = `DLRP` // 4 байта
	Version1    uint32 = 1
)

var (
	ErrBadMagic     = errors.New("invalid magic")
	ErrVersion      = errors.New("unsupported version")
	ErrFieldTooLong = errors.New("field too long")
)

// FileHeader - точное представление заголовка файла.
// binary.Write пишет его целиком: внутри только массивы и числа.
type FileHeader struct {
	Magic       [4]byte // 4 байта
	Version     uint32  // 4 байта
	Seed        int64   // 8 байт
	Timestamp   int64   // 8 байт
	RecordCount int32   // 4 байта
}

// RecordHeader - заголовок каждой записи
type RecordHeader struct {
	Tick      int32 // 4
	Action    uint8 // 1
	Direction uint8 // 1
	OK        uint8 // 1
	AgentLen  uint8 // 1
	ItemLen   uint8 // 1
}

// Record - одно отправленное действие
type Record struct {
	Tick    int
	AgentID string
	Action  domain.ActionType
	Dir     domain.Direction
	ItemID  string
	OK      bool
}

type Log struct {
	Seed      int64
	Timestamp int64
	Records   []Record
}

// Add дописывает действие агента
func (l *Log) Add(tick int, agentID string, a domain.Action, ok bool) {
	l.Records = append(l.Records, Record{
		Tick:    tick,
		AgentID: agentID,
		Action:  a.Type,
		Dir:     a.Direction,
		ItemID:  a.ItemID,
		OK:      ok,
	})
}

func (l *Log) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, l)
}

func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Write(w io.Writer, l *Log) error {
	header := FileHeader{
		Version:     Version1,
		Seed:        l.Seed,
		Timestamp:   l.Timestamp,
		RecordCount: int32(len(l.Records)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range l.Records {
		agent, item := []byte(r.AgentID), []byte(r.ItemID)
		if len(agent) > 255 || len(item) > 255 {
			return fmt.Errorf("tick %d: %w", r.Tick, ErrFieldTooLong)
		}
		rh := RecordHeader{
			Tick:      int32(r.Tick),
			Action:    uint8(r.Action),
			Direction: uint8(r.Dir),
			AgentLen:  uint8(len(agent)),
			ItemLen:   uint8(len(item)),
		}
		if r.OK {
			rh.OK = 1
		}
		if err := binary.Write(w, binary.LittleEndian, &rh); err != nil {
			return err
		}
		if _, err := w.Write(agent); err != nil {
			return err
		}
		if _, err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

func Read(r io.Reader) (*Log, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicHeader {
		return nil, ErrBadMagic
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrVersion, header.Version, Version1)
	}

	l := &Log{
		Seed:      header.Seed,
		Timestamp: header.Timestamp,
		Records:   make([]Record, 0, header.RecordCount),
	}
	for i := 0; i < int(header.RecordCount); i++ {
		var rh RecordHeader
		if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		buf := make([]byte, int(rh.AgentLen)+int(rh.ItemLen))
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("record %d body: %w", i, err)
		}
		l.Records = append(l.Records, Record{
			Tick:    int(rh.Tick),
			AgentID: string(buf[:rh.AgentLen]),
			Action:  domain.ActionType(rh.Action),
			Dir:     domain.Direction(rh.Direction),
			ItemID:  string(buf[rh.AgentLen:]),
			OK:      rh.OK == 1,
		})
	}
	return l, nil
}
