// Package codec frames lobby messages for the wire. JSON is the default; the
// proto codec carries the same envelope as a google.protobuf.Struct in
// binary frames.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"homegame/table"
)

const (
	NameJSON  = "json"
	NameProto = "proto"
)

// Codec converts frames to messages and back. Implementations are
// stateless and safe for concurrent use.
type Codec interface {
	Name() string
	// Binary reports whether frames go out as binary websocket messages.
	Binary() bool
	Decode(data []byte) (ClientMessage, error)
	Encode(msg ServerMessage) ([]byte, error)
}

// ByName resolves a codec from a query value; empty selects JSON.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON{}, nil
	case NameProto:
		return Proto{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type JSON struct{}

func (JSON) Name() string { return NameJSON }

func (JSON) Binary() bool { return false }

func (JSON) Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		if errors.Is(err, table.ErrValidation) {
			return ClientMessage{}, err
		}
		return ClientMessage{}, table.ErrMalformed
	}
	msg.Type = strings.TrimSpace(msg.Type)
	if msg.Type == "" {
		return ClientMessage{}, table.ErrMalformed
	}
	return msg, nil
}

func (JSON) Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

type Proto struct{}

func (Proto) Name() string { return NameProto }

func (Proto) Binary() bool { return true }

func (Proto) Decode(data []byte) (ClientMessage, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return ClientMessage{}, table.ErrMalformed
	}
	raw, err := protojson.Marshal(&st)
	if err != nil {
		return ClientMessage{}, table.ErrMalformed
	}
	return JSON{}.Decode(raw)
}

func (Proto) Encode(msg ServerMessage) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var st structpb.Struct
	if err := protojson.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("codec: struct from json: %w", err)
	}
	return proto.Marshal(&st)
}
