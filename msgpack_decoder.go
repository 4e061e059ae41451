package apiforms

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackDecoder decodes MessagePack bodies.
type MsgpackDecoder struct{}

func NewMsgpackDecoder() *MsgpackDecoder {
	return &MsgpackDecoder{}
}

func (md *MsgpackDecoder) Name() string {
	return MsgpackDecoderName
}

func (md *MsgpackDecoder) MediaTypes() []string {
	return []string{ContentTypeXMsgpack, ContentTypeApplicationMsgpack}
}

func (md *MsgpackDecoder) Decode(body []byte) (any, error) {
	var out any
	if err := msgpack.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling msgpack data: %v", ErrMalformedPayload, err)
	}
	return normalizeDecoded(out), nil
}
