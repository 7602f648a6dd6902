package broker

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/crypto-telemetry/internal/models"
)

// Message kinds. Every payload that crosses a broker endpoint carries one of
// these tags so subscribers can decode without out-of-band schema knowledge.
const (
	KindInstrument uint8 = iota + 1
	KindPriceTaskResult
	KindAccountTask
	KindAccountTaskResult
	KindBinanceOrder
	KindBinanceBalance
	KindBinancePosition
	KindOkxOrder
	KindOkxBalance
	KindKucoinOrder
	KindKucoinBalance
)

// Envelope is one decoded frame: a kind tag plus the raw msgpack payload.
type Envelope struct {
	Kind uint8
	Data []byte
}

func kindOf(v any) (uint8, error) {
	switch v.(type) {
	case models.Instrument, *models.Instrument:
		return KindInstrument, nil
	case models.PriceTaskResult, *models.PriceTaskResult:
		return KindPriceTaskResult, nil
	case models.AccountTask, *models.AccountTask:
		return KindAccountTask, nil
	case models.AccountTaskResult, *models.AccountTaskResult:
		return KindAccountTaskResult, nil
	case models.BinanceOrderUpdate, *models.BinanceOrderUpdate:
		return KindBinanceOrder, nil
	case models.BinanceBalanceUpdate, *models.BinanceBalanceUpdate:
		return KindBinanceBalance, nil
	case models.BinanceAccountPosition, *models.BinanceAccountPosition:
		return KindBinancePosition, nil
	case models.OkxOrderUpdate, *models.OkxOrderUpdate:
		return KindOkxOrder, nil
	case models.OkxBalanceData, *models.OkxBalanceData:
		return KindOkxBalance, nil
	case models.KucoinOrderUpdate, *models.KucoinOrderUpdate:
		return KindKucoinOrder, nil
	case models.KucoinBalanceUpdate, *models.KucoinBalanceUpdate:
		return KindKucoinBalance, nil
	}
	return 0, fmt.Errorf("no broker kind for %T", v)
}

// Encode packs a typed value into a tagged wire blob.
func Encode(v any) ([]byte, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	out := make([]byte, 1+len(payload))
	out[0] = kind
	copy(out[1:], payload)
	return out, nil
}

// DecodeEnvelope splits a wire blob back into kind and payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) < 1 {
		return Envelope{}, fmt.Errorf("empty broker frame")
	}
	return Envelope{Kind: data[0], Data: data[1:]}, nil
}

// Decode unmarshals the envelope payload into v, which must match the kind.
func Decode(env Envelope, v any) error {
	return msgpack.Unmarshal(env.Data, v)
}

// DecodeAny materializes the payload as its concrete model type.
func DecodeAny(env Envelope) (any, error) {
	var (
		v   any
		err error
	)
	switch env.Kind {
	case KindInstrument:
		out := models.Instrument{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindPriceTaskResult:
		out := models.PriceTaskResult{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindAccountTask:
		out := models.AccountTask{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindAccountTaskResult:
		out := models.AccountTaskResult{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindBinanceOrder:
		out := models.BinanceOrderUpdate{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindBinanceBalance:
		out := models.BinanceBalanceUpdate{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindBinancePosition:
		out := models.BinanceAccountPosition{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindOkxOrder:
		out := models.OkxOrderUpdate{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindOkxBalance:
		out := models.OkxBalanceData{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindKucoinOrder:
		out := models.KucoinOrderUpdate{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	case KindKucoinBalance:
		out := models.KucoinBalanceUpdate{}
		err, v = msgpack.Unmarshal(env.Data, &out), out
	default:
		return nil, fmt.Errorf("unknown broker kind %d", env.Kind)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
