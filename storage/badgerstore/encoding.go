package badgerstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/acksell/hbnb/models"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key format: [objectPrefix][big-endian sequence][composite key]
//
// The sequence is the entity's position in the registry, so a prefix scan
// yields entities in insertion order.

const keySeparator byte = 0x00

var objectPrefix = []byte{'o', 'b', 'j', keySeparator}

func encodeKey(seq uint64, compositeKey string) []byte {
	buf := make([]byte, 0, len(objectPrefix)+8+len(compositeKey))
	buf = append(buf, objectPrefix...)
	buf = binary.BigEndian.AppendUint64(buf, seq)
	return append(buf, compositeKey...)
}

func decodeKey(key []byte) (uint64, string, error) {
	if !bytes.HasPrefix(key, objectPrefix) || len(key) < len(objectPrefix)+8 {
		return 0, "", fmt.Errorf("invalid object key %q", key)
	}
	rest := key[len(objectPrefix):]
	return binary.BigEndian.Uint64(rest[:8]), string(rest[8:]), nil
}

// toItem converts an attribute mapping into a DynamoDB item. Floats are
// written with a decimal point so their kind survives.
func toItem(attrs map[string]models.Value) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(attrs))
	for k, v := range attrs {
		av, err := toAttributeValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func toAttributeValue(v models.Value) (types.AttributeValue, error) {
	switch v.Kind() {
	case models.KindString:
		s, _ := v.Str()
		return attributevalue.Marshal(s)
	case models.KindInt:
		i, _ := v.IntVal()
		return attributevalue.Marshal(i)
	case models.KindFloat:
		f, _ := v.FloatVal()
		return &types.AttributeValueMemberN{Value: models.FormatFloat(f)}, nil
	case models.KindMap:
		m, _ := v.MapVal()
		item, err := toItem(m)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: item}, nil
	case models.KindList:
		l, _ := v.ListVal()
		out := make([]types.AttributeValue, len(l))
		for i, item := range l {
			av, err := toAttributeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = av
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}

func fromItem(item map[string]types.AttributeValue) (map[string]models.Value, error) {
	attrs := make(map[string]models.Value, len(item))
	for k, av := range item {
		v, err := fromAttributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		attrs[k] = v
	}
	return attrs, nil
}

func fromAttributeValue(av types.AttributeValue) (models.Value, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return models.String(v.Value), nil
	case *types.AttributeValueMemberN:
		if models.IsIntLiteral(v.Value) {
			var i int64
			if err := attributevalue.Unmarshal(v, &i); err == nil {
				return models.Number(i), nil
			}
		}
		var f float64
		if err := attributevalue.Unmarshal(v, &f); err != nil {
			return models.Value{}, fmt.Errorf("number %q: %w", v.Value, err)
		}
		return models.Number(f), nil
	case *types.AttributeValueMemberM:
		m, err := fromItem(v.Value)
		if err != nil {
			return models.Value{}, err
		}
		return models.Map(m), nil
	case *types.AttributeValueMemberL:
		l := make([]models.Value, len(v.Value))
		for i, item := range v.Value {
			val, err := fromAttributeValue(item)
			if err != nil {
				return models.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			l[i] = val
		}
		return models.List(l...), nil
	default:
		return models.Value{}, fmt.Errorf("unsupported attribute value type %T", av)
	}
}

// Item serialization for BadgerDB values

// SerializeItem serializes a DynamoDB item to bytes for storage.
func SerializeItem(item map[string]types.AttributeValue) ([]byte, error) {
	serializable := make(map[string]serializableAV, len(item))
	for k, v := range item {
		sav, err := toSerializable(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		serializable[k] = sav
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(serializable); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeItem deserializes bytes back to a DynamoDB item.
func DeserializeItem(data []byte) (map[string]types.AttributeValue, error) {
	var serializable map[string]serializableAV
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&serializable); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}

	result := make(map[string]types.AttributeValue, len(serializable))
	for k, v := range serializable {
		av, err := fromSerializable(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		result[k] = av
	}
	return result, nil
}

// serializableAV is a gob-encodable representation of AttributeValue
type serializableAV struct {
	Type  string
	Value any
}

func init() {
	gob.Register(map[string]serializableAV{})
	gob.Register([]serializableAV{})
}

func toSerializable(av types.AttributeValue) (serializableAV, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return serializableAV{Type: "S", Value: v.Value}, nil
	case *types.AttributeValueMemberN:
		return serializableAV{Type: "N", Value: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]serializableAV, len(v.Value))
		for k, val := range v.Value {
			sav, err := toSerializable(val)
			if err != nil {
				return serializableAV{}, err
			}
			m[k] = sav
		}
		return serializableAV{Type: "M", Value: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]serializableAV, len(v.Value))
		for i, val := range v.Value {
			sav, err := toSerializable(val)
			if err != nil {
				return serializableAV{}, err
			}
			l[i] = sav
		}
		return serializableAV{Type: "L", Value: l}, nil
	default:
		return serializableAV{}, fmt.Errorf("unsupported attribute value type: %T", av)
	}
}

func fromSerializable(sav serializableAV) (types.AttributeValue, error) {
	switch sav.Type {
	case "S":
		s, ok := sav.Value.(string)
		if !ok {
			break
		}
		return &types.AttributeValueMemberS{Value: s}, nil
	case "N":
		s, ok := sav.Value.(string)
		if !ok {
			break
		}
		return &types.AttributeValueMemberN{Value: s}, nil
	case "M":
		in, ok := sav.Value.(map[string]serializableAV)
		if !ok {
			break
		}
		m := make(map[string]types.AttributeValue, len(in))
		for k, v := range in {
			av, err := fromSerializable(v)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		in, ok := sav.Value.([]serializableAV)
		if !ok {
			break
		}
		l := make([]types.AttributeValue, len(in))
		for i, v := range in {
			av, err := fromSerializable(v)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unsupported serializable type: %s", sav.Type)
	}
	return nil, fmt.Errorf("serializable %s holds %T", sav.Type, sav.Value)
}
