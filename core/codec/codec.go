package codec

import (
	"encoding/json"
	"fmt"
)

// Codec converts entities of type T to and from wire text.
type Codec[T any] interface {
	// Encode renders entity as wire text.
	Encode(entity T) (string, error)
	// Decode parses wire text into an entity.
	Decode(text string) (T, error)
}

// JSON is a Codec backed by encoding/json. The zero value is ready to use.
type JSON[T any] struct{}

// Encode implements Codec.
func (JSON[T]) Encode(entity T) (string, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return string(data), nil
}

// Decode implements Codec.
func (JSON[T]) Decode(text string) (T, error) {
	var entity T
	if err := json.Unmarshal([]byte(text), &entity); err != nil {
		return entity, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return entity, nil
}
