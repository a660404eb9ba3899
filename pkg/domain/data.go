package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeData loads the session's Data into a typed struct tagged with
// `mapstructure`. Numbers and slices survive a JSON round trip through the
// store, so decoding is weakly typed.
func (s *Session) DecodeData(out any) error {
	return DecodeMap(s.Data, out)
}

// EncodeData replaces the session's Data with the fields of a typed struct.
func (s *Session) EncodeData(in any) error {
	data := make(map[string]any)
	if err := mapstructure.Decode(in, &data); err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}
	s.Data = data
	return nil
}

// DecodeMap decodes a generic object (session data, agent report) into out.
func DecodeMap(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return nil
}
