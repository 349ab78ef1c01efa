package cli

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeResult contains metadata from the decoding process
type DecodeResult struct {
	// UsedKeys contains all keys that were present in the input
	UsedKeys map[string]bool

	// UnusedKeys contains keys that were in input but not matched to struct fields
	UnusedKeys []string
}

// decodeWithMetadata decodes a config section into output. Durations are
// parsed from strings and a comma separated string fills a slice, so
// `blocked-tests = a.py, b.py` and repeated keys are equivalent.
func decodeWithMetadata(input map[string]any, output any) (*DecodeResult, error) {
	var metadata mapstructure.Metadata

	config := &mapstructure.DecoderConfig{
		Result:           output,
		Metadata:         &metadata,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		MatchName:        caseInsensitiveMatch,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	result := &DecodeResult{
		UsedKeys:   make(map[string]bool),
		UnusedKeys: metadata.Unused,
	}
	for _, key := range metadata.Keys {
		result.UsedKeys[normalizeKey(key)] = true
	}

	return result, nil
}

func caseInsensitiveMatch(mapKey, fieldName string) bool {
	return strings.EqualFold(normalizeKey(mapKey), normalizeKey(fieldName))
}

// normalizeKey folds kebab-case and snake_case keys to one form
func normalizeKey(key string) string {
	k := strings.ToLower(key)
	k = strings.ReplaceAll(k, "-", "")
	k = strings.ReplaceAll(k, "_", "")
	return k
}
