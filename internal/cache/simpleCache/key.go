package simpleCache

import (
	"reflect"
	"sort"
	"strings"

	"simplecache/internal/logger"
	"simplecache/internal/models"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ForbiddenKeyChars lists the characters a cache key may not contain
const ForbiddenKeyChars = `{}()/\@:`

const (
	msgKeyNotString      = "A valid cache key must be a non-empty string"
	msgKeyForbiddenChar  = "A valid cache key can not contain any of the following characters: [ {}()/\\@: ]"
	msgKeysNotIterable   = "A valid cache key list must be iterable"
	msgValuesNotIterable = "The list of values must be iterable"
)

// ValidateKey returns key as a string if it is a non-empty string free of
// ForbiddenKeyChars, and an InvalidArgument error otherwise.
func ValidateKey(key interface{}) (string, error) {
	return validateKey(logger.OpValidateKey, key)
}

// ValidateKeys validates every element of a slice or array in order and
// stops at the first invalid key.
func ValidateKeys(keys interface{}) ([]string, error) {
	return validateKeys(logger.OpValidateKey, keys)
}

func validateKey(op string, key interface{}) (string, error) {
	s, ok := key.(string)
	if !ok || s == "" {
		return "", models.NewInvalidArgumentError(op, "", msgKeyNotString)
	}

	if strings.ContainsAny(s, ForbiddenKeyChars) {
		return "", models.NewInvalidArgumentError(op, s, msgKeyForbiddenChar)
	}

	return s, nil
}

func validateKeys(op string, keys interface{}) ([]string, error) {
	switch v := keys.(type) {
	case []string:
		validated := make([]string, 0, len(v))
		for _, key := range v {
			k, err := validateKey(op, key)
			if err != nil {
				return nil, err
			}
			validated = append(validated, k)
		}
		return validated, nil
	case nil:
		return nil, models.NewInvalidArgumentError(op, "", msgKeysNotIterable)
	}

	rv := reflect.ValueOf(keys)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, models.NewInvalidArgumentError(op, "", msgKeysNotIterable)
	}

	validated := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		k, err := validateKey(op, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		validated = append(validated, k)
	}
	return validated, nil
}

// ValuesFromAny converts a decoded key/value collection into the ordered
// form SetMultiple takes. Plain maps are ordered by key since Go maps carry
// no insertion order. Keys are not validated here.
func ValuesFromAny(values interface{}) (*orderedmap.OrderedMap[string, interface{}], error) {
	switch v := values.(type) {
	case *orderedmap.OrderedMap[string, interface{}]:
		if v != nil {
			return v, nil
		}
	case map[string]interface{}:
		if v != nil {
			keys := make([]string, 0, len(v))
			for key := range v {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			ordered := orderedmap.New[string, interface{}]()
			for _, key := range keys {
				ordered.Set(key, v[key])
			}
			return ordered, nil
		}
	}
	return nil, models.NewInvalidArgumentError(logger.OpCacheSetMultiple, "", msgValuesNotIterable)
}
