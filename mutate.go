package flux

import "fmt"

// applyArrayMutation applies one array mutation to cur, returning the new
// slice and the "objects" payload for the resulting event: the inserted or
// replaced values for insert/replace, or the removed count for remove.
func applyArrayMutation(cur []interface{}, kind Mutation, index int, value interface{}) ([]interface{}, interface{}, error) {
	switch kind {
	case MutationInsert:
		items, err := toItemSlice(value)
		if err != nil {
			return nil, nil, err
		}
		if index < 0 || index > len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		next := make([]interface{}, 0, len(cur)+len(items))
		next = append(next, cur[:index]...)
		next = append(next, items...)
		next = append(next, cur[index:]...)
		return next, items, nil

	case MutationRemove:
		count := 1
		if n, ok := value.(int); ok {
			count = n
		}
		if index < 0 || count < 0 || index+count > len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		next := make([]interface{}, 0, len(cur)-count)
		next = append(next, cur[:index]...)
		next = append(next, cur[index+count:]...)
		return next, count, nil

	case MutationReplace:
		items, err := toItemSlice(value)
		if err != nil {
			return nil, nil, err
		}
		if index < 0 || index+len(items) > len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		next := make([]interface{}, len(cur))
		copy(next, cur)
		copy(next[index:index+len(items)], items)
		return next, items, nil

	default:
		return nil, nil, ErrNotArrayProperty
	}
}

func toItemSlice(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case nil:
		return nil, nil
	default:
		return []interface{}{v}, nil
	}
}

// MutateArray applies one array mutation to a plain []interface{} outside
// of a component's storage, for callers (property descriptors, tests) that
// need the same insert/remove/replace semantics without a full component.
// It returns the resulting slice and the event "objects" payload.
func MutateArray(cur []interface{}, kind Mutation, index int, value interface{}) ([]interface{}, interface{}, error) {
	return applyArrayMutation(cur, kind, index, value)
}

// applyDictMutation applies one dict mutation to cur, returning the new map
// and the "objects" payload for the resulting event. Insert and replace both
// merge key/value pairs from value (a map[string]interface{}) into cur,
// since a dict has no positional gap to insert into; replace additionally
// requires every key to already be present. Remove takes a string or
// []string of keys to delete and reports the removed count as objects.
// Dict mutations address elements by key rather than position, so unlike
// the array functions above there is no index parameter.
func applyDictMutation(cur map[string]interface{}, kind Mutation, value interface{}) (map[string]interface{}, interface{}, error) {
	switch kind {
	case MutationInsert, MutationReplace:
		items, err := toDictItems(value)
		if err != nil {
			return nil, nil, err
		}
		if kind == MutationReplace {
			for k := range items {
				if _, ok := cur[k]; !ok {
					return nil, nil, fmt.Errorf("flux: replace on missing key %q", k)
				}
			}
		}
		next := make(map[string]interface{}, len(cur)+len(items))
		for k, v := range cur {
			next[k] = v
		}
		for k, v := range items {
			next[k] = v
		}
		return next, items, nil

	case MutationRemove:
		keys, err := toKeySlice(value)
		if err != nil {
			return nil, nil, err
		}
		next := make(map[string]interface{}, len(cur))
		for k, v := range cur {
			next[k] = v
		}
		removed := 0
		for _, k := range keys {
			if _, ok := next[k]; ok {
				delete(next, k)
				removed++
			}
		}
		return next, removed, nil

	default:
		return nil, nil, ErrNotDictProperty
	}
}

func toDictItems(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case nil:
		return map[string]interface{}{}, nil
	default:
		return nil, fmt.Errorf("flux: expected map[string]interface{}, got %T", value)
	}
}

func toKeySlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("flux: expected string key, got %T", item)
			}
			keys = append(keys, s)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("flux: expected string or []string of keys, got %T", value)
	}
}

// MutateDict applies one dict mutation to a plain map[string]interface{}
// outside of a component's storage, mirroring MutateArray for map-valued
// properties. It returns the resulting map and the event "objects" payload.
func MutateDict(cur map[string]interface{}, kind Mutation, value interface{}) (map[string]interface{}, interface{}, error) {
	return applyDictMutation(cur, kind, value)
}
