package diff

// deepEqual reports structural equality over the closed set of value
// shapes produced by decoding schema documents: strings, numbers, bools,
// nil, order-sensitive arrays, and nested string-keyed maps.
//
// An absent map key is not equal to a key present with a nil value: map
// equality requires identical key sets before values are compared.
func deepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !deepEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Numbers compare by normalized float value: JSON decodes them
		// as float64, restored snapshots may carry integer types.
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if aok || bok {
			return aok && bok && af == bf
		}
		return a == b
	}
}

// toFloat normalizes the numeric types a decoder may produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
