package args

// Serialize converts m into CLI tokens, in insertion order:
//
//	true      → --key
//	false     → (nothing)
//	[]string  → --key a,b,c
//	otherwise → --key value
//
// No sorting or deduplication is done.
func Serialize(m *Map) []string {
	tokens := make([]string, 0, m.Len()*2)
	m.Range(func(key string, v Value) bool {
		flag := "--" + key
		switch v.Kind() {
		case KindBool:
			if v.Bool() {
				tokens = append(tokens, flag)
			}
		default:
			tokens = append(tokens, flag, v.Text())
		}
		return true
	})
	return tokens
}
