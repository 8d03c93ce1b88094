package catalog

import "encoding/json"

// The annotation lists and every posting set are stored as a single JSON
// array column. JSON keeps the store inspectable with plain sqlite tooling
// and round-trips the empty list as "[]", which stays distinct from a
// missing row.

func encodeList(list []string) []byte {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		// a []string cannot fail to marshal
		panic(err)
	}
	return b
}

func decodeList(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	list := []string{}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// encodeJSONList / decodeJSONList carry the typed annotation lists
// (purchases, lend events) through the same column convention.

func encodeJSONList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}

func decodeJSONList[T any](data []byte) ([]T, error) {
	if len(data) == 0 {
		return []T{}, nil
	}
	list := []T{}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
