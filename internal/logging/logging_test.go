package logging

import (
	"reflect"
	"testing"
)

func TestKVPairSerialization(t *testing.T) {
	testCases := []struct {
		kvpairs  []interface{}
		expected map[string]interface{}
	}{
		{
			[]interface{}{"worker", 3, "status", "ok"},
			map[string]interface{}{
				"worker": 3,
				"status": "ok",
			},
		},
		{
			[]interface{}{"worker"},
			map[string]interface{}{},
		},
		{
			[]interface{}{"worker", 3, "status"},
			map[string]interface{}{},
		},
	}

	for i, tc := range testCases {
		actual := serializeKVPairs(tc.kvpairs...)
		if !reflect.DeepEqual(actual, tc.expected) {
			t.Errorf("Test case %d: Expected result %v, but got %v", i, tc.expected, actual)
		}
	}
}
