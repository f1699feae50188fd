package ctc

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestGreedyDecode(t *testing.T) {
	dict := []string{"", "1", "2", "가", "3"}

	testCases := []struct {
		indices []int
		want    string
	}{
		{[]int{1, 1, 0, 2, 2, 3, 0, 4}, "12가3"},
		{[]int{1, 0, 1}, "11"},
		{[]int{0, 0, 0}, ""},
		{[]int{2, 9, 2}, "22"},
		{nil, ""},
	}

	for _, tc := range testCases {
		if got := greedyDecode(tc.indices, dict); got != tc.want {
			t.Errorf("greedyDecode(%v) = %q, want %q", tc.indices, got, tc.want)
		}
	}
}

func TestArgmax(t *testing.T) {
	scores := []float32{
		0.9, 0.05, 0.05,
		0.1, 0.2, 0.7,
		0.3, 0.6, 0.1,
	}
	if got := argmax(scores, 3); !reflect.DeepEqual(got, []int{0, 2, 1}) {
		t.Errorf("argmax() = %v", got)
	}
	if got := argmax(scores, 0); got != nil {
		t.Errorf("argmax() with no classes = %v", got)
	}
}

func TestLoadDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte("<blank>\r\n0\r\n1\r\n가\r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	dict, err := LoadDict(path)
	if err != nil {
		t.Fatalf("LoadDict() error: %v", err)
	}
	if !reflect.DeepEqual(dict, []string{"<blank>", "0", "1", "가"}) {
		t.Errorf("dict = %q", dict)
	}

	if _, err := LoadDict(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("LoadDict() on a missing file returned no error")
	}
}
