package samplerange

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		indices []int
		want    string
	}{
		{[]int{4}, "4"},
		{[]int{1, 2}, "1,2"},
		{[]int{1, 2, 3}, "1-3"},
		{[]int{1, 2, 3, 5, 7, 8, 9}, "1-3,5,7-9"},
		{[]int{5, 6}, "5,6"},
		{[]int{9, 1, 9, 2, 3}, "1-3,9"},
		{nil, ""},
	}

	for _, c := range cases {
		if got := Encode(c.indices); got != c.want {
			t.Errorf("Encode(%v) = %q, want %q", c.indices, got, c.want)
		}
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode("1-3,5,7-9")
	if err != nil {
		t.Fatal(err)
	}
	want := Set{1, 2, 3, 5, 7, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}

	// A dash pair is accepted even though Encode never emits it.
	got, err = Decode("1-2")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, Set{1, 2}) {
		t.Errorf("Decode(1-2) = %v", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, s := range []string{"", "a", "1-", "-3", "3-1", "0", "1,,2", "1-2-3"} {
		if _, err := Decode(s); !errors.Is(err, ErrMalformedRange) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformedRange", s, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	sets := [][]int{
		{1}, {1, 2}, {1, 3}, {1, 2, 3}, {2, 4, 6, 8},
		{1, 2, 4, 5, 6, 9, 10}, {100, 101, 102, 200},
	}
	for _, s := range sets {
		decoded, err := Decode(Encode(s))
		if err != nil {
			t.Fatalf("round trip of %v: %v", s, err)
		}
		if !reflect.DeepEqual(decoded, New(s...)) {
			t.Errorf("round trip of %v gave %v", s, decoded)
		}
	}
}

func TestSetContains(t *testing.T) {
	s := New(3, 1, 7)
	for _, v := range []int{1, 3, 7} {
		if !s.Contains(v) {
			t.Errorf("Contains(%d) = false", v)
		}
	}
	if s.Contains(2) {
		t.Error("Contains(2) = true")
	}
}

func TestDecodeLenient(t *testing.T) {
	got := DecodeLenient("1-3,junk,5")
	if !reflect.DeepEqual(got, Set{1, 2, 3, 5}) {
		t.Errorf("DecodeLenient = %v", got)
	}
}
