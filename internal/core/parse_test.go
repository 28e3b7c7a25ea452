package core

import (
	"reflect"
	"testing"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{"duplicates and junk", "5, 5, abc, -1, 6", []int64{5, 6}},
		{"whitespace separators", "1\n2\t3  4", []int64{1, 2, 3, 4}},
		{"zero dropped", "0,7", []int64{7}},
		{"empty", "  ", nil},
		{"capped at ten", "1,2,3,4,5,6,7,8,9,10,11,12", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"cap counts unique ids", "1,1,1,2,3,4,5,6,7,8,9,10,11", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIDList(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseIDList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseTagList(t *testing.T) {
	got := ParseTagList(" food, Food ,food,, travel ")
	want := []string{"food", "Food", "travel"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseTagList = %v, want %v", got, want)
	}
	if tags := ParseTagList(""); len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}
