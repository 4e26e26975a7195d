package round

import "testing"

func TestIsCorrect(t *testing.T) {
	if !IsCorrect(" Apple ", "apple") {
		t.Error("Expected a case-insensitive trimmed match")
	}
	if IsCorrect("apples", "apple") {
		t.Error("Expected a longer word not to match")
	}
}

func TestIsClose(t *testing.T) {
	tests := []struct {
		guess, keyword string
		want           bool
	}{
		{"appl", "apple", true},
		{"aple", "apple", true},
		{"apply", "apple", true},
		{"appel", "apple", false}, // distance 2 on a short keyword
		{"apple", "apple", false},
		{"APPLE", "apple", false},
		{"elefant", "elephant", true},
		{"elefent", "elephant", false},
		{"xyz", "elephant", false},
		{"", "a", false},
	}
	for _, tt := range tests {
		if got := IsClose(tt.guess, tt.keyword, 5); got != tt.want {
			t.Errorf("IsClose(%q, %q) = %v, want %v", tt.guess, tt.keyword, got, tt.want)
		}
	}
}
