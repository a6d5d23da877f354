package source

import "testing"

func TestTextRangeOps(t *testing.T) {
	r := TextRange{Start: 10, End: 20}

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"contains start", r.Contains(10), true},
		{"excludes end", r.Contains(20), false},
		{"contains inner range", r.ContainsRange(TextRange{Start: 12, End: 20}), true},
		{"rejects overhang", r.ContainsRange(TextRange{Start: 12, End: 21}), false},
		{"intersects touching", r.Intersects(TextRange{Start: 20, End: 25}), true},
		{"disjoint", r.Intersects(TextRange{Start: 21, End: 25}), false},
		{"empty", TextRange{Start: 3, End: 3}.Empty(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestTextRangeShift(t *testing.T) {
	r := TextRange{Start: 10, End: 20}
	if got := r.Add(5); got != (TextRange{Start: 15, End: 25}) {
		t.Errorf("Add = %v", got)
	}
	if got := r.Sub(10); got != (TextRange{Start: 0, End: 10}) {
		t.Errorf("Sub = %v", got)
	}
	// сдвиг больше старта — возвращаем исходный
	if got := r.Sub(11); got != r {
		t.Errorf("Sub underflow = %v", got)
	}
	if got := r.Cover(TextRange{Start: 2, End: 4}); got != (TextRange{Start: 2, End: 20}) {
		t.Errorf("Cover = %v", got)
	}
	if got := NewRange(4, 3); got != (TextRange{Start: 4, End: 7}) {
		t.Errorf("NewRange = %v", got)
	}
}
