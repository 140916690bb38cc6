package geometry

import "testing"

func TestAlign16(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int
	}{
		{"already aligned", 1920, 1920},
		{"rounds down", 1921, 1920},
		{"just below boundary", 1935, 1920},
		{"common portrait width", 1080, 1072},
		{"below macroblock", 15, 0},
		{"zero", 0, 0},
		{"negative clamps to zero", -32, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Align16(tc.in); got != tc.want {
				t.Errorf("Align16(%d) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestAlign16Idempotent(t *testing.T) {
	for x := 0; x <= 4096; x++ {
		once := Align16(x)
		if Align16(once) != once {
			t.Fatalf("Align16 not idempotent at %d", x)
		}
		if once%16 != 0 {
			t.Fatalf("Align16(%d) = %d is not a multiple of 16", x, once)
		}
	}
}

func TestAlignUp16(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{1920, 1920},
		{1921, 1936},
		{1080, 1088},
		{1, 16},
		{0, 0},
	}
	for _, tc := range cases {
		if got := AlignUp16(tc.in); got != tc.want {
			t.Errorf("AlignUp16(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
