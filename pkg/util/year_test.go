package util

import "testing"

func TestParseYear(t *testing.T) {
	got, ok := ParseYear("2020")
	if !ok || got != 2020 {
		t.Fatalf("unexpected year %v ok=%v", got, ok)
	}
	if _, ok := ParseYear("20"); ok {
		t.Fatalf("expected not ok for short year")
	}
	if _, ok := ParseYear("abcd"); ok {
		t.Fatalf("expected not ok for non-numeric")
	}
}

func TestClampYearRange(t *testing.T) {
	from, to := ClampYearRange(2030, 1990, 2000, 2023)
	if from != 2000 || to != 2023 {
		t.Fatalf("unexpected range [%d,%d]", from, to)
	}
}

func TestYearsBetween(t *testing.T) {
	ys := YearsBetween(2019, 2021)
	if len(ys) != 3 || ys[0] != 2019 || ys[2] != 2021 {
		t.Fatalf("unexpected years %v", ys)
	}
	if YearsBetween(2021, 2019) != nil {
		t.Fatalf("expected nil for inverted range")
	}
}

func TestNormalizeISO3(t *testing.T) {
	got, ok := NormalizeISO3(" nga ")
	if !ok || got != "NGA" {
		t.Fatalf("unexpected code %q ok=%v", got, ok)
	}
	if _, ok := NormalizeISO3("NG"); ok {
		t.Fatalf("expected not ok for two letters")
	}
	if _, ok := NormalizeISO3("N1A"); ok {
		t.Fatalf("expected not ok for digits")
	}
}
