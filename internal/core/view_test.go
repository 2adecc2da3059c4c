package core

import (
	"reflect"
	"testing"
)

func sample() []Entry {
	return []Entry{
		{ID: "a", Amount: 10, Category: "Dom", Date: "2024-01-05"},
		{ID: "b", Amount: 2.5, Category: "Jedzenie", Date: "2024-03-01"},
		{ID: "c", Amount: 7, Category: "Dom", Date: "2023-12-31"},
		{ID: "d", Amount: 0.5, Category: "Inne", Date: "2024-01-20"},
	}
}

func TestMonthOptions(t *testing.T) {
	got := MonthOptions(sample())
	want := []string{"2024-03", "2024-01", "2023-12"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("months = %v, want %v", got, want)
	}
}

func TestMonthOptionsEmpty(t *testing.T) {
	if got := MonthOptions(nil); len(got) != 0 {
		t.Fatalf("months = %v, want empty", got)
	}
}

func TestFilterMonthAll(t *testing.T) {
	entries := sample()
	filtered, total := FilterMonth(entries, MonthAll)
	if len(filtered) != len(entries) {
		t.Fatalf("len = %d, want %d", len(filtered), len(entries))
	}
	if total != 20 {
		t.Fatalf("total = %v, want 20", total)
	}
}

func TestFilterMonthSelected(t *testing.T) {
	filtered, total := FilterMonth(sample(), "2024-01")
	if len(filtered) != 2 {
		t.Fatalf("len = %d, want 2", len(filtered))
	}
	// Relative order is preserved.
	if filtered[0].ID != "a" || filtered[1].ID != "d" {
		t.Fatalf("order broken: %+v", filtered)
	}
	if total != 10.5 {
		t.Fatalf("total = %v, want 10.5", total)
	}
}

func TestFilterMonthMalformedDates(t *testing.T) {
	entries := []Entry{{ID: "a", Amount: 1, Date: ""}, {ID: "b", Amount: 2, Date: "xyz"}}
	filtered, total := FilterMonth(entries, "2024-01")
	if len(filtered) != 0 || total != 0 {
		t.Fatalf("malformed dates must not match a real month: %v, %v", filtered, total)
	}
	if _, total := FilterMonth(entries, MonthAll); total != 3 {
		t.Fatalf("all filter total = %v, want 3", total)
	}
}

func TestFormatDate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2024-01-05", "05.01.2024"},
		{"2023-12-31", "31.12.2023"},
		{"zepsuta", "zepsuta"},
		{"", ""},
	}
	for i, tc := range cases {
		if got := FormatDate(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(12.5, "PLN")
	if got != "12,50 zł" {
		t.Fatalf("got %q, want %q", got, "12,50 zł")
	}
	// Unknown codes fall back to PLN rather than failing.
	if fallback := FormatAmount(12.5, "ZZZ"); fallback != got {
		t.Fatalf("fallback = %q, want %q", fallback, got)
	}
}
