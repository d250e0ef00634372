package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := map[string]string{
		"<b>Olá</b>   mundo":                     "Olá mundo",
		"&lt;script&gt;alert(1)&lt;/script&gt;ok": "alert(1)ok",
		"  linha 1\nlinha  2 ":                    "linha 1\nlinha 2",
	}
	for in, want := range tests {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
	blank := "  <p></p> "
	if TextPtr(&blank) != nil {
		t.Fatal("expected nil for blank input")
	}
	v := "<i>oi</i>"
	if got := TextPtr(&v); got == nil || *got != "oi" {
		t.Fatalf("unexpected result %v", got)
	}
}
