package normalize

import "testing"

func TestKey_LowercasesAndStripsPunctuation(t *testing.T) {
	got := Key("Hello, World! It's 2024.")
	want := "helloworldits2024"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestKey_RemovesAllWhitespace(t *testing.T) {
	if Key("a b") != Key("ab") {
		t.Fatalf("expected whitespace-insensitive keys to match")
	}
	if Key("spaced\tout\ntext") != "spacedouttext" {
		t.Fatalf("expected tabs and newlines removed, got %q", Key("spaced\tout\ntext"))
	}
}

func TestKey_KeepsUnderscoresAndUnicodeLetters(t *testing.T) {
	got := Key("snake_case Ünïcödé")
	want := "snake_caseünïcödé"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestKey_EmptyInput(t *testing.T) {
	if Key("") != "" {
		t.Fatalf("expected empty key for empty input")
	}
	if Key("!!! --- ...") != "" {
		t.Fatalf("expected empty key for punctuation-only input, got %q", Key("!!! --- ..."))
	}
}
