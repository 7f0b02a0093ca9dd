package extract

import (
	"errors"
	"testing"
)

func TestPagesPlainText(t *testing.T) {
	pages, err := Pages([]byte("  Some plain text document.\nSecond line.  "))
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 1 || pages[0].Number != 0 {
		t.Fatalf("unexpected pages: %+v", pages)
	}
	if pages[0].Text != "Some plain text document.\nSecond line." {
		t.Fatalf("unexpected text %q", pages[0].Text)
	}
}

func TestPagesEmptyInput(t *testing.T) {
	if _, err := Pages(nil); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestPagesWhitespaceOnly(t *testing.T) {
	if _, err := Pages([]byte("   \n\t ")); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestPagesRejectsUnknownBinary(t *testing.T) {
	if _, err := Pages([]byte{0xff, 0xfe, 0x00, 0x01}); err == nil {
		t.Fatal("expected error for non-UTF-8 binary input")
	}
}

func TestPagesBrokenPDF(t *testing.T) {
	if _, err := Pages([]byte("%PDF-1.7 not really a pdf")); err == nil {
		t.Fatal("expected error for truncated pdf")
	}
}
