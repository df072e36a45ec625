package filter

import "testing"

func TestShouldSkipTooShort(t *testing.T) {
	if !ShouldSkip([]byte{1, 2, 3}) {
		t.Fatal("ShouldSkip(<8 bytes) = false, want true")
	}
}

func TestShouldSkipTEX(t *testing.T) {
	buf := []byte("TEX\x00aaaa")
	if !ShouldSkip(buf) {
		t.Fatal("ShouldSkip(TEX magic) = false, want true")
	}
}

func TestShouldSkipBKHD(t *testing.T) {
	buf := []byte{0x42, 0x4B, 0x48, 0x44, 0, 0, 0, 0}
	if !ShouldSkip(buf) {
		t.Fatal("ShouldSkip(BKHD magic) = false, want true")
	}
}

func TestShouldSkipGMSG(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 0x47, 0x4D, 0x53, 0x47}
	if !ShouldSkip(buf) {
		t.Fatal("ShouldSkip(GMSG magic) = false, want true")
	}
}

func TestShouldNotSkipOrdinaryBuffer(t *testing.T) {
	buf := []byte("a/b.tex\x00more bytes here")
	if ShouldSkip(buf) {
		t.Fatal("ShouldSkip(ordinary buffer) = true, want false")
	}
}
