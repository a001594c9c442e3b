package ethereum

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPackBalanceOf(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data := PackBalanceOf(owner)

	if len(data) != 36 {
		t.Fatalf("expected 36 bytes of call data, got %d", len(data))
	}

	want := "70a082310000000000000000000000001111111111111111111111111111111111111111"
	if got := hex.EncodeToString(data); got != want {
		t.Errorf("unexpected call data:\nwant %s\ngot  %s", want, got)
	}
}

func TestPackTransfer(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	amount := big.NewInt(25000000) // 25 USDC in base units

	data := PackTransfer(to, amount)

	if len(data) != 68 {
		t.Fatalf("expected 68 bytes of call data, got %d", len(data))
	}

	want := "a9059cbb" +
		"0000000000000000000000002222222222222222222222222222222222222222" +
		"00000000000000000000000000000000000000000000000000000000017d7840"
	if got := hex.EncodeToString(data); got != want {
		t.Errorf("unexpected call data:\nwant %s\ngot  %s", want, got)
	}
}

func TestChecksumAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "lowercase to checksummed",
			input: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
			want:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
		{
			name:  "already checksummed",
			input: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			want:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
		{
			name:  "all digits unchanged",
			input: "0x1111111111111111111111111111111111111111",
			want:  "0x1111111111111111111111111111111111111111",
		},
		{
			name:    "missing prefix accepted by hex check",
			input:   "833589fcd6edb6e08f4c7c32d4f71b54bda02913",
			want:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
		{
			name:    "too short",
			input:   "0x1234",
			wantErr: true,
		},
		{
			name:    "not hex",
			input:   "hello world",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChecksumAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDecodeHex(t *testing.T) {
	b, err := decodeHex("0xdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hex.EncodeToString(b) != "deadbeef" {
		t.Errorf("unexpected bytes: %x", b)
	}

	if _, err := decodeHex("deadbeef"); err != nil {
		t.Errorf("expected unprefixed hex to decode, got %v", err)
	}
	if _, err := decodeHex("0xabc"); err == nil {
		t.Error("expected error for odd-length hex")
	}
	if _, err := decodeHex(""); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := decodeHex("0xzz"); err == nil {
		t.Error("expected error for non-hex characters")
	}
}

func TestConfirmationLevelBlockNumbers(t *testing.T) {
	tests := []struct {
		level ConfirmationLevel
		want  int64
	}{
		{LevelPending, -1},
		{LevelLatest, -2},
		{LevelCommitted, -4},
	}

	for _, tt := range tests {
		got := tt.level.blockNumber()
		if got == nil {
			t.Fatalf("%s: expected a block tag, got nil", tt.level)
		}
		if got.Int64() != tt.want {
			t.Errorf("%s: expected tag %d, got %d", tt.level, tt.want, got.Int64())
		}
	}
}
