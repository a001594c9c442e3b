package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/testutil"
)

func TestParseActivity_Empty(t *testing.T) {
	parsed := ParseActivity(nil)

	if parsed.MainTransfer != nil {
		t.Error("expected no main transfer for empty batch")
	}
	if !parsed.TotalFees.IsZero() {
		t.Errorf("expected zero fees, got %s", parsed.TotalFees)
	}
}

func TestParseActivity_TokenTransfer(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithValue(decimal.NewFromFloat(25.5))),
	}

	parsed := ParseActivity(activities)

	if parsed.MainTransfer == nil {
		t.Fatal("expected a main transfer")
	}
	if parsed.MainTransfer.Asset != "USDC" {
		t.Errorf("expected asset USDC, got %s", parsed.MainTransfer.Asset)
	}
	if !parsed.MainTransfer.Value.Equal(decimal.NewFromFloat(25.5)) {
		t.Errorf("expected value 25.5, got %s", parsed.MainTransfer.Value)
	}
}

func TestParseActivity_SkipsExternalAndNative(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithCategory(entities.CategoryExternal)),
		testutil.CreateTestActivity(
			testutil.WithAsset(entities.NativeAsset),
			testutil.WithValue(decimal.NewFromFloat(0.01)),
		),
		testutil.CreateTestActivity(testutil.WithValue(decimal.NewFromInt(42))),
	}

	parsed := ParseActivity(activities)

	if parsed.MainTransfer == nil {
		t.Fatal("expected a main transfer")
	}
	if !parsed.MainTransfer.Value.Equal(decimal.NewFromInt(42)) {
		t.Errorf("expected the token record to win, got value %s", parsed.MainTransfer.Value)
	}
}

func TestParseActivity_SkipsBootloaderTouches(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithToAddress(entities.BootloaderAddress)),
		testutil.CreateTestActivity(testutil.WithFromAddress(entities.BootloaderAddress)),
	}

	parsed := ParseActivity(activities)

	if parsed.MainTransfer != nil {
		t.Error("expected no main transfer when every record touches the system address")
	}
}

func TestParseActivity_BootloaderCaseInsensitive(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithToAddress("0X0000000000000000000000000000000000008001")),
	}

	parsed := ParseActivity(activities)
	if parsed.MainTransfer != nil {
		t.Error("expected system-address match to be case insensitive")
	}
}

func TestParseActivity_FeeNetting(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithValue(decimal.NewFromInt(25))),
		testutil.CreateTestActivity(
			testutil.WithAsset(entities.NativeAsset),
			testutil.WithToAddress(entities.BootloaderAddress),
			testutil.WithValue(decimal.NewFromInt(10)),
		),
		testutil.CreateTestActivity(
			testutil.WithAsset(entities.NativeAsset),
			testutil.WithFromAddress(entities.BootloaderAddress),
			testutil.WithValue(decimal.NewFromInt(3)),
		),
	}

	parsed := ParseActivity(activities)

	if !parsed.TotalFees.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected net fee 7, got %s", parsed.TotalFees)
	}
}

func TestParseActivity_FractionalAndNegativeFees(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithValue(decimal.NewFromInt(25))),
		testutil.CreateTestActivity(
			testutil.WithAsset(entities.NativeAsset),
			testutil.WithToAddress(entities.BootloaderAddress),
			testutil.WithValue(decimal.RequireFromString("0.0001")),
		),
		testutil.CreateTestActivity(
			testutil.WithAsset(entities.NativeAsset),
			testutil.WithFromAddress(entities.BootloaderAddress),
			testutil.WithValue(decimal.RequireFromString("0.00025")),
		),
	}

	parsed := ParseActivity(activities)

	if parsed.MainTransfer == nil {
		t.Fatal("expected a main transfer")
	}
	want := decimal.RequireFromString("-0.00015")
	if !parsed.TotalFees.Equal(want) {
		t.Errorf("expected net fee %s, got %s", want, parsed.TotalFees)
	}
}

func TestParseActivity_FeeOnlyBatchYieldsZeroFees(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(
			testutil.WithAsset(entities.NativeAsset),
			testutil.WithToAddress(entities.BootloaderAddress),
			testutil.WithValue(decimal.RequireFromString("0.0001")),
		),
	}

	parsed := ParseActivity(activities)

	if parsed.MainTransfer != nil {
		t.Fatal("expected no main transfer in a fee-only batch")
	}
	if !parsed.TotalFees.IsZero() {
		t.Errorf("expected zero fees without a main transfer, got %s", parsed.TotalFees)
	}
}

func TestParseActivity_NonNativeBootloaderIgnoredForFees(t *testing.T) {
	activities := []entities.ChainActivity{
		testutil.CreateTestActivity(testutil.WithValue(decimal.NewFromInt(25))),
		testutil.CreateTestActivity(
			testutil.WithToAddress(entities.BootloaderAddress),
			testutil.WithValue(decimal.NewFromInt(5)),
		),
	}

	parsed := ParseActivity(activities)

	if !parsed.TotalFees.IsZero() {
		t.Errorf("expected token movements to never count as fees, got %s", parsed.TotalFees)
	}
}
