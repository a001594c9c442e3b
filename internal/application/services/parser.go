package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
)

// ParseActivity distills one webhook batch into the single token
// transfer representing user intent plus the net protocol fee.
//
// The main transfer is the first record that is not the generic
// "external" category, not the native asset, and does not touch the
// bootloader address. A batch without one is not a user transfer and
// yields zero fees regardless of any fee plumbing it carries.
// Native-asset records against the bootloader are fee plumbing: value
// moved to it is fee paid, value moved from it is a refund, so the net
// may be fractional and negative.
func ParseActivity(activities []entities.ChainActivity) entities.ParsedTransfer {
	parsed := entities.ParsedTransfer{TotalFees: decimal.Zero}

	for i := range activities {
		a := &activities[i]
		if a.Category == entities.CategoryExternal {
			continue
		}
		if a.Asset == entities.NativeAsset {
			continue
		}
		if isBootloader(a.FromAddress) || isBootloader(a.ToAddress) {
			continue
		}
		parsed.MainTransfer = a
		break
	}

	if parsed.MainTransfer == nil {
		return parsed
	}

	for i := range activities {
		a := &activities[i]
		if a.Asset != entities.NativeAsset {
			continue
		}
		if isBootloader(a.ToAddress) {
			parsed.TotalFees = parsed.TotalFees.Add(a.Value)
		} else if isBootloader(a.FromAddress) {
			parsed.TotalFees = parsed.TotalFees.Sub(a.Value)
		}
	}

	return parsed
}

func isBootloader(address string) bool {
	return strings.EqualFold(address, entities.BootloaderAddress)
}
