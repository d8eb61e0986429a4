// Package gas provides the advisory cost comparison between individual
// transfers and one batched submission. Estimates never gate ledger execution.
package gas

const (
	// BaseTransferCost is the base cost of a single value transfer.
	BaseTransferCost = 21000
	// PerRecipientCost is the incremental cost per recipient inside a batch.
	PerRecipientCost = 9000

	// contractPerRecipientCost is the raw per-transfer figure the on-chain
	// estimator reports. Kept for parity with the deployed contract.
	contractPerRecipientCost = 23000
)

type Estimate struct {
	RecipientCount int
	Individual     uint64
	Batch          uint64
	Savings        int64
	SavingsPercent float64
}

// EstimateBatch compares the cost of n individual transfers against one batch
// of n recipients. Savings can be negative for very small batches.
func EstimateBatch(recipientCount int) Estimate {
	if recipientCount <= 0 {
		return Estimate{}
	}
	individual := uint64(BaseTransferCost) * uint64(recipientCount)
	batch := uint64(BaseTransferCost) + uint64(PerRecipientCost)*uint64(recipientCount)
	savings := int64(individual) - int64(batch)
	return Estimate{
		RecipientCount: recipientCount,
		Individual:     individual,
		Batch:          batch,
		Savings:        savings,
		SavingsPercent: float64(savings) / float64(individual) * 100,
	}
}

// ContractEstimate is the gas figure the deployed contract exposes for a batch
// of n recipients.
func ContractEstimate(recipientCount int) uint64 {
	if recipientCount < 0 {
		return 0
	}
	return uint64(BaseTransferCost) + uint64(contractPerRecipientCost)*uint64(recipientCount)
}
