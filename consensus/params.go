package consensus

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// RuleSet identifies one version of the authentication virtual machine
// rules.  Each rule set has a fixed Params value.
type RuleSet uint8

const (
	// BCH2022 is the rule set activated in May 2022 (64-bit integers,
	// native introspection).
	BCH2022 RuleSet = iota

	// BCH2023 is the rule set activated in May 2023 (CashTokens, P2SH32,
	// SIGHASH_UTXOS, 65-byte minimum transaction size).
	BCH2023

	// BCHCHIPs extends BCH2023 with proposals under evaluation: bounded
	// loops and larger VM numbers.
	BCHCHIPs

	// BCHSpec is the preview of the next scheduled upgrade.  It currently
	// shares its opcode table with BCHCHIPs and keeps the BCH2023 numeric
	// ceiling.
	BCHSpec
)

var ruleSetNames = map[RuleSet]string{
	BCH2022:  "bch_2022",
	BCH2023:  "bch_2023",
	BCHCHIPs: "bch_chips",
	BCHSpec:  "bch_spec",
}

// String returns the canonical name of the rule set.
func (r RuleSet) String() string {
	if s, ok := ruleSetNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Unknown RuleSet (%d)", int(r))
}

// ParseRuleSet returns the rule set with the provided name.  Names are
// matched case-insensitively.
func ParseRuleSet(name string) (RuleSet, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for r, s := range ruleSetNames {
		if s == name {
			return r, nil
		}
	}
	return 0, errors.Errorf("unknown rule set %q", name)
}

// RuleSetNames returns the names of all known rule sets in activation order.
func RuleSetNames() []string {
	return []string{
		BCH2022.String(),
		BCH2023.String(),
		BCHCHIPs.String(),
		BCHSpec.String(),
	}
}

// Params holds the consensus and standardness constants of one rule set.
type Params struct {
	Name string

	// Script limits.
	MaximumBytecodeLength  int
	MaximumStackDepth      int
	MaximumOperationCount  int
	MaximumStackItemLength int
	MaximumVmNumberLength  int
	MaximumPublicKeys      int // per multisig operation

	// MaximumRepeatedBytes bounds the total bytecode re-executed by loops.
	// Zero when the rule set has no loop opcodes.
	MaximumRepeatedBytes int

	// Transaction limits.
	MinimumTransactionLengthBytes     int
	MaximumTransactionLengthBytes     int
	MinimumConsensusVersion           uint32
	MaximumConsensusVersion           uint32 // zero means unbounded
	MaximumTransactionSignatureChecks int

	// Standardness.
	MaximumStandardVersion                 uint32
	MaximumStandardTransactionLength       int
	MaximumStandardUnlockingBytecodeLength int
	MaximumStandardMultisigKeys            int
	MaximumDataCarrierBytes                int
	DustRelayFeeSatPerKb                   int64
	DustInputSpendLength                   int64

	// Token limits.
	MaximumTokenCommitmentLength int
	MaximumFungibleTokenAmount   int64

	// Feature switches.
	Tokens            bool
	PayToScriptHash32 bool
	SigHashUtxos      bool
	Loops             bool

	// CumulativeMetrics requires the inputs of a transaction to be
	// evaluated sequentially, carrying metrics from one input to the next.
	CumulativeMetrics bool
}

const (
	maxBytecodeLength      = 10000
	maxStackDepth          = 1000
	maxOperationCount      = 201
	maxStackItemLength     = 520
	maxVmNumberLength      = 8
	maxPublicKeys          = 20
	maxTransactionLength   = 1000000
	maxTxSignatureChecks   = 3000
	maxStandardTxLength    = 100000
	maxStandardUnlocking   = 1650
	maxStandardMultisig    = 3
	maxDataCarrierBytes    = 223
	dustRelayFeeSatPerKb   = 1000
	dustInputSpendLength   = 148
	maxTokenCommitment     = 40
	maxFungibleTokenAmount = 9223372036854775807
)

// ParamsBCH2022 are the parameters of the 2022 rule set.
var ParamsBCH2022 = Params{
	Name:                                   BCH2022.String(),
	MaximumBytecodeLength:                  maxBytecodeLength,
	MaximumStackDepth:                      maxStackDepth,
	MaximumOperationCount:                  maxOperationCount,
	MaximumStackItemLength:                 maxStackItemLength,
	MaximumVmNumberLength:                  maxVmNumberLength,
	MaximumPublicKeys:                      maxPublicKeys,
	MinimumTransactionLengthBytes:          100,
	MaximumTransactionLengthBytes:          maxTransactionLength,
	MaximumTransactionSignatureChecks:      maxTxSignatureChecks,
	MaximumStandardVersion:                 2,
	MaximumStandardTransactionLength:       maxStandardTxLength,
	MaximumStandardUnlockingBytecodeLength: maxStandardUnlocking,
	MaximumStandardMultisigKeys:            maxStandardMultisig,
	MaximumDataCarrierBytes:                maxDataCarrierBytes,
	DustRelayFeeSatPerKb:                   dustRelayFeeSatPerKb,
	DustInputSpendLength:                   dustInputSpendLength,
}

// ParamsBCH2023 are the parameters of the 2023 rule set.
var ParamsBCH2023 = func() Params {
	p := ParamsBCH2022
	p.Name = BCH2023.String()
	p.MinimumTransactionLengthBytes = 65
	p.MinimumConsensusVersion = 1
	p.MaximumConsensusVersion = 2
	p.MaximumTokenCommitmentLength = maxTokenCommitment
	p.MaximumFungibleTokenAmount = maxFungibleTokenAmount
	p.Tokens = true
	p.PayToScriptHash32 = true
	p.SigHashUtxos = true
	return p
}()

// ParamsBCHCHIPs are the parameters of the CHIPs rule set.
var ParamsBCHCHIPs = func() Params {
	p := ParamsBCH2023
	p.Name = BCHCHIPs.String()
	p.MaximumStackItemLength = maxBytecodeLength
	p.MaximumVmNumberLength = 258
	p.MaximumRepeatedBytes = maxBytecodeLength
	p.Loops = true
	p.CumulativeMetrics = true
	return p
}()

// ParamsBCHSpec are the parameters of the SPEC preview rule set.
var ParamsBCHSpec = func() Params {
	p := ParamsBCHCHIPs
	p.Name = BCHSpec.String()
	p.MaximumStackItemLength = maxStackItemLength
	p.MaximumVmNumberLength = maxVmNumberLength
	return p
}()

// ParamsFor returns a copy of the parameters of a rule set.
func ParamsFor(r RuleSet) (*Params, error) {
	var p Params
	switch r {
	case BCH2022:
		p = ParamsBCH2022
	case BCH2023:
		p = ParamsBCH2023
	case BCHCHIPs:
		p = ParamsBCHCHIPs
	case BCHSpec:
		p = ParamsBCHSpec
	default:
		return nil, errors.Errorf("no parameters for %v", r)
	}
	return &p, nil
}
