package frame

import "strconv"

// HashStatus is the outcome of comparing a replay frame against validation.
type HashStatus int

const (
	// HashUnavailable means there is no aligned validation frame. It is not a mismatch.
	HashUnavailable HashStatus = iota
	HashMatch
	HashMismatch
)

func (s HashStatus) String() string {
	switch s {
	case HashMatch:
		return "match"
	case HashMismatch:
		return "mismatch"
	default:
		return "no comparison available"
	}
}

// HashComparison carries both hashes so the view can show the validation side.
type HashComparison struct {
	Status         HashStatus
	ReplayHash     string
	ValidationHash string
}

// CompareHashes compares state hashes. A nil validation frame yields
// HashUnavailable.
func CompareHashes(replay ReplayFrame, validation *ValidationFrame) HashComparison {
	cmp := HashComparison{ReplayHash: replay.StateHash}
	if validation == nil {
		cmp.Status = HashUnavailable
		return cmp
	}
	cmp.ValidationHash = validation.StateHash
	if replay.StateHash == validation.StateHash {
		cmp.Status = HashMatch
	} else {
		cmp.Status = HashMismatch
	}
	return cmp
}

// VariableRow is one line of the variables table.
type VariableRow struct {
	Key           string
	Label         string
	Replay        string
	Validation    string // empty when HasValidation is false
	HasValidation bool
	Mismatch      bool
}

type variable struct {
	key   string
	label string
	value func(ReplayFrame) string
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

var variables = []variable{
	{"p1_health", "P1 Health", func(f ReplayFrame) string { return formatFloat(f.P1Health) }},
	{"p2_health", "P2 Health", func(f ReplayFrame) string { return formatFloat(f.P2Health) }},
	{"p1_x", "P1 X Position", func(f ReplayFrame) string { return formatFloat(f.P1X) }},
	{"p2_x", "P2 X Position", func(f ReplayFrame) string { return formatFloat(f.P2X) }},
	{"rng_seed", "RNG Seed", func(f ReplayFrame) string { return strconv.FormatInt(f.RNGSeed, 10) }},
}

// CompareVariables builds the variables table for a frame, flagging rows
// whose replay and validation values differ.
func CompareVariables(replay ReplayFrame, validation *ValidationFrame) []VariableRow {
	rows := make([]VariableRow, 0, len(variables))
	for _, v := range variables {
		row := VariableRow{Key: v.key, Label: v.label, Replay: v.value(replay)}
		if validation != nil {
			row.HasValidation = true
			row.Validation = v.value(*validation)
			row.Mismatch = row.Replay != row.Validation
		}
		rows = append(rows, row)
	}
	return rows
}
