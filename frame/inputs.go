package frame

// Button is a named input bound to one bit of the inputs bitmask.
type Button struct {
	Name string
	Bit  uint
}

// Buttons is the fixed bit layout shared with the upstream frame encoder.
// Order and bit positions must not change.
var Buttons = []Button{
	{"up", 0},
	{"down", 1},
	{"left", 2},
	{"right", 3},
	{"b1", 4},
	{"b2", 5},
	{"b3", 6},
	{"b4", 7},
	{"b5", 8},
	{"b6", 9},
	{"start", 10},
	{"coin", 11},
}

// ButtonState is one decoded button.
type ButtonState struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// IsActive reports whether the button's bit is set in inputs.
func (b Button) IsActive(inputs uint16) bool {
	return (inputs>>b.Bit)&1 == 1
}

// DecodeInputs returns every button in layout order with its state.
// Bits above the layout are ignored.
func DecodeInputs(inputs uint16) []ButtonState {
	states := make([]ButtonState, len(Buttons))
	for i, b := range Buttons {
		states[i] = ButtonState{Name: b.Name, Active: b.IsActive(inputs)}
	}
	return states
}

// ActiveButtons returns the names of the pressed buttons in layout order.
func ActiveButtons(inputs uint16) []string {
	var active []string
	for _, b := range Buttons {
		if b.IsActive(inputs) {
			active = append(active, b.Name)
		}
	}
	return active
}
