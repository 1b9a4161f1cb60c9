// Package input implements the two NES controller ports: 8-bit shift
// registers strobed by a CPU-visible latch at $4016.
package input

// Button represents a single NES controller button as a bitflag.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Short aliases for host-side key-binding tables.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller is one NES controller port: a snapshot latch plus an
// 8-bit shift register, in bit order A, B, Select, Start, Up, Down,
// Left, Right (first read returns A).
type Controller struct {
	buttons       uint8
	shiftRegister uint8
	strobe        bool
}

// New creates a Controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button's held state.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// SetButtons sets all eight button states at once, in A, B, Select,
// Start, Up, Down, Left, Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	var v uint8
	for i, pressed := range buttons {
		if pressed {
			v |= 1 << uint(i)
		}
	}
	c.buttons = v
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// IsPressed reports whether the given button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles a write to the controller's strobe latch. While the
// strobe bit is set, the shift register continuously reloads from the
// live button state; the falling edge freezes the snapshot that Read
// will shift out one bit at a time.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read shifts out the next bit. Past the eighth bit the line reads
// back as 1, matching open-bus behavior on real hardware.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 1
	}
	bit := c.shiftRegister & 1
	c.shiftRegister = c.shiftRegister>>1 | 0x80
	return bit
}

// Reset clears held buttons and the shift register.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// InputState owns both controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates both controller ports.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read dispatches a CPU read of $4016 or $4017. Bit 0 carries the
// controller data and the other bits read as 0, except that $4017 sets
// bit 6, where the expansion port it also serves floats high on real
// hardware.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write dispatches a CPU write to $4016. The strobe bit fans out to
// both controller ports; $4017 writes on real hardware go to the APU,
// not the second controller, so only $4016 is handled here.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
