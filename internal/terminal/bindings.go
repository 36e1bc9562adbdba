package terminal

// Binding documents one key sequence.
type Binding struct {
	Mode   Mode
	Keys   string
	Action string
}

// Bindings lists the key sequences the machine reacts to, for help output.
var Bindings = []Binding{
	{Passive, "t enter", "command mode"},
	{Command, "tab tab", "passive mode"},
	{Command, "a", "add trap"},
	{Command, "x", "remove trap"},
	{Command, "q q", "toggle all traps"},
	{Command, "i", "free text"},
	{Command, "t", "transmit"},
	{Command, "v", "view monitor"},
	{Command, "s", "switch player"},
	{Command, "p", "ping radar"},
	{Command, "f", "flash radar"},
	{Command, "ctrl c", "cancel"},
}
