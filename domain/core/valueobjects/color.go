package valueobjects

import "unicode/utf16"

// NodePalette is the fixed set of colors nodes are painted with.
var NodePalette = [10]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// ColorForLabel maps a label onto the palette.
// The hash is the sum of the label's UTF-16 code units, so the result matches
// what a browser computes with charCodeAt for the same label.
// An empty label hashes to zero.
func ColorForLabel(label string) string {
	sum := 0
	for _, unit := range utf16.Encode([]rune(label)) {
		sum += int(unit)
	}
	return NodePalette[sum%len(NodePalette)]
}
